package access

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
)

// SettingsReader returns the raw JSON value of a setting.
type SettingsReader interface {
	Value(ctx context.Context, key string) (json.RawMessage, error)
}

// SettingsSource reads the access config from the local settings service.
type SettingsSource struct {
	reader SettingsReader
}

// NewSettingsSource wraps reader.
func NewSettingsSource(reader SettingsReader) *SettingsSource {
	return &SettingsSource{reader: reader}
}

// Fetch implements Source.
func (s *SettingsSource) Fetch(ctx context.Context) (Config, error) {
	raw, err := s.reader.Value(ctx, ConfigKey)
	if err != nil {
		if appErrors.StatusOf(err) == http.StatusNotFound {
			return Config{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return Config{}, err
	}
	return ParseConfig(raw)
}

// HTTPSource fetches the access config from a remote API.
type HTTPSource struct {
	baseURL string
	token   func() string
	client  *http.Client
}

// NewHTTPSource targets baseURL, e.g. "http://host/api/v1". token is called
// on every fetch. A nil client gets a 10 second timeout.
func NewHTTPSource(baseURL string, token func() string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: client}
}

type settingEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Setting *struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		} `json:"setting"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch implements Source. 401 and 404 map to ErrUnauthorized and
// ErrNotFound.
func (h *HTTPSource) Fetch(ctx context.Context) (Config, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/settings/"+ConfigKey, nil)
	if err != nil {
		return Config{}, err
	}
	req.Header.Set("Accept", "application/json")
	if token := h.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Config{}, fmt.Errorf("fetch access config: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return Config{}, ErrUnauthorized
	case http.StatusNotFound:
		return Config{}, ErrNotFound
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Config{}, fmt.Errorf("read access config: %w", err)
	}

	var env settingEnvelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode >= http.StatusMultipleChoices {
		if decodeErr == nil && env.Error != nil && env.Error.Message != "" {
			return Config{}, fmt.Errorf("fetch access config: status %d: %s", resp.StatusCode, env.Error.Message)
		}
		return Config{}, fmt.Errorf("fetch access config: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, decodeErr)
	}
	if env.Data.Setting == nil {
		return Config{}, ErrNotFound
	}
	return ParseConfig(env.Data.Setting.Value)
}
