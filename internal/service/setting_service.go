package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/dto"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/realtime"
)

type settingRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

// SettingType describes the JSON shape a key accepts.
type SettingType string

const (
	SettingTypeObject  SettingType = "object"
	SettingTypeString  SettingType = "string"
	SettingTypeBoolean SettingType = "boolean"
)

const (
	SettingAccessMatrix      = access.ConfigKey
	SettingSchoolDisplayName = "school_display_name"
	SettingEnableSurveysUI   = "enable_surveys_ui"
)

type allowedSetting struct {
	Key         string
	Type        SettingType
	Description string
	normalize   func(raw json.RawMessage) (json.RawMessage, error)
}

var allowedSettingKeys = []string{
	SettingAccessMatrix,
	SettingSchoolDisplayName,
	SettingEnableSurveysUI,
}

var allowedSettings = map[string]allowedSetting{
	SettingAccessMatrix: {
		Key:         SettingAccessMatrix,
		Type:        SettingTypeObject,
		Description: "Module permissions per role and form routing",
		normalize:   normalizeAccessConfig,
	},
	SettingSchoolDisplayName: {
		Key:         SettingSchoolDisplayName,
		Type:        SettingTypeString,
		Description: "Display name for the school shown in headers",
		normalize:   normalizeDisplayName,
	},
	SettingEnableSurveysUI: {
		Key:         SettingEnableSurveysUI,
		Type:        SettingTypeBoolean,
		Description: "Toggle to show/hide the surveys menu in UI",
		normalize:   normalizeBoolean,
	},
}

var builtinSettingDefaults = map[string]json.RawMessage{
	SettingEnableSurveysUI: json.RawMessage("false"),
}

// SettingServiceConfig tunes runtime behaviour.
type SettingServiceConfig struct {
	Defaults map[string]json.RawMessage
	CacheTTL time.Duration
}

// SettingServiceOption configures optional collaborators.
type SettingServiceOption func(*SettingService)

// WithSettingCache caches reads and invalidates on update.
func WithSettingCache(cache *CacheService) SettingServiceOption {
	return func(s *SettingService) {
		s.cache = cache
	}
}

// WithSettingPublisher announces updates to connected clients.
func WithSettingPublisher(publisher realtime.Publisher) SettingServiceOption {
	return func(s *SettingService) {
		s.publisher = publisher
	}
}

// SettingService orchestrates reads and updates of allow-listed settings.
type SettingService struct {
	repo      settingRepository
	audit     auditLogger
	cache     *CacheService
	publisher realtime.Publisher
	logger    *zap.Logger
	defaults  map[string]json.RawMessage
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewSettingService constructs a SettingService.
func NewSettingService(repo settingRepository, audit auditLogger, logger *zap.Logger, cfg SettingServiceConfig, opts ...SettingServiceOption) *SettingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := make(map[string]json.RawMessage, len(builtinSettingDefaults))
	for key, value := range builtinSettingDefaults {
		defaults[key] = value
	}
	for key, value := range cfg.Defaults {
		if len(value) == 0 {
			continue
		}
		defaults[key] = value
	}
	svc := &SettingService{
		repo:     repo,
		audit:    audit,
		logger:   logger,
		defaults: defaults,
		cacheTTL: cfg.CacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// DisplayNameDefault encodes a configured school name as a setting default.
func DisplayNameDefault(name string) map[string]json.RawMessage {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	raw, _ := json.Marshal(name)
	return map[string]json.RawMessage{SettingSchoolDisplayName: raw}
}

// List returns every allow-listed key with its stored or default value.
func (s *SettingService) List(ctx context.Context) ([]dto.SettingItem, error) {
	keys := append([]string(nil), allowedSettingKeys...)
	rows, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	existing := make(map[string]models.Setting, len(rows))
	for _, row := range rows {
		existing[row.Key] = row
	}

	items := make([]dto.SettingItem, 0, len(keys))
	for _, key := range keys {
		meta := allowedSettings[key]
		if row, ok := existing[key]; ok {
			items = append(items, itemFromRow(meta, row))
			continue
		}
		item := dto.SettingItem{Key: key, Type: string(meta.Type), Description: meta.Description, Value: json.RawMessage("null")}
		if def, ok := s.defaults[key]; ok {
			item.Value = def
			item.IsDefault = true
		}
		items = append(items, item)
	}
	return items, nil
}

// Get retrieves a single setting, falling back to its default. Keys with
// neither a stored value nor a default are reported as not found.
func (s *SettingService) Get(ctx context.Context, key string) (*dto.SettingItem, error) {
	meta, err := requireAllowedSetting(key)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cache.Key(key)
	var cached dto.SettingItem
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		cached.Cached = true
		return &cached, nil
	}

	row, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get setting")
		}
		def, ok := s.defaults[key]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("setting %s not found", key))
		}
		return &dto.SettingItem{Key: key, Value: def, Type: string(meta.Type), Description: meta.Description, IsDefault: true}, nil
	}

	item := itemFromRow(meta, *row)
	_ = s.cache.Set(ctx, cacheKey, item, s.cacheTTL)
	return &item, nil
}

// Value returns the raw JSON of key. It lets the access syncer read the
// matrix in-process.
func (s *SettingService) Value(ctx context.Context, key string) (json.RawMessage, error) {
	item, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Update validates and persists a new value, then announces the change.
func (s *SettingService) Update(ctx context.Context, key string, value json.RawMessage, actor *models.JWTClaims) (*dto.SettingItem, error) {
	meta, err := requireAllowedSetting(key)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	normalized, err := meta.normalize(value)
	if err != nil {
		return nil, err
	}

	prev, err := s.repo.Get(ctx, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch setting")
	}

	setting := &models.Setting{
		Key:       key,
		Value:     models.JSONDocument(normalized),
		UpdatedBy: userIDPtr(actor),
		UpdatedAt: s.now(),
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update setting")
	}

	s.emitAudit(ctx, actor, key, prev, setting.Value)
	_ = s.cache.Delete(ctx, s.cache.Key(key))
	s.announce(ctx, key)

	item := itemFromRow(meta, *setting)
	return &item, nil
}

func (s *SettingService) announce(ctx context.Context, key string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.SettingsUpdated(key)); err != nil {
		s.logger.Warn("failed to publish settings update", zap.String("key", key), zap.Error(err))
	}
}

func (s *SettingService) emitAudit(ctx context.Context, actor *models.JWTClaims, key string, prev *models.Setting, next models.JSONDocument) {
	if s.audit == nil {
		return
	}
	var oldValues models.JSONDocument
	if prev != nil {
		oldValues = models.MustJSON(map[string]interface{}{"key": key, "value": json.RawMessage(prev.Value)})
	}
	entry := &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionSettingUpdate,
		Resource:   models.AuditResourceSetting,
		ResourceID: strPtr(key),
		OldValues:  oldValues,
		NewValues:  models.MustJSON(map[string]interface{}{"key": key, "value": json.RawMessage(next)}),
		IPAddress:  "system",
		UserAgent:  "setting-service",
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record setting audit", zap.String("key", key), zap.Error(err))
	}
}

func itemFromRow(meta allowedSetting, row models.Setting) dto.SettingItem {
	updatedAt := row.UpdatedAt
	value := json.RawMessage(row.Value)
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	return dto.SettingItem{
		Key:         row.Key,
		Value:       value,
		Type:        string(meta.Type),
		Description: meta.Description,
		UpdatedAt:   &updatedAt,
	}
}

func requireAllowedSetting(key string) (allowedSetting, error) {
	meta, ok := allowedSettings[key]
	if !ok {
		return allowedSetting{}, appErrors.Clone(appErrors.ErrValidation, "unsupported setting key")
	}
	return meta, nil
}

// normalizeAccessConfig accepts the matrix as an object or as a JSON string
// holding the object, and stores the canonical object form.
func normalizeAccessConfig(raw json.RawMessage) (json.RawMessage, error) {
	cfg, err := access.ParseConfig(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access_matrix_config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if cfg.FormFlows == nil {
		cfg.FormFlows = []access.FormFlowConfig{}
	}
	out, err := json.Marshal(cfg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode access_matrix_config")
	}
	return out, nil
}

func normalizeDisplayName(raw json.RawMessage) (json.RawMessage, error) {
	var name string
	if err := json.Unmarshal(bytes.TrimSpace(raw), &name); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school_display_name expects a string value")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 120 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school_display_name must be 1-120 characters")
	}
	out, _ := json.Marshal(name)
	return out, nil
}

func normalizeBoolean(raw json.RawMessage) (json.RawMessage, error) {
	var flag bool
	if err := json.Unmarshal(bytes.TrimSpace(raw), &flag); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expected boolean value")
	}
	if flag {
		return json.RawMessage("true"), nil
	}
	return json.RawMessage("false"), nil
}
