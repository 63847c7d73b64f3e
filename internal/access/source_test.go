package access

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
)

func TestHTTPSourceFetch(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"setting":{"key":"access_matrix_config","value":"{\"accessMatrix\":[{\"moduleId\":\"hours\",\"roles\":{\"TEACHER\":false}}]}"}}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/api/v1/", func() string { return "tok" }, nil)
	cfg, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/api/v1/settings/access_matrix_config", gotPath)
	require.Len(t, cfg.AccessMatrix, 1)
	assert.False(t, cfg.AccessMatrix[0].Roles[RoleTeacher])
}

func TestHTTPSourceStatusMapping(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"status":"error","error":{"code":"X","message":"database offline"}}`))
	}))
	defer srv.Close()
	src := NewHTTPSource(srv.URL, nil, srv.Client())

	_, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	status.Store(http.StatusNotFound)
	_, err = src.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	status.Store(http.StatusInternalServerError)
	_, err = src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database offline")
}

type fakeSettings struct {
	raw json.RawMessage
	err error
}

func (f fakeSettings) Value(context.Context, string) (json.RawMessage, error) {
	return f.raw, f.err
}

func TestSettingsSource(t *testing.T) {
	cfg, err := NewSettingsSource(fakeSettings{raw: json.RawMessage(`{"accessMatrix":[{"moduleId":"goals","roles":{"LEADER":false}}]}`)}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "goals", cfg.AccessMatrix[0].ModuleID)

	_, err = NewSettingsSource(fakeSettings{err: appErrors.ErrNotFound}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
