package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
)

func newAccessHandler(t *testing.T, source access.SourceFunc) (*AccessHandler, *access.Store) {
	t.Helper()
	store := access.NewStore()
	store.MarkLoaded()
	syncer := access.NewSyncer(store, source)
	return NewAccessHandler(store, access.NewEvaluator(store, nil), syncer), store
}

func TestAccessHandlerCheck(t *testing.T) {
	h, store := newAccessHandler(t, nil)
	_, err := store.Apply(1, access.Config{AccessMatrix: []access.ModulePermission{
		{ModuleID: "hours", Roles: map[access.Role]bool{access.RoleTeacher: false}},
	}})
	require.NoError(t, err)

	c, rec := newContext(http.MethodGet, "/access/check?path=/teacher/pd-hours", "", claimsFor(models.RoleTeacher))
	h.Check(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res AccessCheckResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, "hours", res.ModuleID)
	assert.False(t, res.Enabled)
	assert.Equal(t, access.ReasonMatrixDeny, res.Reason)
	assert.Equal(t, "/teacher", res.Landing)
}

func TestAccessHandlerCheckRequiresPath(t *testing.T) {
	h, _ := newAccessHandler(t, nil)
	c, rec := newContext(http.MethodGet, "/access/check", "", claimsFor(models.RoleTeacher))
	h.Check(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccessHandlerMatrix(t *testing.T) {
	h, _ := newAccessHandler(t, nil)
	c, rec := newContext(http.MethodGet, "/access/matrix", "", claimsFor(models.RoleTeacher))
	h.Matrix(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	var snapshot access.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Len(t, snapshot.Matrix, len(access.DefaultMatrix()))
	assert.Equal(t, true, env.Meta["loaded"])
}

func TestAccessHandlerSyncAppliesServerConfig(t *testing.T) {
	h, store := newAccessHandler(t, func(context.Context) (access.Config, error) {
		return access.Config{AccessMatrix: []access.ModulePermission{
			{ModuleID: "surveys", Roles: map[access.Role]bool{access.RoleTeacher: false}},
		}}, nil
	})
	before := store.Snapshot().Version

	c, rec := newContext(http.MethodPost, "/access/sync", "", claimsFor(models.RoleAdmin))
	h.Sync(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, store.Snapshot().Version)
	surveys, ok := store.Snapshot().Module("surveys")
	require.True(t, ok)
	assert.False(t, surveys.Roles[access.RoleTeacher])
}

func TestAccessHandlerSyncErrors(t *testing.T) {
	h, _ := newAccessHandler(t, func(context.Context) (access.Config, error) {
		return access.Config{}, access.ErrNotFound
	})
	c, rec := newContext(http.MethodPost, "/access/sync", "", claimsFor(models.RoleAdmin))
	h.Sync(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h, _ = newAccessHandler(t, func(context.Context) (access.Config, error) {
		return access.Config{}, errors.New("database down")
	})
	c, rec = newContext(http.MethodPost, "/access/sync", "", claimsFor(models.RoleAdmin))
	h.Sync(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
