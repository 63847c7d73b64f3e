package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
)

type fakeAuthSrv struct {
	login      models.LoginRequest
	logoutUser string
	logoutTok  string
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.login = req
	if req.Password != "secret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "access", User: models.UserInfo{Email: req.Email, Landing: "/teacher"}}, nil
}

func (f *fakeAuthSrv) RefreshToken(_ context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "next", RefreshToken: req.RefreshToken + "-rotated"}, nil
}

func (f *fakeAuthSrv) Logout(_ context.Context, refreshToken, userID string, _ models.LoginRequest) error {
	f.logoutTok, f.logoutUser = refreshToken, userID
	return nil
}

func (f *fakeAuthSrv) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, Landing: "/leader"}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv)

	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"t@ekya.in","password":"secret"}`, nil)
	c.Request.Header.Set("User-Agent", "test-agent")
	h.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-agent", srv.login.UserAgent)
	var res models.LoginResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, "/teacher", res.User.Landing)
}

func TestAuthHandlerLoginFailures(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})

	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":`, nil)
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(http.MethodPost, "/auth/login", `{"email":"t@ekya.in","password":"nope"}`, nil)
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestAuthHandlerRefresh(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newContext(http.MethodPost, "/auth/refresh", `{"refresh_token":"r1"}`, nil)
	h.Refresh(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res models.RefreshTokenResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, "r1-rotated", res.RefreshToken)
}

func TestAuthHandlerLogout(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv)

	c, rec := newContext(http.MethodPost, "/auth/logout", `{"refresh_token":"r1"}`, nil)
	h.Logout(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, _ = newContext(http.MethodPost, "/auth/logout", `{"refresh_token":"r1"}`, claimsFor(models.RoleTeacher))
	h.Logout(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "r1", srv.logoutTok)
	assert.Equal(t, "user-teacher", srv.logoutUser)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newContext(http.MethodGet, "/auth/me", "", claimsFor(models.RoleLeader))
	h.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var info models.UserInfo
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &info))
	assert.Equal(t, "user-leader", info.ID)
	assert.Equal(t, "/leader", info.Landing)
}
