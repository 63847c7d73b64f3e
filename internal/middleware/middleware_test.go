package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/service"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type validatorStub struct {
	claims *models.JWTClaims
	seen   string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.seen = token
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type envelope struct {
	Status string                 `json:"status"`
	Error  *appErrors.Error       `json:"error"`
	Meta   map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func withClaims(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: role})
		c.Next()
	}
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestJWTRequiresBearerToken(t *testing.T) {
	v := &validatorStub{claims: &models.JWTClaims{UserID: "u-1", Role: "TEACHER"}}
	r := gin.New()
	r.GET("/me", JWT(v), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token good")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String())
}

func TestJWTIgnoresQueryTokenOutsideStreams(t *testing.T) {
	v := &validatorStub{claims: &models.JWTClaims{UserID: "u-1"}}
	r := gin.New()
	r.GET("/api", JWT(v), ok)
	r.GET("/events", StreamJWT(v), ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api?token=good", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?token=good", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "good", v.seen)
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	v := &validatorStub{claims: &models.JWTClaims{UserID: "u-1"}}
	r := gin.New()
	r.GET("/", OptionalJWT(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"auth": Claims(c) != nil})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	r.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"auth":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"auth":true}`, rec.Body.String())
}

func TestRBACNormalisesRoles(t *testing.T) {
	cases := []struct {
		role models.UserRole
		want int
	}{
		{"admin", http.StatusOK},
		{"SUPERADMIN", http.StatusOK},
		{"School Leader", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/", withClaims(tc.role), AdminOnly(), ok)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tc.want, rec.Code, "role %q", tc.role)
	}

	r := gin.New()
	r.GET("/", AdminOnly(), ok)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func newTestGuard(t *testing.T, loaded bool) (*access.Guard, *access.Store) {
	t.Helper()
	store := access.NewStore()
	if loaded {
		store.MarkLoaded()
	}
	return access.NewGuard(store, access.NewEvaluator(store, nil)), store
}

func TestAccessGuardLoadingAsksToRetry(t *testing.T) {
	guard, _ := newTestGuard(t, false)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.GET("/api/v1/goals", withClaims("TEACHER"), AccessGuard(guard, AccessGuardConfig{Metrics: metrics}), ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "UNAVAILABLE", decode(t, rec).Error.Code)
	assert.Zero(t, metrics.Snapshot().AccessDenials)
}

func TestAccessGuardRedirectsAnonymousToLogin(t *testing.T) {
	guard, _ := newTestGuard(t, true)
	r := gin.New()
	r.GET("/api/v1/goals", AccessGuard(guard, AccessGuardConfig{}), ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "/login?from=%2Fapi%2Fv1%2Fgoals", body.Meta["redirect"])
}

func TestAccessGuardMatrixDenialRedirectsToLanding(t *testing.T) {
	guard, store := newTestGuard(t, true)
	_, err := store.Apply(1, access.Config{AccessMatrix: []access.ModulePermission{
		{ModuleID: "goals", Roles: map[access.Role]bool{access.RoleTeacher: false}},
	}})
	require.NoError(t, err)
	metrics := service.NewMetricsService()

	var decision access.Decision
	r := gin.New()
	r.Use(withClaims("TEACHER"), AccessGuard(guard, AccessGuardConfig{Metrics: metrics}))
	r.GET("/api/v1/goals/:id", ok)
	r.GET("/api/v1/hours", func(c *gin.Context) {
		decision, _ = AccessDecision(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/goals/123", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "/teacher", decode(t, rec).Meta["redirect"])
	assert.Equal(t, uint64(1), metrics.Snapshot().AccessDenials)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hours", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hours", decision.ModuleID)
	assert.True(t, decision.Enabled)
}

func TestAccessGuardStaticAllowListUsesRawRole(t *testing.T) {
	guard, _ := newTestGuard(t, true)
	r := gin.New()
	r.Use(withClaims("admin"), AccessGuard(guard, AccessGuardConfig{AllowedRoles: []string{"ADMIN"}}))
	r.GET("/api/v1/users", ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "/admin", decode(t, rec).Meta["redirect"])
}

type auditSinkStub struct {
	logs []*models.AuditLog
	err  error
}

func (s *auditSinkStub) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return s.err
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	sink := &auditSinkStub{err: errors.New("ignored")}
	r := gin.New()
	r.POST("/sync", withClaims("ADMIN"), Audit(sink, models.AuditActionAccessResync, models.AuditResourceAccess), ok)
	r.POST("/fail", withClaims("ADMIN"), Audit(sink, models.AuditActionAccessResync, models.AuditResourceAccess), func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fail", nil))

	require.Len(t, sink.logs, 1)
	entry := sink.logs[0]
	assert.Equal(t, models.AuditActionAccessResync, entry.Action)
	assert.Equal(t, models.AuditResourceAccess, entry.Resource)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u-1", *entry.UserID)
	assert.Contains(t, string(entry.NewValues), `"path":"/sync"`)
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/ping", ok)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
}

func TestResponseMetaRecordsCacheHit(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, true, meta["cache_hit"])
}
