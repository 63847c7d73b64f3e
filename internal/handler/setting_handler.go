package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/dto"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/middleware"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/response"
)

type settingService interface {
	List(ctx context.Context) ([]dto.SettingItem, error)
	Get(ctx context.Context, key string) (*dto.SettingItem, error)
	Update(ctx context.Context, key string, value json.RawMessage, actor *models.JWTClaims) (*dto.SettingItem, error)
}

// SettingHandler serves the key/value settings API.
type SettingHandler struct {
	service settingService
}

// NewSettingHandler constructs the handler.
func NewSettingHandler(svc settingService) *SettingHandler {
	return &SettingHandler{service: svc}
}

// List godoc
// @Summary List settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"settings": items}, nil)
}

// Get godoc
// @Summary Get setting
// @Description Any signed-in user may read the access matrix config; other keys need an admin
// @Tags Settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /settings/{key} [get]
func (h *SettingHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	key := c.Param("key")
	if key != access.ConfigKey && !isAdmin(claims) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	item, err := h.service.Get(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, item.Cached)
	response.JSON(c, http.StatusOK, gin.H{"setting": item}, nil, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update setting
// @Description Validates, persists, audits and broadcasts SETTINGS_UPDATED
// @Tags Settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param payload body dto.UpdateSettingRequest true "Value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/{key} [put]
func (h *SettingHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid setting payload"))
		return
	}
	if len(req.Value) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "value is required"))
		return
	}

	item, err := h.service.Update(c.Request.Context(), c.Param("key"), req.Value, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"setting": item}, nil)
}

func isAdmin(claims *models.JWTClaims) bool {
	role := access.NormalizeRole(string(claims.Role))
	return role == access.RoleAdmin || role == access.RoleSuperAdmin
}
