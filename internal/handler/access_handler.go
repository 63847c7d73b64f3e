package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/response"
)

type accessSyncer interface {
	Sync(ctx context.Context, trigger access.Trigger) error
}

type accessChecker interface {
	Check(path, rawRole string) access.Decision
}

// AccessCheckResponse is the access verdict for one path.
type AccessCheckResponse struct {
	access.Decision
	Landing string `json:"landing"`
}

// AccessHandler exposes the live access matrix.
type AccessHandler struct {
	store     *access.Store
	evaluator accessChecker
	syncer    accessSyncer
}

// NewAccessHandler constructs the handler.
func NewAccessHandler(store *access.Store, evaluator accessChecker, syncer accessSyncer) *AccessHandler {
	return &AccessHandler{store: store, evaluator: evaluator, syncer: syncer}
}

// Matrix godoc
// @Summary Current access matrix
// @Tags Access
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /access/matrix [get]
func (h *AccessHandler) Matrix(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.store.Snapshot(), nil, map[string]interface{}{"loaded": h.store.Loaded()})
}

// Check godoc
// @Summary Check module access for the caller
// @Tags Access
// @Produce json
// @Param path query string true "Navigation path"
// @Success 200 {object} response.Envelope
// @Router /access/check [get]
func (h *AccessHandler) Check(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "path is required"))
		return
	}
	role := string(claims.Role)
	response.JSON(c, http.StatusOK, AccessCheckResponse{
		Decision: h.evaluator.Check(path, role),
		Landing:  access.LandingPath(role),
	}, nil)
}

// Sync godoc
// @Summary Reload the access matrix from settings
// @Tags Access
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /access/sync [post]
func (h *AccessHandler) Sync(c *gin.Context) {
	err := h.syncer.Sync(c.Request.Context(), access.TriggerPush)
	switch {
	case err == nil, errors.Is(err, access.ErrStaleGeneration):
		response.JSON(c, http.StatusOK, h.store.Snapshot(), nil)
	case errors.Is(err, access.ErrNotFound):
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "access matrix config is not set"))
	default:
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, http.StatusServiceUnavailable, "access matrix sync failed"))
	}
}
