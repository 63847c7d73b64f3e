package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/dto"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/response"
)

type goalWindowService interface {
	List(ctx context.Context) ([]models.GoalWindow, error)
	Update(ctx context.Context, phase workflow.Phase, req dto.UpdateGoalWindowRequest, actor *models.JWTClaims) (*models.GoalWindow, error)
}

// GoalWindowHandler manages submission windows.
type GoalWindowHandler struct {
	service goalWindowService
}

// NewGoalWindowHandler constructs the handler.
func NewGoalWindowHandler(svc goalWindowService) *GoalWindowHandler {
	return &GoalWindowHandler{service: svc}
}

// List godoc
// @Summary List submission windows
// @Tags Goal Windows
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /goal-windows [get]
func (h *GoalWindowHandler) List(c *gin.Context) {
	windows, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

// Update godoc
// @Summary Update a submission window
// @Tags Goal Windows
// @Accept json
// @Produce json
// @Param phase path string true "SELF_REFLECTION, GOAL_SETTING or GOAL_COMPLETION"
// @Param payload body dto.UpdateGoalWindowRequest true "Window"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /goal-windows/{phase} [put]
func (h *GoalWindowHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateGoalWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid window payload"))
		return
	}
	phase := workflow.Phase(strings.ToUpper(strings.ReplaceAll(c.Param("phase"), "-", "_")))
	window, err := h.service.Update(c.Request.Context(), phase, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}
