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

type goalService interface {
	Create(ctx context.Context, req dto.CreateGoalRequest, actor *models.JWTClaims) (*models.Goal, error)
	List(ctx context.Context, query dto.GoalQuery, actor *models.JWTClaims) ([]models.Goal, *models.Pagination, error)
	Get(ctx context.Context, id, tab string, actor *models.JWTClaims) (*dto.GoalView, error)
	SaveReflectionDraft(ctx context.Context, id string, req dto.ReflectionRequest, actor *models.JWTClaims) (*models.Goal, error)
	SubmitReflection(ctx context.Context, id string, req dto.ReflectionRequest, actor *models.JWTClaims) (*models.Goal, error)
	SubmitGoalSetting(ctx context.Context, id string, req dto.GoalSettingRequest, actor *models.JWTClaims) (*models.Goal, error)
	SubmitCompletion(ctx context.Context, id string, req dto.GoalCompletionRequest, actor *models.JWTClaims) (*models.Goal, error)
	MasterEdit(ctx context.Context, id string, fields models.GoalMasterFields, actor *models.JWTClaims) (*models.Goal, error)
	History(ctx context.Context, id string, actor *models.JWTClaims) ([]dto.GoalHistoryEntry, error)
}

// GoalHandler exposes the goal workflow over HTTP.
type GoalHandler struct {
	service goalService
}

// NewGoalHandler constructs a goal handler.
func NewGoalHandler(svc goalService) *GoalHandler {
	return &GoalHandler{service: svc}
}

// List godoc
// @Summary List goals
// @Description Teachers only see their own goals
// @Tags Goals
// @Produce json
// @Param status query string false "Comma separated states"
// @Param campus query string false "Campus"
// @Param teacherId query string false "Teacher ID"
// @Param search query string false "Search in title"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.GoalQuery{
		Status:    parseStates(c.QueryArray("status")),
		Campus:    strings.TrimSpace(c.Query("campus")),
		TeacherID: strings.TrimSpace(c.Query("teacherId")),
		Search:    strings.TrimSpace(c.Query("search")),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 20),
	}

	goals, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goals, pagination)
}

// Get godoc
// @Summary Get goal
// @Description Returns the goal with the phase presented to the caller
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Param tab query string false "Secondary tab, e.g. self-reflection"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.service.Get(c.Request.Context(), c.Param("id"), c.Query("tab"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Create godoc
// @Summary Create goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param payload body dto.CreateGoalRequest true "Goal payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid goal payload"))
		return
	}
	goal, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, goal)
}

// SaveReflectionDraft godoc
// @Summary Save self-reflection draft
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.ReflectionRequest true "Reflection"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /goals/{id}/self-reflection/draft [post]
func (h *GoalHandler) SaveReflectionDraft(c *gin.Context) {
	var req dto.ReflectionRequest
	if !bindStep(c, &req) {
		return
	}
	h.respond(c)(h.service.SaveReflectionDraft(c.Request.Context(), c.Param("id"), req, claimsFromContext(c)))
}

// SubmitReflection godoc
// @Summary Submit self-reflection
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.ReflectionRequest true "Reflection"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /goals/{id}/self-reflection [post]
func (h *GoalHandler) SubmitReflection(c *gin.Context) {
	var req dto.ReflectionRequest
	if !bindStep(c, &req) {
		return
	}
	h.respond(c)(h.service.SubmitReflection(c.Request.Context(), c.Param("id"), req, claimsFromContext(c)))
}

// SubmitGoalSetting godoc
// @Summary Submit goal setting
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.GoalSettingRequest true "Goal setting"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /goals/{id}/goal-setting [post]
func (h *GoalHandler) SubmitGoalSetting(c *gin.Context) {
	var req dto.GoalSettingRequest
	if !bindStep(c, &req) {
		return
	}
	h.respond(c)(h.service.SubmitGoalSetting(c.Request.Context(), c.Param("id"), req, claimsFromContext(c)))
}

// SubmitCompletion godoc
// @Summary Submit goal completion
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.GoalCompletionRequest true "Completion"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /goals/{id}/goal-completion [post]
func (h *GoalHandler) SubmitCompletion(c *gin.Context) {
	var req dto.GoalCompletionRequest
	if !bindStep(c, &req) {
		return
	}
	h.respond(c)(h.service.SubmitCompletion(c.Request.Context(), c.Param("id"), req, claimsFromContext(c)))
}

// MasterEdit godoc
// @Summary Edit goal master fields
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body models.GoalMasterFields true "Fields"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /goals/{id} [patch]
func (h *GoalHandler) MasterEdit(c *gin.Context) {
	var fields models.GoalMasterFields
	if !bindStep(c, &fields) {
		return
	}
	h.respond(c)(h.service.MasterEdit(c.Request.Context(), c.Param("id"), fields, claimsFromContext(c)))
}

// History godoc
// @Summary Goal history
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} response.Envelope
// @Router /goals/{id}/history [get]
func (h *GoalHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.service.History(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func (h *GoalHandler) respond(c *gin.Context) func(*models.Goal, error) {
	return func(goal *models.Goal, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, goal, nil)
	}
}

func bindStep(c *gin.Context, target interface{}) bool {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return false
	}
	if err := c.ShouldBindJSON(target); err != nil {
		response.Error(c, invalidPayload(err, "invalid payload"))
		return false
	}
	return true
}

func parseStates(values []string) []workflow.State {
	var states []workflow.State
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				states = append(states, workflow.State(strings.ToUpper(part)))
			}
		}
	}
	return states
}
