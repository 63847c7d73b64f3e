package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/dto"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
)

type goalStore interface {
	Create(ctx context.Context, goal *models.Goal) error
	GetByID(ctx context.Context, id string) (*models.Goal, error)
	List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, int, error)
	UpdateState(ctx context.Context, change models.GoalStateChange) error
	UpdateMasterFields(ctx context.Context, id string, fields models.GoalMasterFields, updatedAt time.Time) error
}

type goalWindowReader interface {
	Windows(ctx context.Context) (workflow.Windows, error)
}

type goalTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type goalHistoryReader interface {
	ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// GoalServiceOption configures the service.
type GoalServiceOption func(*GoalService)

// WithGoalMetrics records transition outcomes.
func WithGoalMetrics(metrics *MetricsService) GoalServiceOption {
	return func(s *GoalService) {
		s.metrics = metrics
	}
}

// WithGoalHistory enables the history endpoint.
func WithGoalHistory(history goalHistoryReader) GoalServiceOption {
	return func(s *GoalService) {
		s.history = history
	}
}

// WithGoalClock overrides the clock used for window checks.
func WithGoalClock(now func() time.Time) GoalServiceOption {
	return func(s *GoalService) {
		if now != nil {
			s.now = now
		}
	}
}

// GoalService runs the goal lifecycle. Every write is gated by the workflow
// rules and then persisted conditionally on the state it was gated against,
// so a concurrent change surfaces as a phase mismatch.
type GoalService struct {
	repo      goalStore
	windows   goalWindowReader
	teachers  goalTeacherReader
	audit     auditLogger
	history   goalHistoryReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGoalService constructs the service with defaults.
func NewGoalService(repo goalStore, windows goalWindowReader, teachers goalTeacherReader, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...GoalServiceOption) *GoalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GoalService{
		repo:      repo,
		windows:   windows,
		teachers:  teachers,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a goal for a teacher at the initial state.
func (s *GoalService) Create(ctx context.Context, req dto.CreateGoalRequest, actor *models.JWTClaims) (*models.Goal, error) {
	role, err := actorRole(actor)
	if err != nil {
		return nil, err
	}
	switch role {
	case access.RoleLeader, access.RoleAdmin, access.RoleSuperAdmin:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only leaders and admins can create goals")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	campus := strings.TrimSpace(req.Campus)
	if campus == "" {
		campus = teacher.Campus
	}
	goal := &models.Goal{
		TeacherID:    teacher.ID,
		TeacherEmail: teacher.Email,
		TeacherName:  teacher.FullName,
		Department:   teacher.Department,
		Campus:       campus,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		ActionStep:   req.ActionStep,
		Pillar:       req.Pillar,
		AcademicType: teacher.AcademicType,
		DueDate:      req.DueDate,
		Status:       workflow.InitialState,
		CreatedBy:    actor.UserID,
	}
	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create goal")
	}
	s.emitAudit(ctx, actor, models.AuditActionGoalCreate, goal.ID, nil, models.MustJSON(goal))
	return goal, nil
}

// List returns goals visible to actor. Teachers only see their own.
func (s *GoalService) List(ctx context.Context, query dto.GoalQuery, actor *models.JWTClaims) ([]models.Goal, *models.Pagination, error) {
	role, err := actorRole(actor)
	if err != nil {
		return nil, nil, err
	}
	filter := models.GoalFilter{
		TeacherID: query.TeacherID,
		Status:    query.Status,
		Campus:    strings.TrimSpace(query.Campus),
		Search:    strings.TrimSpace(query.Search),
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	for _, status := range filter.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown goal status "+string(status))
		}
	}
	if role == access.RoleTeacher {
		filter.TeacherID = actor.UserID
	}

	goals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list goals")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return goals, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a goal with the form the caller should be presented.
func (s *GoalService) Get(ctx context.Context, id, tab string, actor *models.JWTClaims) (*dto.GoalView, error) {
	role, err := actorRole(actor)
	if err != nil {
		return nil, err
	}
	goal, err := s.load(ctx, id, role, actor)
	if err != nil {
		return nil, err
	}

	rubric := workflow.ClassifyRubric(goal.RubricSignals())
	view := &dto.GoalView{
		Goal:       goal,
		Phase:      workflow.PhaseFor(role, goal.Status, tab),
		Rubric:     rubric,
		Indicators: workflow.RubricIndicators(rubric),
		WindowOpen: true,
	}
	if phase, gated := viewPhase(view.Phase); gated && !workflow.Bypasses(role) {
		windows, err := s.windows.Windows(ctx)
		if err != nil {
			return nil, err
		}
		view.WindowOpen = windows.Open(phase, s.now())
	}
	return view, nil
}

// SaveReflectionDraft stores a partial self-reflection.
func (s *GoalService) SaveReflectionDraft(ctx context.Context, id string, req dto.ReflectionRequest, actor *models.JWTClaims) (*models.Goal, error) {
	return s.advance(ctx, id, actor, goalStep{
		action:      workflow.ActionSaveReflectionDraft,
		auditAction: models.AuditActionReflectionDraft,
		apply: func(goal *models.Goal, change *models.GoalStateChange) error {
			data, err := workflow.DecodeReflection(req.ReflectionData, workflow.ClassifyRubric(goal.RubricSignals()), true)
			if err != nil {
				return err
			}
			change.ReflectionData = models.MustJSON(data)
			return nil
		},
	})
}

// SubmitReflection submits the teacher's self-reflection.
func (s *GoalService) SubmitReflection(ctx context.Context, id string, req dto.ReflectionRequest, actor *models.JWTClaims) (*models.Goal, error) {
	return s.advance(ctx, id, actor, goalStep{
		action:      workflow.ActionSubmitReflection,
		auditAction: models.AuditActionReflectionSubmit,
		apply: func(goal *models.Goal, change *models.GoalStateChange) error {
			data, err := workflow.DecodeReflection(req.ReflectionData, workflow.ClassifyRubric(goal.RubricSignals()), false)
			if err != nil {
				return err
			}
			change.ReflectionData = models.MustJSON(data)
			return nil
		},
	})
}

// SubmitGoalSetting records the leader's goal-setting form.
func (s *GoalService) SubmitGoalSetting(ctx context.Context, id string, req dto.GoalSettingRequest, actor *models.JWTClaims) (*models.Goal, error) {
	return s.advance(ctx, id, actor, goalStep{
		action:      workflow.ActionSubmitGoalSetting,
		auditAction: models.AuditActionGoalSettingSubmit,
		apply: func(_ *models.Goal, change *models.GoalStateChange) error {
			data, err := workflow.DecodeGoalSetting(req.SettingData)
			if err != nil {
				return err
			}
			change.SettingData = models.MustJSON(data)
			return nil
		},
	})
}

// SubmitCompletion records the leader's evaluation and closes the goal.
func (s *GoalService) SubmitCompletion(ctx context.Context, id string, req dto.GoalCompletionRequest, actor *models.JWTClaims) (*models.Goal, error) {
	return s.advance(ctx, id, actor, goalStep{
		action:      workflow.ActionSubmitCompletion,
		auditAction: models.AuditActionGoalCompletion,
		finalStatus: req.Status,
		apply: func(_ *models.Goal, change *models.GoalStateChange) error {
			data, err := workflow.DecodeCompletion(req.CompletionData)
			if err != nil {
				return err
			}
			change.CompletionData = models.MustJSON(data)
			return nil
		},
	})
}

// MasterEdit rewrites descriptive fields in any state and audits the
// previous values.
func (s *GoalService) MasterEdit(ctx context.Context, id string, fields models.GoalMasterFields, actor *models.JWTClaims) (*models.Goal, error) {
	role, err := actorRole(actor)
	if err != nil {
		return nil, err
	}
	goal, err := s.load(ctx, id, role, actor)
	if err != nil {
		return nil, err
	}
	if _, err := workflow.Transition(workflow.Request{State: goal.Status, Action: workflow.ActionMasterEdit, Actor: role, Now: s.now()}); err != nil {
		s.metrics.RecordGoalTransition(string(workflow.ActionMasterEdit), appErrors.FromError(err).Code)
		return nil, err
	}
	if fields.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one field is required")
	}
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
		}
		fields.Title = &title
	}

	previous := masterSnapshot(goal, fields)
	next := masterEditValues{GoalMasterFields: fields}
	rubricBefore := workflow.ClassifyRubric(goal.RubricSignals())
	updatedAt := s.now()
	if err := s.repo.UpdateMasterFields(ctx, id, fields, updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update goal")
	}
	applyMasterFields(goal, fields)
	goal.UpdatedAt = updatedAt
	if rubricAfter := workflow.ClassifyRubric(goal.RubricSignals()); rubricAfter != rubricBefore {
		previous["rubric"] = rubricBefore
		next.Rubric = rubricAfter
	}

	s.emitAudit(ctx, actor, models.AuditActionGoalMasterEdit, id, models.MustJSON(previous), models.MustJSON(next))
	s.metrics.RecordGoalTransition(string(workflow.ActionMasterEdit), "ok")
	return goal, nil
}

// History returns the audit trail of a goal, oldest first.
func (s *GoalService) History(ctx context.Context, id string, actor *models.JWTClaims) ([]dto.GoalHistoryEntry, error) {
	role, err := actorRole(actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id, role, actor); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []dto.GoalHistoryEntry{}, nil
	}
	logs, err := s.history.ListByResource(ctx, models.AuditResourceGoal, id, 200)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal history")
	}
	entries := make([]dto.GoalHistoryEntry, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, dto.GoalHistoryEntry{
			Action:    log.Action,
			UserID:    log.UserID,
			OldValues: log.OldValues,
			NewValues: log.NewValues,
			CreatedAt: log.CreatedAt,
		})
	}
	return entries, nil
}

type goalStep struct {
	action      workflow.Action
	auditAction string
	finalStatus workflow.State
	apply       func(goal *models.Goal, change *models.GoalStateChange) error
}

func (s *GoalService) advance(ctx context.Context, id string, actor *models.JWTClaims, step goalStep) (goal *models.Goal, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = appErrors.FromError(err).Code
		}
		s.metrics.RecordGoalTransition(string(step.action), result)
	}()

	role, err := actorRole(actor)
	if err != nil {
		return nil, err
	}
	goal, err = s.load(ctx, id, role, actor)
	if err != nil {
		return nil, err
	}
	windows, err := s.windows.Windows(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next, err := workflow.Transition(workflow.Request{
		State:       goal.Status,
		Action:      step.action,
		Actor:       role,
		FinalStatus: step.finalStatus,
		Windows:     windows,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	change := models.GoalStateChange{ID: goal.ID, ExpectedStatus: goal.Status, NextStatus: next, UpdatedAt: now}
	if err := step.apply(goal, &change); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateState(ctx, change); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPhaseMismatch, "goal was changed by someone else, reload and try again")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update goal")
	}

	previous := goal.Status
	goal.Status = next
	goal.UpdatedAt = now
	if len(change.ReflectionData) > 0 {
		goal.ReflectionData = change.ReflectionData
	}
	if len(change.SettingData) > 0 {
		goal.SettingData = change.SettingData
	}
	if len(change.CompletionData) > 0 {
		goal.CompletionData = change.CompletionData
	}

	s.emitAudit(ctx, actor, step.auditAction, goal.ID,
		models.MustJSON(map[string]interface{}{"status": previous}),
		models.MustJSON(map[string]interface{}{"status": next, "data": json.RawMessage(firstNonEmpty(change.ReflectionData, change.SettingData, change.CompletionData))}))
	return goal, nil
}

func (s *GoalService) load(ctx context.Context, id string, role access.Role, actor *models.JWTClaims) (*models.Goal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal")
	}
	if role == access.RoleTeacher && goal.TeacherID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "goal belongs to another teacher")
	}
	return goal, nil
}

func (s *GoalService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, goalID string, oldValues, newValues models.JSONDocument) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     action,
		Resource:   models.AuditResourceGoal,
		ResourceID: strPtr(goalID),
		OldValues:  oldValues,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record goal audit", zap.String("goal_id", goalID), zap.String("action", action), zap.Error(err))
	}
}

func actorRole(actor *models.JWTClaims) (access.Role, error) {
	if actor == nil {
		return "", appErrors.ErrUnauthorized
	}
	role := access.NormalizeRole(string(actor.Role))
	if !role.Valid() {
		return "", appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	return role, nil
}

func viewPhase(view workflow.View) (workflow.Phase, bool) {
	switch view {
	case workflow.ViewSelfReflection:
		return workflow.PhaseSelfReflection, true
	case workflow.ViewGoalSetting:
		return workflow.PhaseGoalSetting, true
	case workflow.ViewGoalCompletion:
		return workflow.PhaseGoalCompletion, true
	default:
		return "", false
	}
}

// masterEditValues is the audit payload of a master edit. Rubric is set when
// the edit moved the goal to a different reflection rubric.
type masterEditValues struct {
	models.GoalMasterFields
	Rubric workflow.Rubric `json:"rubric,omitempty"`
}

func masterSnapshot(goal *models.Goal, fields models.GoalMasterFields) map[string]interface{} {
	prev := make(map[string]interface{})
	if fields.Title != nil {
		prev["title"] = goal.Title
	}
	if fields.Description != nil {
		prev["description"] = goal.Description
	}
	if fields.ActionStep != nil {
		prev["actionStep"] = goal.ActionStep
	}
	if fields.Pillar != nil {
		prev["pillar"] = goal.Pillar
	}
	if fields.Campus != nil {
		prev["campus"] = goal.Campus
	}
	if fields.DueDate != nil {
		prev["dueDate"] = goal.DueDate
	}
	return prev
}

func applyMasterFields(goal *models.Goal, fields models.GoalMasterFields) {
	if fields.Title != nil {
		goal.Title = *fields.Title
	}
	if fields.Description != nil {
		goal.Description = *fields.Description
	}
	if fields.ActionStep != nil {
		goal.ActionStep = *fields.ActionStep
	}
	if fields.Pillar != nil {
		goal.Pillar = *fields.Pillar
	}
	if fields.Campus != nil {
		goal.Campus = *fields.Campus
	}
	if fields.DueDate != nil {
		due := *fields.DueDate
		goal.DueDate = &due
	}
}

func firstNonEmpty(docs ...models.JSONDocument) models.JSONDocument {
	for _, doc := range docs {
		if len(doc) > 0 {
			return doc
		}
	}
	return models.JSONDocument("null")
}
