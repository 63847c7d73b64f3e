package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/dto"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
)

type goalWindowStore interface {
	List(ctx context.Context) ([]models.GoalWindow, error)
	Upsert(ctx context.Context, window *models.GoalWindow) error
}

// GoalWindowService manages the submission windows of the workflow phases.
type GoalWindowService struct {
	repo      goalWindowStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGoalWindowService constructs the service.
func NewGoalWindowService(repo goalWindowStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *GoalWindowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoalWindowService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns one window per phase. Phases never configured are reported
// open without bounds.
func (s *GoalWindowService) List(ctx context.Context) ([]models.GoalWindow, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list goal windows")
	}
	byPhase := make(map[workflow.Phase]models.GoalWindow, len(rows))
	for _, row := range rows {
		byPhase[row.Phase] = row
	}
	result := make([]models.GoalWindow, 0, len(workflow.Phases))
	for _, phase := range workflow.Phases {
		if row, ok := byPhase[phase]; ok {
			result = append(result, row)
			continue
		}
		result = append(result, models.GoalWindow{Phase: phase, Status: workflow.WindowOpen})
	}
	return result, nil
}

// Windows returns the configured windows indexed for workflow checks.
func (s *GoalWindowService) Windows(ctx context.Context) (workflow.Windows, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal windows")
	}
	return models.WindowSet(rows), nil
}

// Update replaces the window of phase.
func (s *GoalWindowService) Update(ctx context.Context, phase workflow.Phase, req dto.UpdateGoalWindowRequest, actor *models.JWTClaims) (*models.GoalWindow, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !phase.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown phase %q", phase))
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal window payload")
	}
	if req.StartDate != nil && req.EndDate != nil && req.StartDate.After(*req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}

	window := &models.GoalWindow{
		Phase:     phase,
		Status:    req.Status,
		StartDate: utcPtr(req.StartDate),
		EndDate:   utcPtr(req.EndDate),
		UpdatedBy: userIDPtr(actor),
	}
	if err := s.repo.Upsert(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update goal window")
	}

	if s.audit != nil {
		phaseID := string(phase)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     userIDPtr(actor),
			Action:     models.AuditActionWindowUpdate,
			Resource:   models.AuditResourceWindow,
			ResourceID: &phaseID,
			NewValues:  models.MustJSON(window),
		}); err != nil {
			s.logger.Warn("failed to record goal window audit", zap.String("phase", phaseID), zap.Error(err))
		}
	}
	return window, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
