package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
)

// GoalWindowRepository persists submission windows.
type GoalWindowRepository struct {
	db *sqlx.DB
}

// NewGoalWindowRepository constructs the repository.
func NewGoalWindowRepository(db *sqlx.DB) *GoalWindowRepository {
	return &GoalWindowRepository{db: db}
}

// List returns every configured window.
func (r *GoalWindowRepository) List(ctx context.Context) ([]models.GoalWindow, error) {
	const query = `SELECT phase, status, start_date, end_date, updated_by, updated_at FROM goal_windows ORDER BY phase ASC`
	var windows []models.GoalWindow
	if err := r.db.SelectContext(ctx, &windows, query); err != nil {
		return nil, fmt.Errorf("list goal windows: %w", err)
	}
	return windows, nil
}

// Get returns the window of phase. A missing window yields sql.ErrNoRows.
func (r *GoalWindowRepository) Get(ctx context.Context, phase workflow.Phase) (*models.GoalWindow, error) {
	const query = `SELECT phase, status, start_date, end_date, updated_by, updated_at FROM goal_windows WHERE phase = $1`
	var window models.GoalWindow
	if err := r.db.GetContext(ctx, &window, query, phase); err != nil {
		return nil, err
	}
	return &window, nil
}

// Upsert inserts or replaces the window of a phase.
func (r *GoalWindowRepository) Upsert(ctx context.Context, window *models.GoalWindow) error {
	const query = `INSERT INTO goal_windows (phase, status, start_date, end_date, updated_by, updated_at)
VALUES (:phase, :status, :start_date, :end_date, :updated_by, :updated_at)
ON CONFLICT (phase)
DO UPDATE SET status = EXCLUDED.status, start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	window.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("upsert goal window: %w", err)
	}
	return nil
}
