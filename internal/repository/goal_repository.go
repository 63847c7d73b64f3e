package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
)

const goalColumns = `id, teacher_id, teacher_email, teacher_name, department, campus, title, description, action_step,
       pillar, academic_type, due_date, status, reflection_data, setting_data, completion_data, created_by, created_at, updated_at`

// GoalRepository persists goals and their workflow state.
type GoalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository constructs the repository.
func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create inserts a new goal at the initial workflow state.
func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.Status == "" {
		goal.Status = workflow.InitialState
	}
	now := time.Now().UTC()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now
	const query = `INSERT INTO goals
	(id, teacher_id, teacher_email, teacher_name, department, campus, title, description, action_step, pillar, academic_type, due_date, status, reflection_data, setting_data, completion_data, created_by, created_at, updated_at)
	VALUES (:id, :teacher_id, :teacher_email, :teacher_name, :department, :campus, :title, :description, :action_step, :pillar, :academic_type, :due_date, :status, :reflection_data, :setting_data, :completion_data, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// GetByID fetches a goal. A missing goal yields sql.ErrNoRows.
func (r *GoalRepository) GetByID(ctx context.Context, id string) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`
	var goal models.Goal
	if err := r.db.GetContext(ctx, &goal, query, id); err != nil {
		return nil, err
	}
	return &goal, nil
}

// List returns goals matching the filter, newest first, with the total count.
func (r *GoalRepository) List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, int, error) {
	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 4)

	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		marks := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			marks[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(marks, ",")))
	}
	if filter.Campus != "" {
		args = append(args, filter.Campus)
		conditions = append(conditions, fmt.Sprintf("campus = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(teacher_name) LIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s FROM goals%s ORDER BY updated_at DESC LIMIT %d OFFSET %d", goalColumns, where, pageSize, offset)
	var goals []models.Goal
	if err := r.db.SelectContext(ctx, &goals, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list goals: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM goals"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count goals: %w", err)
	}
	return goals, total, nil
}

// UpdateState moves a goal from ExpectedStatus to NextStatus and stores the
// phase payloads that are set. It returns sql.ErrNoRows when the goal is
// missing or no longer in ExpectedStatus.
func (r *GoalRepository) UpdateState(ctx context.Context, change models.GoalStateChange) error {
	setParts := []string{"status = :next_status", "updated_at = :updated_at"}
	if len(change.ReflectionData) > 0 {
		setParts = append(setParts, "reflection_data = :reflection_data")
	}
	if len(change.SettingData) > 0 {
		setParts = append(setParts, "setting_data = :setting_data")
	}
	if len(change.CompletionData) > 0 {
		setParts = append(setParts, "completion_data = :completion_data")
	}
	if change.UpdatedAt.IsZero() {
		change.UpdatedAt = time.Now().UTC()
	}
	query := fmt.Sprintf("UPDATE goals SET %s WHERE id = :id AND status = :expected_status", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              change.ID,
		"expected_status": change.ExpectedStatus,
		"next_status":     change.NextStatus,
		"updated_at":      change.UpdatedAt,
		"reflection_data": change.ReflectionData,
		"setting_data":    change.SettingData,
		"completion_data": change.CompletionData,
	})
	if err != nil {
		return fmt.Errorf("update goal state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check goal update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateMasterFields rewrites the descriptive fields that are set without
// touching the workflow state.
func (r *GoalRepository) UpdateMasterFields(ctx context.Context, id string, fields models.GoalMasterFields, updatedAt time.Time) error {
	params := map[string]interface{}{"id": id, "updated_at": updatedAt}
	setParts := []string{"updated_at = :updated_at"}
	add := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = :%s", column, column))
		params[column] = value
	}
	if fields.Title != nil {
		add("title", *fields.Title)
	}
	if fields.Description != nil {
		add("description", *fields.Description)
	}
	if fields.ActionStep != nil {
		add("action_step", *fields.ActionStep)
	}
	if fields.Pillar != nil {
		add("pillar", *fields.Pillar)
	}
	if fields.Campus != nil {
		add("campus", *fields.Campus)
	}
	if fields.DueDate != nil {
		add("due_date", *fields.DueDate)
	}

	query := fmt.Sprintf("UPDATE goals SET %s WHERE id = :id", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return fmt.Errorf("update goal fields: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check goal update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
