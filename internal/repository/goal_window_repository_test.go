package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
)

func TestGoalWindowRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalWindowRepository(db)

	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"phase", "status", "start_date", "end_date", "updated_by", "updated_at"}).
		AddRow("GOAL_SETTING", "CLOSED", nil, nil, "admin-1", time.Now()).
		AddRow("SELF_REFLECTION", "OPEN", nil, end, nil, time.Now())
	mock.ExpectQuery("SELECT phase, status, start_date, end_date, updated_by, updated_at FROM goal_windows").WillReturnRows(rows)

	windows, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, workflow.WindowClosed, windows[0].Status)
	require.NotNil(t, windows[1].EndDate)
	assert.True(t, end.Equal(*windows[1].EndDate))

	set := models.WindowSet(windows)
	assert.False(t, set.Open(workflow.PhaseGoalSetting, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalWindowRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalWindowRepository(db)

	mock.ExpectExec("INSERT INTO goal_windows").
		WithArgs("GOAL_COMPLETION", "OPEN", nil, nil, "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	window := &models.GoalWindow{Phase: workflow.PhaseGoalCompletion, Status: workflow.WindowOpen, UpdatedBy: strPtr("admin-1")}
	require.NoError(t, repo.Upsert(context.Background(), window))
	assert.NoError(t, mock.ExpectationsWereMet())
}
