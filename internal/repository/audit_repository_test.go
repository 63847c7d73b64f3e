package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepositoryListByResource(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "action", "resource", "resource_id", "old_values", "new_values", "ip_address", "user_agent", "created_at"}).
		AddRow("a1", "admin-1", "GOAL_MASTER_EDIT", "goal", "goal-1", []byte(`{"title":"Old"}`), []byte(`{"title":"New"}`), "10.0.0.1", "test", time.Now()).
		AddRow("a2", nil, "GOAL_CREATE", "goal", "goal-1", nil, nil, "", "", time.Now())
	mock.ExpectQuery("SELECT id, user_id, action, resource, resource_id, old_values, new_values .* FROM audit_logs WHERE resource = \\$1 AND resource_id = \\$2 ORDER BY created_at ASC LIMIT 100").
		WithArgs("goal", "goal-1").
		WillReturnRows(rows)

	logs, err := repo.ListByResource(context.Background(), "goal", "goal-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.JSONEq(t, `{"title":"Old"}`, string(logs[0].OldValues))
	assert.Nil(t, logs[1].UserID)
	assert.Empty(t, logs[1].NewValues)
	assert.NoError(t, mock.ExpectationsWereMet())
}
