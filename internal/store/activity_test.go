package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collections-dashboard/internal/models"
)

func activityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "application_id", "activity_type", "from_value", "to_value", "user_id", "demand_date", "created_at",
	})
}

func TestStore_RecentActivity(t *testing.T) {
	s, mock := newMockStore(t)
	since := created.AddDate(0, 0, -30)

	mock.ExpectQuery(`FROM audit_logs\s+UNION ALL.+FROM contact_calling_status.+WHERE created_at >= \$1 AND application_id = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs(since, "app-1", 50).
		WillReturnRows(activityRows().
			AddRow(nil, "app-1", models.ActivityCallingStatus, nil, "applicant: Promised to Pay", "u2", "2025-07-05", created.Add(time.Hour)).
			AddRow("a1", "app-1", models.ActivityStatus, "Unpaid", "Paid (Pending Approval)", "u1", "2025-07-05", created))

	got, err := s.RecentActivity(context.Background(), "app-1", 50, since)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Empty(t, got[0].ID)
	assert.Equal(t, models.ActivityCallingStatus, got[0].Type)
	assert.Nil(t, got[0].FromValue)
	assert.Equal(t, "applicant: Promised to Pay", *got[0].ToValue)

	assert.Equal(t, "a1", got[1].ID)
	assert.Equal(t, "Unpaid", *got[1].FromValue)
	assert.Equal(t, "u1", got[1].UserID)
	assert.Equal(t, created, got[1].Timestamp)
}

func TestStore_RecentActivity_AllApplicationsUnlimited(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`WHERE created_at >= \$1 ORDER BY created_at DESC$`).
		WithArgs(created).
		WillReturnRows(activityRows())

	got, err := s.RecentActivity(context.Background(), "", 0, created)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_RecentActivity_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`FROM audit_logs`).WillReturnError(errors.New("connection reset"))

	_, err := s.RecentActivity(context.Background(), "", 10, created)
	assert.ErrorContains(t, err, "query recent activity")
}
