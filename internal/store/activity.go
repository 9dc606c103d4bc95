// internal/store/activity.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"collections-dashboard/internal/models"
)

const activityQuery = `
	SELECT id, application_id, activity_type, from_value, to_value, user_id, demand_date, created_at
	FROM (
		SELECT id::text AS id, application_id, field AS activity_type,
			previous_value AS from_value, new_value AS to_value, user_id,
			to_char(demand_date, 'YYYY-MM-DD') AS demand_date, created_at
		FROM audit_logs
		UNION ALL
		SELECT NULL, application_id, '` + models.ActivityCallingStatus + `',
			NULL, contact_type || ': ' || status, user_id,
			to_char(demand_date, 'YYYY-MM-DD'), created_at
		FROM contact_calling_status
	) activity
	WHERE created_at >= $1`

// RecentActivity returns audited changes and logged calls made since the
// given time, newest first. An empty applicationID spans every application;
// limit <= 0 returns everything.
func (s *Store) RecentActivity(ctx context.Context, applicationID string, limit int, since time.Time) ([]models.Activity, error) {
	query := activityQuery
	args := []interface{}{since}
	if applicationID != "" {
		args = append(args, applicationID)
		query += fmt.Sprintf(" AND application_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent activity: %w", err)
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var (
			a                      models.Activity
			id, from, to, user, dd sql.NullString
		)
		if err := rows.Scan(&id, &a.ApplicationID, &a.Type, &from, &to, &user, &dd, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan recent activity: %w", err)
		}
		a.ID = id.String
		a.FromValue = nullableString(from)
		a.ToValue = nullableString(to)
		a.UserID = user.String
		a.DemandDate = dd.String
		out = append(out, a)
	}
	return out, rows.Err()
}
