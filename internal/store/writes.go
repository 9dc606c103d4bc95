// internal/store/writes.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"collections-dashboard/internal/models"
)

// LatestFieldStatus returns the newest field_status row for the application
// and demand date, or nil when there is none.
func (s *Store) LatestFieldStatus(ctx context.Context, applicationID, demandDate string) (*models.FieldStatusRecord, error) {
	var rec models.FieldStatusRecord
	var demand sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, status, amount_collected, to_char(demand_date, 'YYYY-MM-DD'), created_at
		FROM field_status
		WHERE application_id = $1 AND demand_date = $2
		ORDER BY created_at DESC
		LIMIT 1`, applicationID, demandDate).Scan(
		&rec.ApplicationID, &rec.Status, &rec.AmountCollected, &demand, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest field_status: %w", err)
	}
	rec.DemandDate = demand.String
	return &rec, nil
}

// LatestPtpDate returns the newest ptp_dates row, or nil when there is none.
func (s *Store) LatestPtpDate(ctx context.Context, applicationID, demandDate string) (*models.PtpRecord, error) {
	var rec models.PtpRecord
	var ptp, demand sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, to_char(ptp_date, 'YYYY-MM-DD'), to_char(demand_date, 'YYYY-MM-DD'), created_at
		FROM ptp_dates
		WHERE application_id = $1 AND demand_date = $2
		ORDER BY created_at DESC
		LIMIT 1`, applicationID, demandDate).Scan(
		&rec.ApplicationID, &ptp, &demand, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest ptp_dates: %w", err)
	}
	rec.PtpDate = nullableString(ptp)
	rec.DemandDate = demand.String
	return &rec, nil
}

func (s *Store) InsertFieldStatus(ctx context.Context, applicationID string, status models.FieldStatus,
	amount decimal.NullDecimal, demandDate, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO field_status (application_id, status, amount_collected, demand_date, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		applicationID, string(status), amount, demandDate, userID,
	)
	if err != nil {
		return fmt.Errorf("insert field_status: %w", err)
	}
	return nil
}

// InsertPtpDate records a promise; a nil date records it as cleared.
func (s *Store) InsertPtpDate(ctx context.Context, applicationID string, ptpDate *string, demandDate, userID string) error {
	var value interface{}
	if ptpDate != nil {
		value = *ptpDate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ptp_dates (application_id, ptp_date, demand_date, user_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		applicationID, value, demandDate, userID,
	)
	if err != nil {
		return fmt.Errorf("insert ptp_dates: %w", err)
	}
	return nil
}

func (s *Store) InsertContactStatus(ctx context.Context, rec models.ContactStatusRecord, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_calling_status (application_id, contact_type, status, demand_date, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		rec.ApplicationID, string(rec.ContactType), rec.Status, rec.DemandDate, userID,
	)
	if err != nil {
		return fmt.Errorf("insert contact_calling_status: %w", err)
	}
	return nil
}

func (s *Store) InsertComment(ctx context.Context, c models.Comment) error {
	var demand interface{}
	if c.DemandDate != "" {
		demand = c.DemandDate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, application_id, content, user_id, demand_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ApplicationID, c.Content, c.UserID, demand, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comments: %w", err)
	}
	return nil
}

func (s *Store) InsertAudit(ctx context.Context, e models.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, application_id, field, previous_value, new_value, user_id, demand_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.ApplicationID, e.Field, e.PreviousValue, e.NewValue, e.UserID, e.DemandDate, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit_logs: %w", err)
	}
	return nil
}
