// internal/store/lookups.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"collections-dashboard/internal/models"
)

const demandDateColumn = "to_char(demand_date, 'YYYY-MM-DD')"

// FieldStatusRecords returns every field_status row for ids in the month.
func (s *Store) FieldStatusRecords(ctx context.Context, ids []string, month string) ([]models.FieldStatusRecord, error) {
	bounds, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	query, args := selectFrom("field_status",
		"application_id", "status", "amount_collected", demandDateColumn, "created_at").
		whereAny("application_id", ids).
		inMonth("demand_date", bounds).
		build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query field_status: %w", err)
	}
	defer rows.Close()

	var out []models.FieldStatusRecord
	for rows.Next() {
		var rec models.FieldStatusRecord
		var demand sql.NullString
		if err := rows.Scan(&rec.ApplicationID, &rec.Status, &rec.AmountCollected, &demand, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan field_status: %w", err)
		}
		rec.DemandDate = demand.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PtpRecords returns every ptp_dates row for ids in the month. A NULL
// ptp_date is a cleared promise.
func (s *Store) PtpRecords(ctx context.Context, ids []string, month string) ([]models.PtpRecord, error) {
	bounds, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	query, args := selectFrom("ptp_dates",
		"application_id", "to_char(ptp_date, 'YYYY-MM-DD')", demandDateColumn, "created_at").
		whereAny("application_id", ids).
		inMonth("demand_date", bounds).
		build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ptp_dates: %w", err)
	}
	defer rows.Close()

	var out []models.PtpRecord
	for rows.Next() {
		var rec models.PtpRecord
		var ptp, demand sql.NullString
		if err := rows.Scan(&rec.ApplicationID, &ptp, &demand, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ptp_dates: %w", err)
		}
		rec.PtpDate = nullableString(ptp)
		rec.DemandDate = demand.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) ContactStatusRecords(ctx context.Context, ids []string, month string) ([]models.ContactStatusRecord, error) {
	bounds, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	query, args := selectFrom("contact_calling_status",
		"application_id", "contact_type", "status", demandDateColumn, "created_at").
		whereAny("application_id", ids).
		inMonth("demand_date", bounds).
		build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contact_calling_status: %w", err)
	}
	defer rows.Close()

	var out []models.ContactStatusRecord
	for rows.Next() {
		var rec models.ContactStatusRecord
		var demand sql.NullString
		if err := rows.Scan(&rec.ApplicationID, &rec.ContactType, &rec.Status, &demand, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact_calling_status: %w", err)
		}
		rec.DemandDate = demand.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Comments returns the newest comments for ids, at most limit rows overall
// (limit <= 0 means no limit). user_name is left for the name resolver.
func (s *Store) Comments(ctx context.Context, ids []string, limit int) ([]models.Comment, error) {
	q := selectFrom("comments",
		"id", "application_id", "content", "user_id", demandDateColumn, "created_at").
		whereAny("application_id", ids).
		order("created_at DESC")
	if limit > 0 {
		q.limitTo(limit)
	}
	query, args := q.build()
	return s.queryComments(ctx, query, args)
}

// CommentsForApplication lists every comment on one application, newest first,
// optionally restricted to an EMI month.
func (s *Store) CommentsForApplication(ctx context.Context, applicationID, month string) ([]models.Comment, error) {
	bounds, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	query, args := selectFrom("comments",
		"id", "application_id", "content", "user_id", demandDateColumn, "created_at").
		whereEq("application_id", applicationID).
		inMonth("demand_date", bounds).
		order("created_at DESC").
		build()
	return s.queryComments(ctx, query, args)
}

func (s *Store) queryComments(ctx context.Context, query string, args []interface{}) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var userID, demand sql.NullString
		if err := rows.Scan(&c.ID, &c.ApplicationID, &c.Content, &userID, &demand, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comments: %w", err)
		}
		c.UserID = userID.String
		c.DemandDate = demand.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// Profiles resolves user ids to profiles; unknown ids are absent from the map.
func (s *Store) Profiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(full_name, ''), COALESCE(email, '') FROM profiles WHERE id = ANY($1)`,
		pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email); err != nil {
			return nil, fmt.Errorf("scan profiles: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// ResolveNames fills UserName on comments in place.
func (s *Store) ResolveNames(ctx context.Context, comments []models.Comment) error {
	seen := map[string]struct{}{}
	var ids []string
	for _, c := range comments {
		if c.UserID == "" {
			continue
		}
		if _, ok := seen[c.UserID]; !ok {
			seen[c.UserID] = struct{}{}
			ids = append(ids, c.UserID)
		}
	}
	profiles, err := s.Profiles(ctx, ids)
	if err != nil {
		return err
	}
	for i := range comments {
		comments[i].UserName = profiles[comments[i].UserID].DisplayName()
	}
	return nil
}

func zeroIfNull(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
