// internal/store/applications.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"collections-dashboard/internal/models"
)

var applicationColumns = []string{
	"id",
	"COALESCE(applicant_id, '')",
	"COALESCE(applicant_name, '')",
	"COALESCE(branch_name, '')",
	"COALESCE(team_lead, '')",
	"COALESCE(rm_name, '')",
	"COALESCE(collection_rm, '')",
	"COALESCE(dealer_name, '')",
	"COALESCE(lender_name, '')",
	demandDateColumn,
	"emi_amount",
	"principle_due",
	"interest_due",
	"amount_collected",
	"COALESCE(repayment, '')",
	"last_month_bounce",
	"COALESCE(vehicle_status, '')",
	"to_char(ptp_date, 'YYYY-MM-DD')",
	"to_char(paid_date, 'YYYY-MM-DD')",
	"created_at",
	"updated_at",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (models.Application, error) {
	var (
		app                                 models.Application
		demand, ptp, paid                   sql.NullString
		emi, principle, interest, collected decimal.NullDecimal
		bounce                              sql.NullInt64
	)
	err := row.Scan(
		&app.ID, &app.ApplicantID, &app.ApplicantName,
		&app.BranchName, &app.TeamLead, &app.RMName, &app.CollectionRM,
		&app.DealerName, &app.LenderName, &demand,
		&emi, &principle, &interest, &collected,
		&app.Repayment, &bounce, &app.VehicleStatus,
		&ptp, &paid, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return app, err
	}
	app.DemandDate = demand.String
	app.EMIAmount = zeroIfNull(emi)
	app.PrincipleDue = zeroIfNull(principle)
	app.InterestDue = zeroIfNull(interest)
	app.AmountCollected = zeroIfNull(collected)
	app.LastMonthBounce = nullableInt(bounce)
	app.PtpDate = nullableString(ptp)
	app.PaidDate = nullableString(paid)
	return app, nil
}

// ListApplications returns the applications due in the EMI month ("" lists
// every month), ordered by applicant name then id.
func (s *Store) ListApplications(ctx context.Context, month string) ([]models.Application, error) {
	bounds, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	query, args := selectFrom("applications", applicationColumns...).
		inMonth("demand_date", bounds).
		order("applicant_name, id").
		build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	out := []models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applications: %w", err)
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	query, args := selectFrom("applications", applicationColumns...).
		whereEq("id", id).
		build()

	app, err := scanApplication(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query application: %w", err)
	}
	return &app, nil
}

// ApplicationExists reports whether an application with the id exists.
func (s *Store) ApplicationExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query application exists: %w", err)
	}
	return exists, nil
}

// StatusCounts counts the month's applications by their latest field status.
// Applications without a status row count as Unpaid.
func (s *Store) StatusCounts(ctx context.Context, month string) (map[string]int, error) {
	bounds, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	if bounds.empty() {
		return nil, fmt.Errorf("status counts need an emi month")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(latest.status, 'Unpaid') AS status, COUNT(*)
		FROM applications a
		LEFT JOIN LATERAL (
			SELECT fs.status
			FROM field_status fs
			WHERE fs.application_id = a.id
			  AND fs.demand_date BETWEEN $1 AND $2
			ORDER BY fs.created_at DESC
			LIMIT 1
		) latest ON true
		WHERE a.demand_date BETWEEN $1 AND $2
		GROUP BY 1`, bounds.first, bounds.last)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status counts: %w", err)
		}
		counts[status] += n
	}
	return counts, rows.Err()
}
