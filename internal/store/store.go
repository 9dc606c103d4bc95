// Package store reads and writes the collections tables in PostgreSQL.
package store

import (
	"database/sql"
	"errors"

	"collections-dashboard/internal/filters"
)

var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

// Store implements fetcher.Sources and fetcher.NameResolver along with the
// list, summary and write paths used by the HTTP handlers.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// monthBounds is the inclusive demand-date window of an EMI month label.
type monthBounds struct {
	first string
	last  string
}

func (m monthBounds) empty() bool {
	return m.first == ""
}

// parseMonth accepts "" (every month) or a Mon-YY label.
func parseMonth(label string) (monthBounds, error) {
	if label == "" {
		return monthBounds{}, nil
	}
	first, last, err := filters.MonthRange(label)
	if err != nil {
		return monthBounds{}, err
	}
	return monthBounds{first: first.Format(dateLayout), last: last.Format(dateLayout)}, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullableInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
