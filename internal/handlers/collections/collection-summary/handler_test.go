// internal/handlers/collections/collection-summary/handler_test.go
package collectionsummary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(LoadConfig(), store.New(db), observability.NewNoop(), logger.NewTestLogger(t))
	return h, mock
}

func expectCounts(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT COALESCE\(latest.status, 'Unpaid'\) AS status, COUNT\(\*\)`).
		WithArgs("2025-07-01", "2025-07-31").
		WillReturnRows(rows)
}

type fakeCounter struct {
	counts map[string]int
	err    error
}

func (f *fakeCounter) StatusCounts(_ context.Context, _ string) (map[string]int, error) {
	return f.counts, f.err
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	h, mock := createTestHandler(t)
	expectCounts(mock, sqlmock.NewRows([]string{"status", "count"}).
		AddRow("Paid", 12).
		AddRow("Unpaid", 30).
		AddRow("Partially Paid", 4).
		AddRow("Cash Collected from Customer", 3).
		AddRow("Customer Deposited to Bank", 1).
		AddRow("Paid (Pending Approval)", 2))

	out, err := h.Execute(context.Background(), &Input{EmiMonth: "jul-25"})
	require.NoError(t, err)

	assert.Equal(t, 52, out.Total)
	assert.Equal(t, 12, out.Paid)
	assert.Equal(t, 30, out.Unpaid)
	assert.Equal(t, 4, out.PartiallyPaid)
	assert.Equal(t, 3, out.CashCollected)
	assert.Equal(t, 1, out.CustomerDeposited)
	assert.Equal(t, 2, out.PaidPendingApproval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_UnknownStatusOnlyInTotal(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeCounter{counts: map[string]int{"Paid": 1, "Written Off": 5}},
		observability.NewNoop(), logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{EmiMonth: "Jul-25"})
	require.NoError(t, err)
	assert.Equal(t, 6, out.Total)
	assert.Equal(t, 1, out.Paid)
	assert.Zero(t, out.Unpaid)
}

func TestHandler_Execute_Errors(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeCounter{err: errors.New("connection reset")},
		observability.NewNoop(), logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.Execute(context.Background(), &Input{EmiMonth: "2025-07"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.Execute(context.Background(), &Input{EmiMonth: "Jul-25"})
	assert.ErrorIs(t, err, ErrQueryExecutionFailed)
}

// ==========================
// HTTP Tests
// ==========================

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{name: "missing month", query: "", wantStatus: http.StatusBadRequest, wantCode: apperrors.ErrCodeValidationFailed},
		{name: "bad format", query: "?emi_month=July-2025", wantStatus: http.StatusBadRequest, wantCode: apperrors.ErrCodeInvalidEmiMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := createTestHandler(t)
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections/summary"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestHandler_Handle_ResponseShape(t *testing.T) {
	h, mock := createTestHandler(t)
	expectCounts(mock, sqlmock.NewRows([]string{"status", "count"}).AddRow("Unpaid", 7))

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections/summary?emi_month=Jul-25", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]int{
		"total": 7, "paid": 0, "unpaid": 7, "partially_paid": 0, "cash_collected": 0,
		"customer_deposited": 0, "paid_pending_approval": 0, "foreclose": 0,
	}, body)
}

func TestHandler_Handle_QueryFailure(t *testing.T) {
	h, mock := createTestHandler(t)
	mock.ExpectQuery(`FROM applications a`).WillReturnError(errors.New("relation does not exist"))

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections/summary?emi_month=Jul-25", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
