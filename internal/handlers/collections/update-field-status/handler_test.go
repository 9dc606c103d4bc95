// internal/handlers/collections/update-field-status/handler_test.go
package updatefieldstatus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/models"
	"collections-dashboard/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

type recordingInvalidator struct {
	months []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, month string) error {
	r.months = append(r.months, month)
	return nil
}

var created = time.Date(2025, time.July, 10, 9, 0, 0, 0, time.UTC)

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *recordingInvalidator) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	inv := &recordingInvalidator{}
	h := NewHandler(LoadConfig(), store.New(db), inv, observability.NewNoop(), logger.NewTestLogger(t))
	return h, mock, inv
}

func expectExists(mock sqlmock.Sqlmock, id string, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func expectLatest(mock sqlmock.Sqlmock, status string) {
	rows := sqlmock.NewRows([]string{"application_id", "status", "amount_collected", "demand_date", "created_at"})
	if status != "" {
		rows.AddRow("app-1", status, nil, "2025-07-05", created)
	}
	mock.ExpectQuery(`FROM field_status WHERE application_id = \$1 AND demand_date = \$2`).
		WithArgs("app-1", "2025-07-05").
		WillReturnRows(rows)
}

func expectInsert(mock sqlmock.Sqlmock, status models.FieldStatus) {
	mock.ExpectExec(`INSERT INTO field_status`).
		WithArgs("app-1", string(status), sqlmock.AnyArg(), "2025-07-05", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func expectAudit(mock sqlmock.Sqlmock, previous interface{}, next string) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(sqlmock.AnyArg(), "app-1", AuditField, previous, next, "user-1", "2025-07-05", sqlmock.AnyArg())
}

func expectAmountAudit(mock sqlmock.Sqlmock, previous interface{}, next string) {
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(sqlmock.AnyArg(), "app-1", AmountAuditField, previous, next, "user-1", "2025-07-05", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func validInput(status models.FieldStatus) *Input {
	return &Input{
		ApplicationID: "app-1",
		Status:        status,
		DemandDate:    "2025-07-05",
		UserID:        "user-1",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_NonAdminPaidNeedsApproval(t *testing.T) {
	h, mock, inv := createTestHandler(t)
	expectExists(mock, "app-1", true)
	expectLatest(mock, "Unpaid")
	expectInsert(mock, models.StatusPaidPendingApproval)
	expectAudit(mock, "Unpaid", "Paid (Pending Approval)").WillReturnResult(sqlmock.NewResult(0, 1))
	expectAmountAudit(mock, nil, "4250")

	amount := decimal.NewFromInt(4250)
	input := validInput(models.StatusPaid)
	input.AmountCollected = &amount

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaidPendingApproval, out.Status)
	assert.True(t, out.PendingApproval)
	require.NotNil(t, out.PreviousStatus)
	assert.Equal(t, models.StatusUnpaid, *out.PreviousStatus)
	assert.Equal(t, []string{"Jul-25", ""}, inv.months)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AdminPaid(t *testing.T) {
	h, mock, _ := createTestHandler(t)
	expectExists(mock, "app-1", true)
	expectLatest(mock, "")
	expectInsert(mock, models.StatusPaid)
	expectAudit(mock, nil, "Paid").WillReturnResult(sqlmock.NewResult(0, 1))

	input := validInput(models.StatusPaid)
	input.IsAdmin = true

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, out.Status)
	assert.False(t, out.PendingApproval)
	assert.Nil(t, out.PreviousStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AmountAudit(t *testing.T) {
	tests := []struct {
		name     string
		previous interface{}
		amount   int64
		want     interface{}
	}{
		{name: "changed amount", previous: "1000.00", amount: 1500, want: "1000"},
		{name: "unchanged amount", previous: "1500.00", amount: 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock, _ := createTestHandler(t)
			expectExists(mock, "app-1", true)
			mock.ExpectQuery(`FROM field_status WHERE application_id = \$1 AND demand_date = \$2`).
				WithArgs("app-1", "2025-07-05").
				WillReturnRows(sqlmock.NewRows([]string{"application_id", "status", "amount_collected", "demand_date", "created_at"}).
					AddRow("app-1", "Partially Paid", tt.previous, "2025-07-05", created))
			expectInsert(mock, models.StatusPartiallyPaid)
			expectAudit(mock, "Partially Paid", "Partially Paid").WillReturnResult(sqlmock.NewResult(0, 1))
			if tt.want != nil {
				expectAmountAudit(mock, tt.want, "1500")
			}

			amount := decimal.NewFromInt(tt.amount)
			input := validInput(models.StatusPartiallyPaid)
			input.AmountCollected = &amount

			_, err := h.Execute(context.Background(), input)
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_AuditFailureIsNotFatal(t *testing.T) {
	h, mock, _ := createTestHandler(t)
	expectExists(mock, "app-1", true)
	expectLatest(mock, "")
	expectInsert(mock, models.StatusPartiallyPaid)
	expectAudit(mock, nil, "Partially Paid").WillReturnError(errors.New("audit_logs is read-only"))

	out, err := h.Execute(context.Background(), validInput(models.StatusPartiallyPaid))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartiallyPaid, out.Status)
}

func TestHandler_Execute_Errors(t *testing.T) {
	t.Run("unknown status", func(t *testing.T) {
		h, _, _ := createTestHandler(t)
		_, err := h.Execute(context.Background(), validInput("Settled"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative amount", func(t *testing.T) {
		h, _, _ := createTestHandler(t)
		amount := decimal.NewFromInt(-1)
		input := validInput(models.StatusPartiallyPaid)
		input.AmountCollected = &amount
		_, err := h.Execute(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing application", func(t *testing.T) {
		h, mock, _ := createTestHandler(t)
		expectExists(mock, "app-1", false)
		_, err := h.Execute(context.Background(), validInput(models.StatusUnpaid))
		assert.ErrorIs(t, err, ErrApplicationNotFound)
	})

	t.Run("insert failure", func(t *testing.T) {
		h, mock, inv := createTestHandler(t)
		expectExists(mock, "app-1", true)
		expectLatest(mock, "")
		mock.ExpectExec(`INSERT INTO field_status`).WillReturnError(errors.New("constraint violation"))

		_, err := h.Execute(context.Background(), validInput(models.StatusUnpaid))
		assert.ErrorIs(t, err, ErrInsertFailed)
		assert.Empty(t, inv.months)
	})
}

// ==========================
// HTTP Tests
// ==========================

func newRequest(t *testing.T, id string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+id+"/field-status", bytes.NewReader(raw))
	return mux.SetURLVars(req, map[string]string{"id": id})
}

func TestHandler_Handle(t *testing.T) {
	h, mock, _ := createTestHandler(t)
	expectExists(mock, "app-1", true)
	expectLatest(mock, "")
	expectInsert(mock, models.StatusCashCollected)
	expectAudit(mock, nil, "Cash Collected from Customer").WillReturnResult(sqlmock.NewResult(0, 1))
	expectAmountAudit(mock, nil, "1200.5")

	rec := httptest.NewRecorder()
	h.Handle(rec, newRequest(t, "app-1", map[string]interface{}{
		"status":           "Cash Collected from Customer",
		"demand_date":      "2025-07-05",
		"amount_collected": "1200.50",
		"user_id":          "user-1",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var out Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "app-1", out.ApplicationID)
	assert.Equal(t, models.StatusCashCollected, out.Status)
	require.NotNil(t, out.AmountCollected)
	assert.Equal(t, "1200.5", out.AmountCollected.String())
}

func TestHandler_Handle_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{
			name:       "status outside the enumeration",
			body:       map[string]interface{}{"status": "Settled", "demand_date": "2025-07-05", "user_id": "user-1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationFailed,
		},
		{
			name:       "bad demand date",
			body:       map[string]interface{}{"status": "Unpaid", "demand_date": "05/07/2025", "user_id": "user-1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationFailed,
		},
		{
			name:       "unknown field",
			body:       map[string]interface{}{"status": "Unpaid", "demand_date": "2025-07-05", "user_id": "user-1", "extra": 1},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := createTestHandler(t)
			rec := httptest.NewRecorder()
			h.Handle(rec, newRequest(t, "app-1", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestHandler_Handle_NotFound(t *testing.T) {
	h, mock, _ := createTestHandler(t)
	expectExists(mock, "app-404", false)

	rec := httptest.NewRecorder()
	h.Handle(rec, newRequest(t, "app-404", map[string]interface{}{
		"status": "Unpaid", "demand_date": "2025-07-05", "user_id": "user-1",
	}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
