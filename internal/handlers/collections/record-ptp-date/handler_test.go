// internal/handlers/collections/record-ptp-date/handler_test.go
package recordptpdate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
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

var (
	fixedNow = time.Date(2025, time.July, 15, 11, 0, 0, 0, time.UTC)
	created  = time.Date(2025, time.July, 10, 9, 0, 0, 0, time.UTC)
)

func strPtr(s string) *string { return &s }

type recordingInvalidator struct {
	months []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, month string) error {
	r.months = append(r.months, month)
	return nil
}

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *recordingInvalidator) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	inv := &recordingInvalidator{}
	h := NewHandler(LoadConfig(), store.New(db), inv, observability.NewNoop(), logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h, mock, inv
}

func expectExistsAndPrevious(mock sqlmock.Sqlmock, previous interface{}) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	rows := sqlmock.NewRows([]string{"application_id", "ptp_date", "demand_date", "created_at"})
	if previous != "none" {
		rows.AddRow("app-1", previous, "2025-07-05", created)
	}
	mock.ExpectQuery(`FROM ptp_dates WHERE application_id = \$1 AND demand_date = \$2`).
		WithArgs("app-1", "2025-07-05").
		WillReturnRows(rows)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RecordsDate(t *testing.T) {
	h, mock, inv := createTestHandler(t)
	expectExistsAndPrevious(mock, "2025-07-12")
	mock.ExpectExec(`INSERT INTO ptp_dates`).
		WithArgs("app-1", "2025-07-16", "2025-07-05", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(sqlmock.AnyArg(), "app-1", AuditField, "2025-07-12", "2025-07-16", "user-1", "2025-07-05", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		PtpDate:       strPtr(" 2025-07-16 "),
		DemandDate:    "2025-07-05",
		UserID:        "user-1",
	})
	require.NoError(t, err)

	require.NotNil(t, out.PtpDate)
	assert.Equal(t, "2025-07-16", *out.PtpDate)
	assert.Equal(t, "Tomorrow's PTP", out.PtpBucket)
	require.NotNil(t, out.PreviousPtpDate)
	assert.Equal(t, "2025-07-12", *out.PreviousPtpDate)
	assert.Equal(t, []string{"Jul-25", ""}, inv.months)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ClearsDate(t *testing.T) {
	tests := []struct {
		name string
		ptp  *string
	}{
		{"null", nil},
		{"empty", strPtr("")},
		{"blank", strPtr("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock, _ := createTestHandler(t)
			expectExistsAndPrevious(mock, "none")
			mock.ExpectExec(`INSERT INTO ptp_dates`).
				WithArgs("app-1", nil, "2025-07-05", "user-1").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`INSERT INTO audit_logs`).
				WithArgs(sqlmock.AnyArg(), "app-1", AuditField, nil, nil, "user-1", "2025-07-05", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))

			out, err := h.Execute(context.Background(), &Input{
				ApplicationID: "app-1", PtpDate: tt.ptp, DemandDate: "2025-07-05", UserID: "user-1",
			})
			require.NoError(t, err)
			assert.Nil(t, out.PtpDate)
			assert.Equal(t, "No PTP", out.PtpBucket)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_NotFound(t *testing.T) {
	h, mock, _ := createTestHandler(t)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", DemandDate: "2025-07-05", UserID: "user-1"})
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

// ==========================
// HTTP Tests
// ==========================

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(sqlmock.Sqlmock)
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{
			name: "null date clears",
			body: `{"ptp_date": null, "demand_date": "2025-07-05", "user_id": "user-1"}`,
			setup: func(m sqlmock.Sqlmock) {
				expectExistsAndPrevious(m, "2025-07-12")
				m.ExpectExec(`INSERT INTO ptp_dates`).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(`INSERT INTO audit_logs`).WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed date",
			body:       `{"ptp_date": "16-07-2025", "demand_date": "2025-07-05", "user_id": "user-1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationFailed,
		},
		{
			name:       "missing user",
			body:       `{"ptp_date": "2025-07-16", "demand_date": "2025-07-05"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock, _ := createTestHandler(t)
			if tt.setup != nil {
				tt.setup(mock)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/app-1/ptp-date", bytes.NewBufferString(tt.body))
			req = mux.SetURLVars(req, map[string]string{"id": "app-1"})

			rec := httptest.NewRecorder()
			h.Handle(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantCode != "" {
				var body apperrors.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body.Error.Code)
			}
		})
	}
}
