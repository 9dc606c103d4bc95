// internal/handlers/collections/update-field-status/handler.go
package updatefieldstatus

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation        = "update-field-status"
	AuditField       = models.ActivityStatus
	AmountAuditField = models.ActivityAmountCollected
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrInsertFailed         = errors.New("DATABASE_INSERT_FAILED")
)

type FieldStatusStore interface {
	ApplicationExists(ctx context.Context, id string) (bool, error)
	LatestFieldStatus(ctx context.Context, applicationID, demandDate string) (*models.FieldStatusRecord, error)
	InsertFieldStatus(ctx context.Context, applicationID string, status models.FieldStatus,
		amount decimal.NullDecimal, demandDate, userID string) error
	handlers.AuditWriter
}

type Handler struct {
	config  *Config
	store   FieldStatusStore
	cache   handlers.Invalidator
	respond *handlers.Responder
	logger  logger.Logger
}

func NewHandler(config *Config, store FieldStatusStore, cache handlers.Invalidator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		store:   store,
		cache:   cache,
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	input := &Input{}
	if err := handlers.DecodeRequest(r, input); err != nil {
		h.respond.Fail(w, r, err)
		return
	}
	input.ApplicationID = handlers.PathParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.respond.Fail(w, r, h.toStandardError(ctx, input, err))
		return
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if input.ApplicationID == "" {
		return nil, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	if input.AmountCollected != nil && input.AmountCollected.IsNegative() {
		return nil, fmt.Errorf("%w: amount_collected cannot be negative", ErrInvalidInput)
	}

	exists, err := h.store.ApplicationExists(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if !exists {
		return nil, ErrApplicationNotFound
	}

	previous, err := h.store.LatestFieldStatus(ctx, input.ApplicationID, input.DemandDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	// Only admins may mark an EMI as Paid directly.
	status := input.Status
	if status == models.StatusPaid && !input.IsAdmin {
		status = models.StatusPaidPendingApproval
	}

	amount := decimal.NullDecimal{}
	if input.AmountCollected != nil {
		amount = decimal.NullDecimal{Decimal: *input.AmountCollected, Valid: true}
	}
	if err := h.store.InsertFieldStatus(ctx, input.ApplicationID, status, amount, input.DemandDate, input.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	output := &Output{
		ApplicationID:   input.ApplicationID,
		Status:          status,
		DemandDate:      input.DemandDate,
		AmountCollected: input.AmountCollected,
		PendingApproval: status == models.StatusPaidPendingApproval,
	}

	var previousValue *string
	if previous != nil {
		prevStatus := previous.Status
		output.PreviousStatus = &prevStatus
		s := string(prevStatus)
		previousValue = &s
	}
	newValue := string(status)
	handlers.RecordAudit(ctx, h.store, h.logger, models.AuditEntry{
		ApplicationID: input.ApplicationID,
		Field:         AuditField,
		PreviousValue: previousValue,
		NewValue:      &newValue,
		UserID:        input.UserID,
		DemandDate:    input.DemandDate,
	})
	if previousAmount, changed := amountChange(previous, input.AmountCollected); changed {
		newAmount := input.AmountCollected.String()
		handlers.RecordAudit(ctx, h.store, h.logger, models.AuditEntry{
			ApplicationID: input.ApplicationID,
			Field:         AmountAuditField,
			PreviousValue: previousAmount,
			NewValue:      &newAmount,
			UserID:        input.UserID,
			DemandDate:    input.DemandDate,
		})
	}
	handlers.InvalidateDemandMonth(ctx, h.cache, h.logger, input.DemandDate)

	h.logger.Info("field status updated", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        status,
		"demandDate":    input.DemandDate,
	})
	return output, nil
}

// amountChange reports whether amount differs from the previous row's amount
// collected, and returns the previous amount for the audit entry.
func amountChange(previous *models.FieldStatusRecord, amount *decimal.Decimal) (*string, bool) {
	if amount == nil {
		return nil, false
	}
	if previous == nil || !previous.AmountCollected.Valid {
		return nil, true
	}
	if previous.AmountCollected.Decimal.Equal(*amount) {
		return nil, false
	}
	s := previous.AmountCollected.Decimal.String()
	return &s, true
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) toStandardError(ctx context.Context, input *Input, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, ErrApplicationNotFound):
		return apperrors.NewResourceNotFoundError("application", "id: "+input.ApplicationID).
			WithMetadata("applicationId", input.ApplicationID)
	case handlers.IsTimeout(ctx, err):
		return apperrors.NewTimeoutError(Operation)
	case errors.Is(err, ErrInsertFailed):
		return apperrors.NewDatabaseInsertFailedError("field_status", err)
	default:
		return apperrors.NewQueryExecutionFailedError("field_status", err)
	}
}
