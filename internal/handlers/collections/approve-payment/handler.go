// internal/handlers/collections/approve-payment/handler.go
package approvepayment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/common/validation"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation  = "approve-payment"
	AuditField = models.ActivityStatus
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrNotPending           = errors.New("PAYMENT_NOT_PENDING")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrInsertFailed         = errors.New("DATABASE_INSERT_FAILED")
)

type ApprovalStore interface {
	LatestFieldStatus(ctx context.Context, applicationID, demandDate string) (*models.FieldStatusRecord, error)
	InsertFieldStatus(ctx context.Context, applicationID string, status models.FieldStatus,
		amount decimal.NullDecimal, demandDate, userID string) error
	handlers.AuditWriter
}

type Handler struct {
	config  *Config
	store   ApprovalStore
	cache   handlers.Invalidator
	respond *handlers.Responder
	logger  logger.Logger
}

func NewHandler(config *Config, store ApprovalStore, cache handlers.Invalidator, obs *observability.Observability, log logger.Logger) *Handler {
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
		h.respond.Fail(w, r, h.toStandardError(ctx, err))
		return
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

// Resolve returns the status an approval decision leads to. A rejected
// payment stays partially paid when some amount was collected.
func Resolve(action string, collected decimal.NullDecimal) (models.FieldStatus, error) {
	switch action {
	case validation.ApprovalAccept:
		return models.StatusPaid, nil
	case validation.ApprovalReject:
		if collected.Valid && collected.Decimal.IsPositive() {
			return models.StatusPartiallyPaid, nil
		}
		return models.StatusUnpaid, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if input.ApplicationID == "" {
		return nil, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}

	latest, err := h.store.LatestFieldStatus(ctx, input.ApplicationID, input.DemandDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if latest == nil || latest.Status != models.StatusPaidPendingApproval {
		current := models.StatusUnpaid
		if latest != nil {
			current = models.StatusOrDefault(latest.Status)
		}
		return nil, fmt.Errorf("%w: current status is %q", ErrNotPending, current)
	}

	status, err := Resolve(input.Action, latest.AmountCollected)
	if err != nil {
		return nil, err
	}
	if err := h.store.InsertFieldStatus(ctx, input.ApplicationID, status, latest.AmountCollected,
		input.DemandDate, input.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	previousValue := string(latest.Status)
	newValue := string(status)
	handlers.RecordAudit(ctx, h.store, h.logger, models.AuditEntry{
		ApplicationID: input.ApplicationID,
		Field:         AuditField,
		PreviousValue: &previousValue,
		NewValue:      &newValue,
		UserID:        input.UserID,
		DemandDate:    input.DemandDate,
	})
	handlers.InvalidateDemandMonth(ctx, h.cache, h.logger, input.DemandDate)

	h.logger.Info("payment approval recorded", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"action":        input.Action,
		"status":        status,
	})
	return &Output{
		ApplicationID:  input.ApplicationID,
		Action:         input.Action,
		Status:         status,
		PreviousStatus: latest.Status,
		DemandDate:     input.DemandDate,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) toStandardError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, ErrNotPending):
		return apperrors.NewBusinessRuleError("Payment is not pending approval", err.Error())
	case handlers.IsTimeout(ctx, err):
		return apperrors.NewTimeoutError(Operation)
	case errors.Is(err, ErrInsertFailed):
		return apperrors.NewDatabaseInsertFailedError("field_status", err)
	default:
		return apperrors.NewQueryExecutionFailedError("field_status", err)
	}
}
