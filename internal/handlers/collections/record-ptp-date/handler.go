// internal/handlers/collections/record-ptp-date/handler.go
package recordptpdate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation  = "record-ptp-date"
	AuditField = models.ActivityPtpDate
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrInsertFailed         = errors.New("DATABASE_INSERT_FAILED")
)

type PtpStore interface {
	ApplicationExists(ctx context.Context, id string) (bool, error)
	LatestPtpDate(ctx context.Context, applicationID, demandDate string) (*models.PtpRecord, error)
	InsertPtpDate(ctx context.Context, applicationID string, ptpDate *string, demandDate, userID string) error
	handlers.AuditWriter
}

type Handler struct {
	config  *Config
	store   PtpStore
	cache   handlers.Invalidator
	respond *handlers.Responder
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, store PtpStore, cache handlers.Invalidator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		store:   store,
		cache:   cache,
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
		now:     time.Now,
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
		switch {
		case errors.Is(err, ErrInvalidInput):
			h.respond.Fail(w, r, apperrors.NewValidationError(err.Error()))
		case errors.Is(err, ErrApplicationNotFound):
			h.respond.Fail(w, r, apperrors.NewResourceNotFoundError("application", "id: "+input.ApplicationID))
		case handlers.IsTimeout(ctx, err):
			h.respond.Fail(w, r, apperrors.NewTimeoutError(Operation))
		case errors.Is(err, ErrInsertFailed):
			h.respond.Fail(w, r, apperrors.NewDatabaseInsertFailedError("ptp_dates", err))
		default:
			h.respond.Fail(w, r, apperrors.NewQueryExecutionFailedError("ptp_dates", err))
		}
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

	var ptp *string
	if input.PtpDate != nil {
		if s := strings.TrimSpace(*input.PtpDate); s != "" {
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return nil, fmt.Errorf("%w: ptp_date must be YYYY-MM-DD", ErrInvalidInput)
			}
			ptp = &s
		}
	}

	exists, err := h.store.ApplicationExists(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if !exists {
		return nil, ErrApplicationNotFound
	}

	previous, err := h.store.LatestPtpDate(ctx, input.ApplicationID, input.DemandDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if err := h.store.InsertPtpDate(ctx, input.ApplicationID, ptp, input.DemandDate, input.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	var previousValue *string
	if previous != nil {
		previousValue = previous.PtpDate
	}
	handlers.RecordAudit(ctx, h.store, h.logger, models.AuditEntry{
		ApplicationID: input.ApplicationID,
		Field:         AuditField,
		PreviousValue: previousValue,
		NewValue:      ptp,
		UserID:        input.UserID,
		DemandDate:    input.DemandDate,
	})
	handlers.InvalidateDemandMonth(ctx, h.cache, h.logger, input.DemandDate)

	now := h.now().In(h.config.Location)
	h.logger.Info("ptp date recorded", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"cleared":       ptp == nil,
	})
	return &Output{
		ApplicationID:   input.ApplicationID,
		PtpDate:         ptp,
		PreviousPtpDate: previousValue,
		PtpBucket:       filters.CategorizePtpDate(ptp, now).Label(),
		DemandDate:      input.DemandDate,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
