// internal/handlers/collections/log-contact-call/handler.go
package logcontactcall

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
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation = "log-contact-call"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrInsertFailed         = errors.New("DATABASE_INSERT_FAILED")
)

type CallStore interface {
	ApplicationExists(ctx context.Context, id string) (bool, error)
	InsertContactStatus(ctx context.Context, rec models.ContactStatusRecord, userID string) error
}

type Handler struct {
	config  *Config
	store   CallStore
	cache   handlers.Invalidator
	respond *handlers.Responder
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, store CallStore, cache handlers.Invalidator, obs *observability.Observability, log logger.Logger) *Handler {
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
			h.respond.Fail(w, r, apperrors.NewDatabaseInsertFailedError("contact_calling_status", err))
		default:
			h.respond.Fail(w, r, apperrors.NewQueryExecutionFailedError("contact_calling_status", err))
		}
		return
	}
	h.respond.OK(w, r, http.StatusCreated, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if input.ApplicationID == "" {
		return nil, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}
	if !input.ContactType.Valid() {
		return nil, fmt.Errorf("%w: unknown contact type %q", ErrInvalidInput, input.ContactType)
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}

	exists, err := h.store.ApplicationExists(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if !exists {
		return nil, ErrApplicationNotFound
	}

	rec := models.ContactStatusRecord{
		ApplicationID: input.ApplicationID,
		ContactType:   input.ContactType,
		Status:        status,
		DemandDate:    input.DemandDate,
		CreatedAt:     h.now().UTC(),
	}
	if err := h.store.InsertContactStatus(ctx, rec, input.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	handlers.InvalidateDemandMonth(ctx, h.cache, h.logger, input.DemandDate)

	h.logger.Info("contact call logged", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"contactType":   input.ContactType,
		"status":        status,
	})
	return &rec, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
