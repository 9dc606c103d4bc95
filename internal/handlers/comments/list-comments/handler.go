// internal/handlers/comments/list-comments/handler.go
package listcomments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation = "list-comments"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrInvalidEmiMonth      = errors.New("INVALID_EMI_MONTH")
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
)

type CommentStore interface {
	ApplicationExists(ctx context.Context, id string) (bool, error)
	CommentsForApplication(ctx context.Context, applicationID, month string) ([]models.Comment, error)
	ResolveNames(ctx context.Context, comments []models.Comment) error
}

type Handler struct {
	config  *Config
	store   CommentStore
	respond *handlers.Responder
	logger  logger.Logger
}

func NewHandler(config *Config, store CommentStore, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		store:   store,
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	input := &Input{
		ApplicationID: handlers.PathParam(r, "id"),
		EmiMonth:      strings.TrimSpace(r.URL.Query().Get("emi_month")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmiMonth):
			h.respond.Fail(w, r, apperrors.NewInvalidEmiMonthError(input.EmiMonth))
		case errors.Is(err, ErrInvalidInput):
			h.respond.Fail(w, r, apperrors.NewValidationError(err.Error()))
		case errors.Is(err, ErrApplicationNotFound):
			h.respond.Fail(w, r, apperrors.NewResourceNotFoundError("application", "id: "+input.ApplicationID))
		case handlers.IsTimeout(ctx, err):
			h.respond.Fail(w, r, apperrors.NewTimeoutError(Operation))
		default:
			h.respond.Fail(w, r, apperrors.NewQueryExecutionFailedError("comments", err))
		}
		return
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.ApplicationID == "" {
		return nil, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}
	month := ""
	if input.EmiMonth != "" {
		if _, err := filters.ParseEmiMonth(input.EmiMonth); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEmiMonth, err)
		}
		month = filters.NormalizeEmiMonth(input.EmiMonth)
	}

	exists, err := h.store.ApplicationExists(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if !exists {
		return nil, ErrApplicationNotFound
	}

	comments, err := h.store.CommentsForApplication(ctx, input.ApplicationID, month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	// Unresolved names leave user_name empty rather than failing the list.
	if err := h.store.ResolveNames(ctx, comments); err != nil {
		h.logger.Warn("comment author lookup failed", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"error":         err.Error(),
		})
	}

	return &Output{Total: len(comments), Results: comments}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
