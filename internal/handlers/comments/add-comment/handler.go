// internal/handlers/comments/add-comment/handler.go
package addcomment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation = "add-comment"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrInsertFailed         = errors.New("DATABASE_INSERT_FAILED")
)

type CommentStore interface {
	ApplicationExists(ctx context.Context, id string) (bool, error)
	InsertComment(ctx context.Context, c models.Comment) error
	ResolveNames(ctx context.Context, comments []models.Comment) error
}

type Handler struct {
	config  *Config
	store   CommentStore
	cache   handlers.Invalidator
	respond *handlers.Responder
	logger  logger.Logger
	now     func() time.Time
	newID   func() string
}

func NewHandler(config *Config, store CommentStore, cache handlers.Invalidator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		store:   store,
		cache:   cache,
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
		now:     time.Now,
		newID:   uuid.NewString,
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
			h.respond.Fail(w, r, apperrors.NewDatabaseInsertFailedError("comments", err))
		default:
			h.respond.Fail(w, r, apperrors.NewQueryExecutionFailedError("comments", err))
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
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, fmt.Errorf("%w: content exceeds %d characters", ErrInvalidInput, MaxContentLength)
	}

	exists, err := h.store.ApplicationExists(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if !exists {
		return nil, ErrApplicationNotFound
	}

	comment := models.Comment{
		ID:            h.newID(),
		ApplicationID: input.ApplicationID,
		Content:       content,
		UserID:        input.UserID,
		DemandDate:    input.DemandDate,
		CreatedAt:     h.now().UTC(),
	}
	if err := h.store.InsertComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	created := []models.Comment{comment}
	if err := h.store.ResolveNames(ctx, created); err != nil {
		h.logger.Warn("comment author lookup failed", map[string]interface{}{
			"commentId": comment.ID,
			"error":     err.Error(),
		})
	}
	if input.DemandDate != "" {
		handlers.InvalidateDemandMonth(ctx, h.cache, h.logger, input.DemandDate)
	}

	h.logger.Info("comment added", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"commentId":     comment.ID,
	})
	return &created[0], nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
