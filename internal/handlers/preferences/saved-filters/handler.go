// internal/handlers/preferences/saved-filters/handler.go
package savedfilters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "collections-dashboard/internal/common/errors"
	commonhttp "collections-dashboard/internal/common/http"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/common/validation"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/handlers"
)

const (
	Operation = "saved-filters"
)

var (
	ErrInvalidInput  = errors.New("INVALID_INPUT")
	ErrStorageFailed = errors.New("STORAGE_FAILED")
)

type FilterStore interface {
	Get(ctx context.Context, userID string) (filters.State, error)
	Save(ctx context.Context, userID string, state filters.State) (filters.State, error)
	Delete(ctx context.Context, userID string) error
}

type Handler struct {
	config  *Config
	store   FilterStore
	schema  map[string]interface{}
	respond *handlers.Responder
	logger  logger.Logger
}

func NewHandler(config *Config, store FilterStore, obs *observability.Observability, log logger.Logger) *Handler {
	names := make([]string, len(filters.Dimensions))
	for i, d := range filters.Dimensions {
		names[i] = string(d)
	}
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		store:   store,
		schema:  validation.StringListsSchema(names),
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	input := &Input{UserID: handlers.PathParam(r, "userId")}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	var (
		output *Output
		err    error
	)
	switch r.Method {
	case http.MethodGet:
		output, err = h.get(ctx, input)
	case http.MethodPut:
		if derr := commonhttp.DecodeJSON(r, &input.Document); derr != nil {
			h.respond.Fail(w, r, apperrors.NewValidationError(derr.Error()))
			return
		}
		output, err = h.execute(ctx, input)
	case http.MethodDelete:
		output, err = h.clear(ctx, input)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		h.respond.Fail(w, r, apperrors.NewValidationError("method not allowed: "+r.Method))
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			h.respond.Fail(w, r, apperrors.NewValidationError(err.Error()))
		case handlers.IsTimeout(ctx, err):
			h.respond.Fail(w, r, apperrors.NewTimeoutError(Operation))
		default:
			h.respond.Fail(w, r, apperrors.NewExternalServiceError("redis", err))
		}
		return
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

func (h *Handler) get(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	state, err := h.store.Get(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return newOutput(input.UserID, state), nil
}

// execute validates the document against the dimension schema and stores it.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Document == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrInvalidInput)
	}

	result, err := validation.ValidateDocument(h.schema, input.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(result.GetErrorMessages(), "; "))
	}

	state := make(filters.State, len(input.Document))
	for key, raw := range input.Document {
		values, _ := raw.([]interface{})
		for _, v := range values {
			if s, ok := v.(string); ok {
				state[filters.Dimension(key)] = append(state[filters.Dimension(key)], strings.TrimSpace(s))
			}
		}
	}

	saved, err := h.store.Save(ctx, input.UserID, state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	h.logger.Info("filters saved", map[string]interface{}{
		"userId":      input.UserID,
		"activeCount": saved.ActiveCount(),
	})
	return newOutput(input.UserID, saved), nil
}

func (h *Handler) clear(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := h.store.Delete(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return newOutput(input.UserID, nil), nil
}

func newOutput(userID string, state filters.State) *Output {
	if state == nil {
		state = filters.State{}
	}
	return &Output{UserID: userID, Filters: state, ActiveCount: state.ActiveCount()}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
