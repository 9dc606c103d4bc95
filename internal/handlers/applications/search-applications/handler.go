// internal/handlers/applications/search-applications/handler.go
package searchapplications

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
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/search"
)

const (
	Operation = "search-applications"
)

var (
	ErrInvalidInput      = errors.New("INVALID_INPUT")
	ErrSearchDisabled    = errors.New("SEARCH_DISABLED")
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
)

type Searcher interface {
	Search(ctx context.Context, q string, limit int) (*search.Result, error)
}

type Handler struct {
	config   *Config
	searcher Searcher
	respond  *handlers.Responder
	logger   logger.Logger
}

// NewHandler builds the handler; a nil searcher answers every request with
// SEARCH_DISABLED.
func NewHandler(config *Config, searcher Searcher, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:   config,
		searcher: searcher,
		respond:  handlers.NewResponder(Operation, log, obs),
		logger:   log,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	limit, err := commonhttp.QueryInt(r, "limit", search.DefaultLimit)
	if err != nil {
		h.respond.Fail(w, r, apperrors.NewValidationError(err.Error()))
		return
	}
	input := &Input{Query: r.URL.Query().Get("q"), Limit: limit}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrSearchDisabled):
			h.respond.Fail(w, r, apperrors.NewSearchDisabledError())
		case errors.Is(err, ErrInvalidInput):
			h.respond.Fail(w, r, apperrors.NewValidationError(err.Error()))
		case handlers.IsTimeout(ctx, err):
			h.respond.Fail(w, r, apperrors.NewTimeoutError(Operation))
		default:
			h.respond.Fail(w, r, apperrors.NewSearchQueryFailedError(h.config.Index, err))
		}
		return
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if h.searcher == nil {
		return nil, ErrSearchDisabled
	}
	if input == nil || strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("%w: q is required", ErrInvalidInput)
	}

	result, err := h.searcher.Search(ctx, input.Query, input.Limit)
	if err != nil {
		if errors.Is(err, search.ErrMissingQuery) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	return result, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
