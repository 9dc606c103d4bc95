// internal/handlers/collections/collection-summary/handler.go
package collectionsummary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/handlers"
)

const (
	Operation = "collection-summary"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
)

// StatusCounter counts a month's applications by their latest field status.
type StatusCounter interface {
	StatusCounts(ctx context.Context, month string) (map[string]int, error)
}

type Handler struct {
	config  *Config
	counts  StatusCounter
	respond *handlers.Responder
	logger  logger.Logger
}

func NewHandler(config *Config, counts StatusCounter, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		counts:  counts,
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	input := &Input{EmiMonth: strings.TrimSpace(r.URL.Query().Get("emi_month"))}
	if input.EmiMonth == "" {
		h.respond.Fail(w, r, apperrors.NewValidationError("emi_month is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			h.respond.Fail(w, r, apperrors.NewInvalidEmiMonthError(input.EmiMonth))
		case handlers.IsTimeout(ctx, err):
			h.respond.Fail(w, r, apperrors.NewQueryTimeoutError("status_counts"))
		default:
			h.respond.Fail(w, r, apperrors.NewQueryExecutionFailedError("status_counts", err))
		}
		return
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if _, err := filters.ParseEmiMonth(input.EmiMonth); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	month := filters.NormalizeEmiMonth(input.EmiMonth)

	counts, err := h.counts.StatusCounts(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	summary := &Output{}
	for _, status := range statuses {
		summary.Add(status, counts[status])
	}

	h.logger.Debug("summary computed", map[string]interface{}{
		"emiMonth": month,
		"total":    summary.Total,
	})
	return summary, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
