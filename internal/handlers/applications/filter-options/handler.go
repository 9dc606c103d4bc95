// internal/handlers/applications/filter-options/handler.go
package filteroptions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/fetcher"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation = "filter-options"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
)

type ApplicationLister interface {
	ListApplications(ctx context.Context, month string) ([]models.Application, error)
}

type Handler struct {
	config  *Config
	apps    ApplicationLister
	loader  fetcher.Loader
	respond *handlers.Responder
	logger  logger.Logger
}

func NewHandler(config *Config, apps ApplicationLister, loader fetcher.Loader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		apps:    apps,
		loader:  loader,
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	input := &Input{EmiMonth: strings.TrimSpace(r.URL.Query().Get("emi_month"))}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			h.respond.Fail(w, r, apperrors.NewInvalidEmiMonthError(input.EmiMonth))
		case handlers.IsTimeout(ctx, err):
			h.respond.Fail(w, r, apperrors.NewTimeoutError(Operation))
		default:
			h.respond.Fail(w, r, apperrors.NewQueryExecutionFailedError("filter_options", err))
		}
		return
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

// execute builds options from every application. Only the selected month's
// applications are enriched, since only they contribute statuses.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	month := ""
	if input.EmiMonth != "" {
		if _, err := filters.ParseEmiMonth(input.EmiMonth); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		month = filters.NormalizeEmiMonth(input.EmiMonth)
	}

	all, err := h.apps.ListApplications(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	var ids []string
	for _, app := range all {
		if month == "" || filters.FormatEmiMonth(app.DemandDate) == month {
			ids = append(ids, app.ID)
		}
	}
	batch := h.loader.Fetch(ctx, ids, month)
	if batch.HasFailures() {
		h.logger.Warn("building options with degraded lookups", map[string]interface{}{
			"emiMonth": month,
			"failed":   batch.Failed,
		})
	}

	opts := filters.AvailableOptions(batch.Apply(all), month)
	return &opts, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
