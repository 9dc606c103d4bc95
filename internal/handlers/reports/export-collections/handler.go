// internal/handlers/reports/export-collections/handler.go
package exportcollections

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/export"
	"collections-dashboard/internal/fetcher"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation = "export-collections"
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
	now     func() time.Time
}

func NewHandler(config *Config, apps ApplicationLister, loader fetcher.Loader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		apps:    apps,
		loader:  loader,
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
		now:     time.Now,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month := strings.TrimSpace(q.Get("emi_month"))
	if month == "" {
		h.respond.Fail(w, r, apperrors.NewValidationError("emi_month is required"))
		return
	}
	if _, err := filters.ParseEmiMonth(month); err != nil {
		h.respond.Fail(w, r, apperrors.NewInvalidEmiMonthError(month))
		return
	}
	state, err := filters.FromQuery(q)
	if err != nil {
		h.respond.Fail(w, r, apperrors.NewInvalidFilterFormatError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &Input{EmiMonth: month, Filters: state})
	if err != nil {
		if handlers.IsTimeout(ctx, err) {
			h.respond.Fail(w, r, apperrors.NewTimeoutError(Operation))
			return
		}
		h.respond.Fail(w, r, apperrors.NewQueryExecutionFailedError("applications", err))
		return
	}

	// Build in memory so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := export.Write(&buf, output.Rows); err != nil {
		h.respond.Fail(w, r, apperrors.NewExportFailedError(err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if len(output.Degraded) > 0 {
		w.Header().Set("X-Degraded-Lookups", strings.Join(output.Degraded, ","))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export response interrupted", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if _, err := filters.ParseEmiMonth(input.EmiMonth); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	month := filters.NormalizeEmiMonth(input.EmiMonth)

	apps, err := h.apps.ListApplications(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
	}
	batch := h.loader.Fetch(ctx, ids, month)

	now := h.now().In(h.config.Location)
	filtered := filters.FilterApplications(batch.Apply(apps), input.Filters, now)

	h.logger.Info("export prepared", map[string]interface{}{
		"emiMonth": month,
		"rows":     len(filtered),
		"filters":  input.Filters.ActiveCount(),
	})
	return &Output{
		FileName: "collections-" + month + ".xlsx",
		Rows:     filters.Rows(filtered, now),
		Degraded: batch.Failed,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
