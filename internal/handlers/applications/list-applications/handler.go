// internal/handlers/applications/list-applications/handler.go
package listapplications

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "collections-dashboard/internal/common/errors"
	commonhttp "collections-dashboard/internal/common/http"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/fetcher"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
)

const (
	Operation = "list-applications"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrSuperseded           = errors.New("REQUEST_SUPERSEDED")
)

// ApplicationLister lists the applications due in an EMI month.
type ApplicationLister interface {
	ListApplications(ctx context.Context, month string) ([]models.Application, error)
}

type Handler struct {
	config   *Config
	apps     ApplicationLister
	sessions *fetcher.Sessions
	obs      *observability.Observability
	respond  *handlers.Responder
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(config *Config, apps ApplicationLister, sessions *fetcher.Sessions, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:   config,
		apps:     apps,
		sessions: sessions,
		obs:      obs,
		respond:  handlers.NewResponder(Operation, log, obs),
		logger:   log,
		now:      time.Now,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	input, err := h.parse(r)
	if err != nil {
		h.respond.Fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.respond.Fail(w, r, h.toStandardError(ctx, err))
		return
	}

	w.Header().Set("X-Active-Filters", strconv.Itoa(output.ActiveFilters))
	if len(output.Degraded) > 0 {
		w.Header().Set("X-Degraded-Lookups", strings.Join(output.Degraded, ","))
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

func (h *Handler) parse(r *http.Request) (*Input, error) {
	q := r.URL.Query()

	month := strings.TrimSpace(q.Get("emi_month"))
	if month == "" {
		return nil, apperrors.NewValidationError("emi_month is required")
	}
	if _, err := filters.ParseEmiMonth(month); err != nil {
		return nil, apperrors.NewInvalidEmiMonthError(month)
	}

	state, err := filters.FromQuery(q)
	if err != nil {
		return nil, apperrors.NewInvalidFilterFormatError(err.Error())
	}

	offset, err := commonhttp.QueryInt(r, "offset", 0)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	limit, err := commonhttp.QueryInt(r, "limit", h.config.DefaultLimit)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	userID := q.Get("user_id")
	if userID == "" {
		userID = r.Header.Get("X-User-ID")
	}

	return &Input{
		EmiMonth: filters.NormalizeEmiMonth(month),
		Offset:   offset,
		Limit:    limit,
		UserID:   userID,
		View:     q.Get("view"),
		Refresh:  q.Get("refresh") == "true",
		Filters:  state,
	}, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if _, err := filters.ParseEmiMonth(input.EmiMonth); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	if h.config.MaxLimit > 0 && limit > h.config.MaxLimit {
		limit = h.config.MaxLimit
	}

	apps, err := h.apps.ListApplications(ctx, input.EmiMonth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
	}

	session := h.sessions.Get(sessionKey(input.UserID, input.View))
	if input.Refresh {
		session.Clear()
	}
	batch, err := session.Load(ctx, ids, input.EmiMonth)
	if err != nil {
		if errors.Is(err, fetcher.ErrSuperseded) || errors.Is(err, fetcher.ErrClosed) {
			return nil, fmt.Errorf("%w: %v", ErrSuperseded, err)
		}
		return nil, err
	}
	if batch.HasFailures() {
		h.logger.Warn("serving list with degraded lookups", map[string]interface{}{
			"emiMonth": input.EmiMonth,
			"failed":   batch.Failed,
		})
	}

	now := h.now().In(h.location())
	filtered := filters.FilterApplications(batch.Apply(apps), input.Filters, now)
	h.obs.RecordActiveFilters(ctx, input.Filters.ActiveCount())

	total := len(filtered)
	start := input.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	h.logger.Debug("applications listed", map[string]interface{}{
		"emiMonth": input.EmiMonth,
		"total":    total,
		"offset":   start,
		"limit":    limit,
	})

	return &Output{
		Total:         total,
		Results:       filters.Rows(filtered[start:end], now),
		ActiveFilters: input.Filters.ActiveCount(),
		Degraded:      batch.Failed,
	}, nil
}

func (h *Handler) toStandardError(ctx context.Context, err error) error {
	switch {
	case handlers.IsTimeout(ctx, err):
		return apperrors.NewTimeoutError(Operation)
	case errors.Is(err, ErrSuperseded):
		return apperrors.NewSupersededError()
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, ErrQueryExecutionFailed):
		return apperrors.NewQueryExecutionFailedError("list_applications", err)
	}
	return err
}

func (h *Handler) location() *time.Location {
	if h.config.Location == nil {
		return time.UTC
	}
	return h.config.Location
}

// sessionKey scopes the duplicate-request guard to one user and view.
func sessionKey(userID, view string) string {
	if userID == "" {
		userID = "anonymous"
	}
	if view == "" {
		view = "list"
	}
	return userID + ":" + view
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
