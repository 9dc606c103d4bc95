// internal/handlers/activity/recent-activity/handler.go
package recentactivity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "collections-dashboard/internal/common/errors"
	commonhttp "collections-dashboard/internal/common/http"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/models"
	"collections-dashboard/internal/store"
)

const (
	Operation = "recent-activity"

	// ChangedBySystem names changes without a recorded user.
	ChangedBySystem = "System"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
)

type ActivityStore interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	RecentActivity(ctx context.Context, applicationID string, limit int, since time.Time) ([]models.Activity, error)
	Profiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error)
}

type Handler struct {
	config  *Config
	store   ActivityStore
	respond *handlers.Responder
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, store ActivityStore, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:  config,
		store:   store,
		respond: handlers.NewResponder(Operation, log, obs),
		logger:  log,
		now:     time.Now,
	}
}

// Handle serves both the global feed and the per-application feed; the
// latter takes its id from the path.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	input, err := h.parse(r)
	if err != nil {
		h.respond.Fail(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

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
		default:
			h.respond.Fail(w, r, apperrors.NewQueryExecutionFailedError("recent_activity", err))
		}
		return
	}
	h.respond.OK(w, r, http.StatusOK, output)
}

func (h *Handler) parse(r *http.Request) (*Input, error) {
	applicationID := handlers.PathParam(r, "id")
	if applicationID == "" {
		applicationID = strings.TrimSpace(r.URL.Query().Get("application_id"))
	}
	limit, err := commonhttp.QueryInt(r, "limit", h.config.DefaultLimit)
	if err != nil {
		return nil, err
	}
	daysBack, err := commonhttp.QueryInt(r, "days_back", h.config.DefaultDaysBack)
	if err != nil {
		return nil, err
	}
	return &Input{ApplicationID: applicationID, Limit: limit, DaysBack: daysBack}, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if input.DaysBack < 0 || input.Limit < 0 {
		return nil, fmt.Errorf("%w: limit and days_back must not be negative", ErrInvalidInput)
	}

	limit := input.Limit
	if limit == 0 {
		limit = h.config.DefaultLimit
	}
	if h.config.MaxLimit > 0 && limit > h.config.MaxLimit {
		limit = h.config.MaxLimit
	}
	daysBack := input.DaysBack
	if daysBack == 0 {
		daysBack = h.config.DefaultDaysBack
	}
	if h.config.MaxDaysBack > 0 && daysBack > h.config.MaxDaysBack {
		daysBack = h.config.MaxDaysBack
	}

	output := &Output{ApplicationID: input.ApplicationID}
	if input.ApplicationID != "" {
		app, err := h.store.GetApplication(ctx, input.ApplicationID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
		}
		output.ApplicantName = app.ApplicantName
	}

	since := h.now().AddDate(0, 0, -daysBack)
	activities, err := h.store.RecentActivity(ctx, input.ApplicationID, limit, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	h.resolveChangedBy(ctx, activities)

	output.Total = len(activities)
	output.Results = activities
	return output, nil
}

// resolveChangedBy names the user behind each entry. A failed lookup leaves
// the generic profile name rather than failing the feed.
func (h *Handler) resolveChangedBy(ctx context.Context, activities []models.Activity) {
	seen := map[string]struct{}{}
	var ids []string
	for _, a := range activities {
		if a.UserID == "" {
			continue
		}
		if _, ok := seen[a.UserID]; !ok {
			seen[a.UserID] = struct{}{}
			ids = append(ids, a.UserID)
		}
	}

	profiles := map[string]models.Profile{}
	if len(ids) > 0 {
		var err error
		profiles, err = h.store.Profiles(ctx, ids)
		if err != nil {
			h.logger.Warn("activity author lookup failed", map[string]interface{}{
				"users": len(ids),
				"error": err.Error(),
			})
			profiles = map[string]models.Profile{}
		}
	}

	for i := range activities {
		if activities[i].UserID == "" {
			activities[i].ChangedBy = ChangedBySystem
			continue
		}
		activities[i].ChangedBy = profiles[activities[i].UserID].DisplayName()
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
