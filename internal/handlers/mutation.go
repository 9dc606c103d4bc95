// internal/handlers/mutation.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	apperrors "collections-dashboard/internal/common/errors"
	commonhttp "collections-dashboard/internal/common/http"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/validation"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/models"
)

// DecodeRequest reads a JSON body into v and checks its validate tags.
func DecodeRequest(r *http.Request, v interface{}) error {
	if err := commonhttp.DecodeJSON(r, v); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if result := validation.Struct(v); !result.Valid {
		return apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

// PathParam returns a route variable such as {id}.
func PathParam(r *http.Request, name string) string {
	return strings.TrimSpace(mux.Vars(r)[name])
}

type AuditWriter interface {
	InsertAudit(ctx context.Context, e models.AuditEntry) error
}

// RecordAudit stores an audit entry. A failed write is logged and does not
// fail the mutation it describes.
func RecordAudit(ctx context.Context, w AuditWriter, log logger.Logger, entry models.AuditEntry) {
	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := w.InsertAudit(ctx, entry); err != nil {
		log.Warn("audit entry not recorded", map[string]interface{}{
			"applicationId": entry.ApplicationID,
			"field":         entry.Field,
			"error":         err.Error(),
		})
	}
}

// Invalidator drops cached lookups for an EMI month label.
type Invalidator interface {
	Invalidate(ctx context.Context, month string) error
}

// Invalidators fans one invalidation out to every layer holding list data.
// Nil entries are skipped.
type Invalidators []Invalidator

func (is Invalidators) Invalidate(ctx context.Context, month string) error {
	var errs []error
	for _, inv := range is {
		if inv == nil {
			continue
		}
		if err := inv.Invalidate(ctx, month); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InvalidateDemandMonth clears cached batches for the month of a YYYY-MM-DD
// demand date, and the unscoped batches that span every month.
func InvalidateDemandMonth(ctx context.Context, inv Invalidator, log logger.Logger, demandDate string) {
	if inv == nil {
		return
	}
	for _, month := range []string{filters.FormatEmiMonth(demandDate), ""} {
		if err := inv.Invalidate(ctx, month); err != nil {
			log.Warn("cache invalidation failed", map[string]interface{}{
				"emiMonth": month,
				"error":    err.Error(),
			})
		}
	}
}
