// Package handlers holds the HTTP operations of the collections API, one
// package per operation. This file carries the response plumbing they share.
package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	apperrors "collections-dashboard/internal/common/errors"
	commonhttp "collections-dashboard/internal/common/http"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/metrics"
	"collections-dashboard/internal/common/observability"
)

// Responder writes results and failures for one operation and records them
// in metrics.
type Responder struct {
	operation string
	errors    *apperrors.ErrorHandler
	obs       *observability.Observability
}

func NewResponder(operation string, log logger.Logger, obs *observability.Observability) *Responder {
	return &Responder{
		operation: operation,
		errors:    apperrors.NewErrorHandler(log),
		obs:       obs,
	}
}

func (r *Responder) OK(w http.ResponseWriter, req *http.Request, status int, body interface{}) {
	r.obs.RecordRequest(req.Context(), r.operation, "success")
	commonhttp.WriteJSON(w, status, body)
}

func (r *Responder) Fail(w http.ResponseWriter, req *http.Request, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.HandlerErrors.WithLabelValues(r.operation, string(stdErr.Code)).Inc()
	r.obs.RecordRequest(req.Context(), r.operation, "error")
	r.errors.Handle(w, req, stdErr)
}

// IsTimeout reports whether err came from an expired handler deadline.
func IsTimeout(ctx context.Context, err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded)
}
