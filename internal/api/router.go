// Package api wires the operation handlers into the HTTP router.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"collections-dashboard/internal/common/logger"
)

// Operation is implemented by every handler package.
type Operation interface {
	Handle(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	ListApplications   Operation
	FilterOptions      Operation
	SearchApplications Operation
	CollectionSummary  Operation
	UpdateFieldStatus  Operation
	ApprovePayment     Operation
	RecordPtpDate      Operation
	LogContactCall     Operation
	ListComments       Operation
	AddComment         Operation
	ExportCollections  Operation
	SavedFilters       Operation
	RecentActivity     Operation
}

type Options struct {
	RateLimit string
}

type route struct {
	method  string
	path    string
	handler Operation
}

func (h Handlers) routes() []route {
	return []route{
		{http.MethodGet, "/applications", h.ListApplications},
		{http.MethodGet, "/applications/filter-options", h.FilterOptions},
		{http.MethodGet, "/applications/search", h.SearchApplications},
		{http.MethodPost, "/applications/{id}/field-status", h.UpdateFieldStatus},
		{http.MethodPost, "/applications/{id}/payment-approval", h.ApprovePayment},
		{http.MethodPost, "/applications/{id}/ptp-date", h.RecordPtpDate},
		{http.MethodPost, "/applications/{id}/calls", h.LogContactCall},
		{http.MethodGet, "/applications/{id}/comments", h.ListComments},
		{http.MethodPost, "/applications/{id}/comments", h.AddComment},
		{http.MethodGet, "/applications/{id}/activity", h.RecentActivity},
		{http.MethodGet, "/activity", h.RecentActivity},
		{http.MethodGet, "/collections/summary", h.CollectionSummary},
		{http.MethodGet, "/reports/collections.xlsx", h.ExportCollections},
		{http.MethodGet, "/users/{userId}/filters", h.SavedFilters},
		{http.MethodPut, "/users/{userId}/filters", h.SavedFilters},
		{http.MethodDelete, "/users/{userId}/filters", h.SavedFilters},
	}
}

// NewRouter mounts the API under /api/v1. Handlers left nil are not routed.
func NewRouter(h Handlers, opts Options, log logger.Logger) (*mux.Router, error) {
	router := mux.NewRouter()
	router.Use(WithRequestID, Instrument(log))

	v1 := router.PathPrefix("/api/v1").Subrouter()
	if opts.RateLimit != "" {
		limit, err := RateLimit(opts.RateLimit)
		if err != nil {
			return nil, err
		}
		v1.Use(limit)
	}

	for _, rt := range h.routes() {
		if rt.handler == nil {
			continue
		}
		v1.HandleFunc(rt.path, rt.handler.Handle).Methods(rt.method)
	}
	return router, nil
}
