// internal/handlers/applications/search-applications/handler_test.go
package searchapplications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/search"
)

// ==========================
// Test Helper Functions
// ==========================

func createElasticsearchIndex(t *testing.T, status int, body string) *search.Index {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return search.NewIndex(client, "collection-applications", logger.NewTestLogger(t))
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string, int) (*search.Result, error) {
	return nil, errors.New("connection refused")
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	idx := createElasticsearchIndex(t, http.StatusOK, `{"took": 2, "hits": {"total": {"value": 1}, "max_score": 2.0,
		"hits": [{"_id": "app-1", "_score": 2.0, "_source": {"id": "app-1", "applicant_name": "Anil Kumar"}}]}}`)
	h := NewHandler(LoadConfig(), idx, observability.NewNoop(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Query: "anil", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "Anil Kumar", out.Hits[0].ApplicantName)
}

func TestHandler_Execute_Errors(t *testing.T) {
	disabled := NewHandler(LoadConfig(), nil, observability.NewNoop(), logger.NewNoOpLogger())
	_, err := disabled.Execute(context.Background(), &Input{Query: "anil"})
	assert.ErrorIs(t, err, ErrSearchDisabled)

	h := NewHandler(LoadConfig(), failingSearcher{}, observability.NewNoop(), logger.NewNoOpLogger())
	_, err = h.Execute(context.Background(), &Input{Query: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.Execute(context.Background(), &Input{Query: "anil"})
	assert.ErrorIs(t, err, ErrSearchQueryFailed)
}

// ==========================
// HTTP Tests
// ==========================

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		searcher   Searcher
		query      string
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{name: "disabled", searcher: nil, query: "?q=anil", wantStatus: http.StatusNotImplemented, wantCode: apperrors.ErrCodeSearchDisabled},
		{name: "missing q", searcher: failingSearcher{}, query: "", wantStatus: http.StatusBadRequest, wantCode: apperrors.ErrCodeValidationFailed},
		{name: "bad limit", searcher: failingSearcher{}, query: "?q=anil&limit=-4", wantStatus: http.StatusBadRequest, wantCode: apperrors.ErrCodeValidationFailed},
		{name: "backend failure", searcher: failingSearcher{}, query: "?q=anil", wantStatus: http.StatusBadGateway, wantCode: apperrors.ErrCodeSearchQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(LoadConfig(), tt.searcher, observability.NewNoop(), logger.NewTestLogger(t))
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/applications/search"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestHandler_Handle_Success(t *testing.T) {
	idx := createElasticsearchIndex(t, http.StatusOK, `{"took": 1, "hits": {"total": {"value": 0}, "hits": []}}`)
	h := NewHandler(LoadConfig(), idx, observability.NewNoop(), logger.NewTestLogger(t))

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/applications/search?q=nobody", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, []interface{}{}, body["results"])
}
