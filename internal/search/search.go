// Package search indexes applications in Elasticsearch and serves the
// free-text applicant lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/models"
)

var (
	ErrMissingQuery = errors.New("search query is required")
	ErrSearchFailed = errors.New("search request failed")
)

// SearchFields are the fields matched by a free-text query, with boosts.
var SearchFields = []string{
	"applicant_name^3",
	"id^2",
	"applicant_id^2",
	"branch_name",
	"dealer_name",
	"rm_name",
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Document is the indexed form of an application.
type Document struct {
	ID            string `json:"id"`
	ApplicantID   string `json:"applicant_id"`
	ApplicantName string `json:"applicant_name"`
	BranchName    string `json:"branch_name"`
	TeamLead      string `json:"team_lead"`
	RMName        string `json:"rm_name"`
	DealerName    string `json:"dealer_name"`
	LenderName    string `json:"lender_name"`
	DemandDate    string `json:"demand_date"`
	EmiMonth      string `json:"emi_month"`
}

func DocumentFromApplication(app models.Application) Document {
	return Document{
		ID:            app.ID,
		ApplicantID:   app.ApplicantID,
		ApplicantName: app.ApplicantName,
		BranchName:    app.BranchName,
		TeamLead:      app.TeamLead,
		RMName:        app.RMName,
		DealerName:    app.DealerName,
		LenderName:    app.LenderName,
		DemandDate:    app.DemandDate,
		EmiMonth:      filters.FormatEmiMonth(app.DemandDate),
	}
}

type Hit struct {
	Document
	Score float64 `json:"score"`
}

type Result struct {
	Total    int     `json:"total"`
	MaxScore float64 `json:"max_score"`
	Took     int     `json:"took"`
	Hits     []Hit   `json:"results"`
}

type Index struct {
	client *elasticsearch.Client
	name   string
	logger logger.Logger
}

func NewIndex(client *elasticsearch.Client, name string, log logger.Logger) *Index {
	return &Index{
		client: client,
		name:   name,
		logger: log.WithFields(map[string]interface{}{"index": name}),
	}
}

func (i *Index) Name() string { return i.name }

// BuildQuery returns the multi_match request body for q.
func BuildQuery(q string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q,
				"fields":    SearchFields,
				"type":      "best_fields",
				"fuzziness": "AUTO",
				"operator":  "and",
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"applicant_name.keyword": "asc"}},
	}
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a free-text query. limit is clamped to [1, MaxLimit].
func (i *Index) Search(ctx context.Context, q string, limit int) (*Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrMissingQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	body, err := json.Marshal(BuildQuery(q, limit))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.name),
		i.client.Search.WithBody(bytes.NewReader(body)),
		i.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, readError(res.Body, res.StatusCode))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	out := &Result{
		Total: parsed.Hits.Total.Value,
		Took:  parsed.Took,
		Hits:  make([]Hit, 0, len(parsed.Hits.Hits)),
	}
	if parsed.Hits.MaxScore != nil {
		out.MaxScore = *parsed.Hits.MaxScore
	}
	for _, h := range parsed.Hits.Hits {
		hit := Hit{Document: h.Source}
		if hit.ID == "" {
			hit.ID = h.ID
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}

	i.logger.Debug("search executed", map[string]interface{}{
		"query": q,
		"total": out.Total,
		"took":  out.Took,
	})
	return out, nil
}

func readError(r io.Reader, status int) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	if len(raw) == 0 {
		return http.StatusText(status)
	}
	return fmt.Sprintf("%d %s", status, strings.TrimSpace(string(raw)))
}
