// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"collections-dashboard/internal/models"
)

const mapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "applicant_id":   {"type": "keyword"},
      "applicant_name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "branch_name":    {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "team_lead":      {"type": "keyword"},
      "rm_name":        {"type": "text"},
      "dealer_name":    {"type": "text"},
      "lender_name":    {"type": "keyword"},
      "demand_date":    {"type": "date", "format": "yyyy-MM-dd||strict_date_optional_time"},
      "emi_month":      {"type": "keyword"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.name}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index: unexpected status %d", res.StatusCode)
	}

	res, err = i.client.Indices.Create(i.name,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index: %s", readError(res.Body, res.StatusCode))
	}

	i.logger.Info("search index created", nil)
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexApplications upserts apps in one bulk request and returns how many
// documents were accepted.
func (i *Index) IndexApplications(ctx context.Context, apps []models.Application) (int, error) {
	if len(apps) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, app := range apps {
		meta := map[string]interface{}{"index": map[string]interface{}{"_id": app.ID}}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(DocumentFromApplication(app)); err != nil {
			return 0, fmt.Errorf("encode bulk document: %w", err)
		}
	}

	res, err := i.client.Bulk(&buf,
		i.client.Bulk.WithContext(ctx),
		i.client.Bulk.WithIndex(i.name),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index: %s", readError(res.Body, res.StatusCode))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	indexed := len(apps)
	if parsed.Errors {
		for _, item := range parsed.Items {
			for _, result := range item {
				if result.Error == nil {
					continue
				}
				indexed--
				i.logger.Warn("document rejected", map[string]interface{}{
					"id":     result.ID,
					"status": result.Status,
					"type":   result.Error.Type,
					"reason": result.Error.Reason,
				})
			}
		}
	}
	return indexed, nil
}
