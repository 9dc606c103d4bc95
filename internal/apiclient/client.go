// Package apiclient is a typed client for the collections REST API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	apperrors "collections-dashboard/internal/common/errors"
	commonhttp "collections-dashboard/internal/common/http"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/models"
)

const (
	applicationsPath = "/api/v1/applications"
	summaryPath      = "/api/v1/collections/summary"
)

var ErrRequestFailed = errors.New("REQUEST_FAILED")

type ListParams struct {
	EmiMonth string
	Offset   int
	Limit    int
	UserID   string
	Refresh  bool
	Filters  filters.State
}

type ListResponse struct {
	Total   int                     `json:"total"`
	Results []models.ApplicationRow `json:"results"`

	ActiveFilters int `json:"-"`
}

type Client struct {
	http *commonhttp.Client
}

// New returns a client for the API at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{http: commonhttp.NewClient(timeout).WithBaseURL(baseURL)}
}

// WithHeader sets a header sent on every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.http.WithHeader(key, value)
	return c
}

func (c *Client) ListApplications(ctx context.Context, params ListParams) (*ListResponse, error) {
	query := url.Values{}
	query.Set("emi_month", params.EmiMonth)
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.UserID != "" {
		query.Set("user_id", params.UserID)
	}
	if params.Refresh {
		query.Set("refresh", "true")
	}
	params.Filters.AddTo(query)

	var out ListResponse
	header, err := c.http.GetJSON(ctx, applicationsPath, query, &out)
	if err != nil {
		return nil, decodeError(err)
	}
	if n, convErr := strconv.Atoi(header.Get("X-Active-Filters")); convErr == nil {
		out.ActiveFilters = n
	}
	return &out, nil
}

func (c *Client) Summary(ctx context.Context, emiMonth string) (*models.CollectionSummary, error) {
	var out models.CollectionSummary
	if _, err := c.http.GetJSON(ctx, summaryPath, url.Values{"emi_month": {emiMonth}}, &out); err != nil {
		return nil, decodeError(err)
	}
	return &out, nil
}

// decodeError turns an error envelope into its *StandardError. Bodies that
// are not an envelope keep the *StatusError.
func decodeError(err error) error {
	var statusErr *commonhttp.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	var body apperrors.ErrorResponse
	if json.Unmarshal(statusErr.Body, &body) != nil || body.Error == nil || body.Error.Code == "" {
		return statusErr
	}
	return body.Error
}
