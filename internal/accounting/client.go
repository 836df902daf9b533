package accounting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AuthError indicates that authentication against the accounting backend
// has failed or expired. It is returned when a 401 response is received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SaleFilter controls filtering, sorting, and limits for sale listings.
// Zero values mean "not set" and are omitted from the request.
type SaleFilter struct {
	Status         string
	MinOutstanding float64
	DueBefore      time.Time
	CreatedFrom    time.Time
	CreatedTo      time.Time
	SortBy         string
	SortDesc       bool
	Limit          int
}

// Client is a thin HTTP client for the accounting backend REST API.
// It handles bearer token authentication, JSON unmarshaling, and
// automatic retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new accounting API client. The baseURL should be
// the root URL of the backend (e.g., https://books.example.com).
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
	}
}

// ListSales retrieves sales invoices matching the filter.
func (c *Client) ListSales(ctx context.Context, f SaleFilter) ([]Sale, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.MinOutstanding > 0 {
		q.Set("min_outstanding", strconv.FormatFloat(f.MinOutstanding, 'f', -1, 64))
	}
	if !f.DueBefore.IsZero() {
		q.Set("due_before", f.DueBefore.Format(time.RFC3339))
	}
	if !f.CreatedFrom.IsZero() {
		q.Set("created_from", f.CreatedFrom.Format(time.RFC3339))
	}
	if !f.CreatedTo.IsZero() {
		q.Set("created_to", f.CreatedTo.Format(time.RFC3339))
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
		order := "asc"
		if f.SortDesc {
			order = "desc"
		}
		q.Set("order", order)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var resp SalesResponse
	if err := c.get(ctx, "/api/sales", q, &resp); err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("listing sales: backend returned success=false")
	}
	return resp.Data, nil
}

// ListRecentPayments retrieves the most recent payments, newest first.
func (c *Client) ListRecentPayments(ctx context.Context, limit int) ([]Payment, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	q.Set("sort_by", "created_at")
	q.Set("order", "desc")

	var resp PaymentsResponse
	if err := c.get(ctx, "/api/payments", q, &resp); err != nil {
		return nil, fmt.Errorf("listing recent payments: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("listing recent payments: backend returned success=false")
	}
	return resp.Data, nil
}

// ListCustomers retrieves a page of customer records.
func (c *Client) ListCustomers(ctx context.Context, page, pageSize int) ([]Customer, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var resp CustomersResponse
	if err := c.get(ctx, "/api/customers", q, &resp); err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("listing customers: backend returned success=false")
	}
	return resp.Data, nil
}

// get is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON deserialization.
func (c *Client) get(
	ctx context.Context,
	path string,
	query url.Values,
	result interface{},
) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request GET %s: %w", path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on GET %s", path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				Message: fmt.Sprintf("check the API token for %s", c.baseURL),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var apiErr ErrorResponse
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
				return fmt.Errorf(
					"backend error (%d) on GET %s: %s",
					resp.StatusCode, path, apiErr.Message,
				)
			}
			return fmt.Errorf(
				"unexpected status %d on GET %s: %s",
				resp.StatusCode, path, string(respBody),
			)
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from GET %s: %w", path, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
