// Package servicenow is a minimal client for the ServiceNow Table API.
package servicenow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"snow-search/internal/common/config"
	commonhttp "snow-search/internal/common/http"
	"snow-search/internal/common/logger"
	"snow-search/internal/common/metrics"
	"snow-search/internal/common/observability"
)

// ErrDecode is returned when a 200 response is not a Table API document.
var ErrDecode = errors.New("decode table response")

// Record is one row as returned by the store. Field names and values are
// passed through untouched.
type Record = map[string]interface{}

// RemoteError is any non-200 answer. Body is the raw response body.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("servicenow returned status %d: %s", e.StatusCode, e.Body)
}

type tableResponse struct {
	Result []Record `json:"result"`
}

// Client issues GET /api/now/table/<table> requests with basic auth.
type Client struct {
	baseURL  string
	username string
	password string
	http     *commonhttp.Client
	logger   logger.Logger
	obs      *observability.Observability
}

// NewClient validates cfg and builds a client. obs may be nil.
func NewClient(cfg config.ServiceNowConfig, log logger.Logger, obs *observability.Observability, opts ...commonhttp.Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		baseURL:  cfg.URL(),
		username: cfg.Username,
		password: cfg.Password,
		http:     commonhttp.NewClient(config.GetDuration(cfg.Timeout), opts...),
		logger:   log,
		obs:      obs,
	}, nil
}

// Query fetches rows from table. The response body is always closed; a
// non-200 status yields *RemoteError and nothing is retried.
func (c *Client) Query(ctx context.Context, table string, params url.Values) ([]Record, error) {
	ctx, span := c.obs.StartSpan(ctx, "servicenow.query", attribute.String("table", table))
	defer span.End()

	endpoint := fmt.Sprintf("%s/api/now/table/%s", c.baseURL, url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	c.logger.Info("querying table", map[string]interface{}{
		"table":  table,
		"url":    endpoint,
		"params": params.Encode(),
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(table, metrics.TransportErrorStatus).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)

	metrics.RemoteRequests.WithLabelValues(table, strconv.Itoa(resp.StatusCode)).Inc()
	c.obs.RecordRemoteCall(ctx, table, resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	c.logger.Info("table response", map[string]interface{}{
		"table":      table,
		"status":     resp.StatusCode,
		"durationMs": elapsed.Milliseconds(),
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("read %s response: %w", table, err)
	}

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded tableResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if decoded.Result == nil {
		decoded.Result = []Record{}
	}

	c.logger.Debug("records received", map[string]interface{}{
		"table": table,
		"count": len(decoded.Result),
	})
	return decoded.Result, nil
}
