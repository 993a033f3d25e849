package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"cryptotracker/internal/market"

	"golang.org/x/time/rate"
	"resty.dev/v3"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	marketsPath    = "/coins/markets"
)

// RESTClient talks to the CoinGecko public API. Requests are spaced by a
// client-side limiter and never retried.
type RESTClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	params  MarketsParams
}

// NewRESTClient creates a client for baseURL. A requestsPerMin of zero or less
// disables client-side limiting.
func NewRESTClient(baseURL string, timeout time.Duration, requestsPerMin float64) *RESTClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	limit := rate.Inf
	if requestsPerMin > 0 {
		limit = rate.Limit(requestsPerMin / 60.0)
	}

	return &RESTClient{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		params:  DefaultMarketsParams(),
	}
}

// WithParams replaces the markets query used by FetchTable.
func (c *RESTClient) WithParams(p MarketsParams) *RESTClient {
	c.params = p
	return c
}

// Params returns the markets query used by FetchTable.
func (c *RESTClient) Params() MarketsParams {
	return c.params
}

func (c *RESTClient) Close() error {
	return c.client.Close()
}

// FetchTable fetches one page of markets with the configured parameters.
func (c *RESTClient) FetchTable(ctx context.Context) (market.Table, error) {
	return c.GetMarkets(ctx, c.params)
}

// GetMarkets fetches one page of /coins/markets and projects it into a table
// in response order. Transport failures are returned as *FetchError, shape
// mismatches as *DecodeError.
func (c *RESTClient) GetMarkets(ctx context.Context, p MarketsParams) (market.Table, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newTimeoutError(err)
	}

	var raw json.RawMessage
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(p.query()).
		SetResult(&raw).
		Get(marketsPath)

	if err != nil {
		if resp != nil && resp.IsSuccess() {
			return nil, &DecodeError{Index: -1, Reason: "unreadable body", Cause: err}
		}
		if isTimeout(err) {
			return nil, newTimeoutError(err)
		}
		return nil, newNetworkError(err)
	}

	if !resp.IsSuccess() {
		return nil, classifyStatus(resp.StatusCode(), resp.String())
	}

	body := []byte(raw)
	if len(body) == 0 {
		// not parsed into raw when the server omits a JSON content type
		body = []byte(resp.String())
	}
	return decodeMarkets(body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
