package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mumair738/airdrop-checker-sub011/errors"
	"github.com/mumair738/airdrop-checker-sub011/pkg/retry"
)

// IndexerClient talks to the third-party indexing service that aggregates
// airdrop eligibility, token balances and prices. Responses are returned as
// raw JSON so handlers can cache and serve them without re-encoding.
type IndexerClient struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewIndexerClient creates a client for the indexer at baseURL.
func NewIndexerClient(baseURL string, timeout time.Duration, retryCfg retry.Config) *IndexerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IndexerClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retryCfg,
	}
}

// AirdropEligibility returns the eligibility document for address.
func (c *IndexerClient) AirdropEligibility(ctx context.Context, address string) (json.RawMessage, error) {
	return c.get(ctx, "/v1/airdrops/eligibility", url.Values{"address": {address}})
}

// TokenBalances returns the indexed token balance list for address.
func (c *IndexerClient) TokenBalances(ctx context.Context, address string) (json.RawMessage, error) {
	return c.get(ctx, "/v1/tokens/balances", url.Values{"address": {address}})
}

// TokenPrice returns the current price document for a token symbol.
func (c *IndexerClient) TokenPrice(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.get(ctx, "/v1/tokens/price", url.Values{"symbol": {symbol}})
}

// GasPrice returns the indexer's current gas price document.
func (c *IndexerClient) GasPrice(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/v1/gas/price", nil)
}

// get performs a GET with retry and returns the response body as raw JSON.
func (c *IndexerClient) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	return retry.DoWithResult(ctx, c.retryCfg, func() (json.RawMessage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, retry.NonRetryable(errors.WrapInvalid(err, "IndexerClient", "get", "build request"))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.WrapTransient(err, "IndexerClient", "get", path)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			// fall through to body read
		case resp.StatusCode == http.StatusNotFound:
			return nil, retry.NonRetryable(errors.Wrap(errors.ErrNotFound, "IndexerClient", "get", path))
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errors.WrapTransient(errors.ErrRateLimited, "IndexerClient", "get", path)
		case resp.StatusCode >= 500:
			return nil, errors.WrapTransient(errors.ErrUpstreamUnavailable, "IndexerClient", "get",
				fmt.Sprintf("%s returned status %d", path, resp.StatusCode))
		default:
			return nil, retry.NonRetryable(errors.WrapInvalid(errors.ErrInvalidData, "IndexerClient", "get",
				fmt.Sprintf("%s returned status %d", path, resp.StatusCode)))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.WrapTransient(err, "IndexerClient", "get", "read response")
		}
		if !json.Valid(body) {
			return nil, errors.WrapTransient(errors.ErrInvalidData, "IndexerClient", "get",
				fmt.Sprintf("%s returned malformed JSON", path))
		}
		return json.RawMessage(body), nil
	})
}
