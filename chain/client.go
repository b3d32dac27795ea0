package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mumair738/airdrop-checker-sub011/errors"
	"github.com/mumair738/airdrop-checker-sub011/pkg/retry"
)

// rpcRequest is the JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// rpcResponse is the JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCClient talks JSON-RPC 2.0 to a blockchain node over HTTP. Transient
// failures (network errors, 5xx, rate limits) are retried with exponential
// backoff; node-side rejections of the request itself are not.
type RPCClient struct {
	endpoint   string
	httpClient *http.Client
	retryCfg   retry.Config
	nextID     atomic.Uint64
}

// NewRPCClient creates a client for the node at endpoint.
func NewRPCClient(endpoint string, timeout time.Duration, retryCfg retry.Config) *RPCClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RPCClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retryCfg,
	}
}

// Call invokes method with params and unmarshals the result into result.
func (c *RPCClient) Call(ctx context.Context, method string, params any, result any) error {
	raw, err := retry.DoWithResult(ctx, c.retryCfg, func() (json.RawMessage, error) {
		return c.call(ctx, method, params)
	})
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return errors.WrapInvalid(err, "RPCClient", "Call",
			fmt.Sprintf("decode %s result", method))
	}
	return nil
}

// call performs a single JSON-RPC round trip.
func (c *RPCClient) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, retry.NonRetryable(errors.WrapInvalid(err, "RPCClient", "call", "encode request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retry.NonRetryable(errors.WrapInvalid(err, "RPCClient", "call", "build request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(err, "RPCClient", "call",
			fmt.Sprintf("%s request to node", method))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := errors.WrapTransient(errors.ErrUpstreamUnavailable, "RPCClient", "call",
			fmt.Sprintf("node returned status %d", resp.StatusCode))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.NonRetryable(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransient(err, "RPCClient", "call", "read response")
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, errors.WrapTransient(err, "RPCClient", "call", "decode response")
	}
	if rpcResp.Error != nil {
		// The node understood us and said no; retrying won't change its mind.
		return nil, retry.NonRetryable(errors.WrapInvalid(rpcResp.Error, "RPCClient", "call", method))
	}

	return rpcResp.Result, nil
}

// Balance returns the native-token balance of address as a 0x-prefixed hex
// wei string, the node's own encoding.
func (c *RPCClient) Balance(ctx context.Context, address string) (string, error) {
	var balance string
	if err := c.Call(ctx, "eth_getBalance", []any{address, "latest"}, &balance); err != nil {
		return "", err
	}
	return balance, nil
}

// ChainID returns the node's chain ID as a 0x-prefixed hex string.
func (c *RPCClient) ChainID(ctx context.Context) (string, error) {
	var id string
	if err := c.Call(ctx, "eth_chainId", []any{}, &id); err != nil {
		return "", err
	}
	return id, nil
}
