package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DevnetURL is the public development endpoint the ledger program is deployed
// to. Production deployments supply their own endpoint via config.
const DevnetURL = "https://api.devnet.solana.com"

// Client talks JSON-RPC to a ledger network node.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the given RPC endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// call performs a single JSON-RPC request and unmarshals the result.
// Network-level failures come back as *TransportError, node-reported
// failures as *RPCError.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("method", method).Str("id", req.ID).Msg("rpc call")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Op:  method,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var env rpcResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("decode response: %w", err)}
	}

	if env.Error != nil {
		return env.Error
	}

	if result != nil {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return &TransportError{Op: method, Err: fmt.Errorf("decode result: %w", err)}
		}
	}

	return nil
}

type accountInfoResult struct {
	Value *struct {
		Data  []string `json:"data"` // [payload, encoding]
		Owner string   `json:"owner"`
	} `json:"value"`
}

// AccountData fetches the raw data bytes of an account. Returns ErrNotFound
// if the account does not exist.
func (c *Client) AccountData(ctx context.Context, addr Address) ([]byte, error) {
	var res accountInfoResult
	params := []any{addr.String(), map[string]any{"encoding": "base64"}}
	if err := c.call(ctx, "getAccountInfo", params, &res); err != nil {
		return nil, err
	}

	if res.Value == nil {
		return nil, fmt.Errorf("account %s: %w", addr, ErrNotFound)
	}

	if len(res.Value.Data) == 0 {
		return nil, nil
	}
	if len(res.Value.Data) == 2 && res.Value.Data[1] != "base64" {
		return nil, fmt.Errorf("account %s: unexpected encoding %q", addr, res.Value.Data[1])
	}

	data, err := base64.StdEncoding.DecodeString(res.Value.Data[0])
	if err != nil {
		return nil, fmt.Errorf("account %s: decode data: %w", addr, err)
	}
	return data, nil
}

// CurrentSlot returns the node's current slot.
func (c *Client) CurrentSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.call(ctx, "getSlot", nil, &slot); err != nil {
		return 0, err
	}
	return slot, nil
}

// BlockTime returns the estimated production time of a slot in unix seconds.
func (c *Client) BlockTime(ctx context.Context, slot uint64) (int64, error) {
	var ts *int64
	if err := c.call(ctx, "getBlockTime", []any{slot}, &ts); err != nil {
		return 0, err
	}
	if ts == nil {
		return 0, fmt.Errorf("block time unavailable for slot %d", slot)
	}
	return *ts, nil
}

// CurrentBlockTime returns the network's current block time. Records are
// stamped with this value rather than the client clock, so ordering follows
// the network's own notion of time.
func (c *Client) CurrentBlockTime(ctx context.Context) (int64, error) {
	slot, err := c.CurrentSlot(ctx)
	if err != nil {
		return 0, fmt.Errorf("current block time: %w", err)
	}
	ts, err := c.BlockTime(ctx, slot)
	if err != nil {
		return 0, fmt.Errorf("current block time: %w", err)
	}
	return ts, nil
}

// SendTransaction submits a signed transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, raw []byte) (string, error) {
	var sig string
	params := []any{
		base64.StdEncoding.EncodeToString(raw),
		map[string]any{"encoding": "base64"},
	}
	if err := c.call(ctx, "sendTransaction", params, &sig); err != nil {
		return "", err
	}
	c.log.Debug().Str("signature", sig).Msg("transaction sent")
	return sig, nil
}

// SignatureStatus describes what the network currently knows about a
// submitted transaction.
type SignatureStatus struct {
	Known     bool
	Confirmed bool
	Err       string // non-empty when the program rejected the transaction
}

type signatureStatusesResult struct {
	Value []*struct {
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	} `json:"value"`
}

// TxStatus queries the confirmation status of a transaction signature.
func (c *Client) TxStatus(ctx context.Context, signature string) (SignatureStatus, error) {
	var res signatureStatusesResult
	params := []any{[]string{signature}}
	if err := c.call(ctx, "getSignatureStatuses", params, &res); err != nil {
		return SignatureStatus{}, err
	}

	if len(res.Value) == 0 || res.Value[0] == nil {
		return SignatureStatus{}, nil
	}

	st := SignatureStatus{Known: true}
	v := res.Value[0]
	if len(v.Err) > 0 && string(v.Err) != "null" {
		st.Err = string(v.Err)
		return st, nil
	}
	switch v.ConfirmationStatus {
	case "confirmed", "finalized":
		st.Confirmed = true
	}
	return st, nil
}
