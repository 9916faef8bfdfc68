package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fortiblox/jito-relay/internal/types"
	"github.com/fortiblox/jito-relay/pkg/rpcpool"
)

var log = logrus.WithField("module", "relay")

// Block engine endpoints.
const (
	MainnetURL   = "https://mainnet.block-engine.jito.wtf/api/v1"
	AmsterdamURL = "https://amsterdam.mainnet.block-engine.jito.wtf/api/v1"
	FrankfurtURL = "https://frankfurt.mainnet.block-engine.jito.wtf/api/v1"
	NewYorkURL   = "https://ny.mainnet.block-engine.jito.wtf/api/v1"
	TokyoURL     = "https://tokyo.mainnet.block-engine.jito.wtf/api/v1"
	SaltLakeURL  = "https://slc.mainnet.block-engine.jito.wtf/api/v1"
)

// Request paths below the base URL.
const (
	bundlesPath          = "/bundles"
	inflightStatusesPath = "/getInflightBundleStatuses"
	transactionsPath     = "/transactions"
)

// MaxBundleTransactions is the largest bundle the engine accepts.
const MaxBundleTransactions = 5

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 4 * 1024 * 1024

// authHeader carries the UUID of rate-limit approved callers.
const authHeader = "x-jito-auth"

// Pool hands out the endpoint used for a single request.
type Pool interface {
	Acquire() *rpcpool.Endpoint
}

// Option configures a Client.
type Option func(*Client) error

// WithAuthUUID authenticates requests with a rate-limit approved UUID.
func WithAuthUUID(id string) Option {
	return func(c *Client) error {
		if id == "" {
			return nil
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid auth uuid: %w", err)
		}
		c.authUUID = parsed.String()
		return nil
	}
}

// Client issues JSON-RPC calls to the block engine.
type Client struct {
	baseURL  string
	pool     Pool
	authUUID string
}

// NewClient creates a client for the engine at baseURL.
func NewClient(baseURL string, pool Pool, opts ...Option) (*Client, error) {
	if pool == nil {
		return nil, fmt.Errorf("relay client requires a connection pool")
	}
	if baseURL == "" {
		baseURL = MainnetURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		pool:    pool,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the engine URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC error.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// call makes a JSON-RPC call on one endpoint of the pool.
func (c *Client) call(ctx context.Context, path, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authUUID != "" {
		httpReq.Header.Set(authHeader, c.authUUID)
	}

	endpoint := c.pool.Acquire()
	log.WithFields(logrus.Fields{
		"method": method,
		"egress": endpoint.Label(),
	}).Trace("relay request")

	resp, err := endpoint.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if resp.StatusCode != http.StatusOK {
		// Rate limit answers still carry a JSON-RPC error object.
		if json.Unmarshal(respBody, &rpcResp) == nil && rpcResp.Error != nil {
			return &RPCError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, method, err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}

	if isNull(rpcResp.Result) {
		return fmt.Errorf("%w: %s: missing result", ErrMalformedResponse, method)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, method, err)
		}
	}
	return nil
}

// SendBundle submits up to MaxBundleTransactions signed, encoded transactions
// for atomic execution and returns the bundle identifier.
func (c *Client) SendBundle(ctx context.Context, txs []string, encoding Encoding) (string, error) {
	if len(txs) == 0 {
		return "", ErrEmptyBundle
	}
	if len(txs) > MaxBundleTransactions {
		return "", fmt.Errorf("%w: %d > %d", ErrBundleTooLarge, len(txs), MaxBundleTransactions)
	}
	if encoding == "" {
		encoding = EncodingBase64
	}

	params := []interface{}{
		txs,
		map[string]interface{}{
			"encoding": encoding,
		},
	}

	var bundleID string
	if err := c.call(ctx, bundlesPath, "sendBundle", params, &bundleID); err != nil {
		return "", err
	}
	if bundleID == "" {
		return "", fmt.Errorf("%w: sendBundle: empty bundle id", ErrMalformedResponse)
	}

	log.WithFields(logrus.Fields{
		"bundle": bundleID,
		"txs":    len(txs),
	}).Debug("bundle submitted")
	return bundleID, nil
}

// SendTransactionOpts controls single transaction submission.
type SendTransactionOpts struct {
	// SkipPreflight disables simulation before forwarding.
	SkipPreflight bool

	// BundleOnly wraps the transaction in a single-transaction bundle so it
	// is only executed with its tip.
	BundleOnly bool

	// Encoding of the transaction. Empty selects base64.
	Encoding Encoding
}

// SendTransaction submits one signed, encoded transaction and returns its
// signature.
func (c *Client) SendTransaction(ctx context.Context, tx string, opts SendTransactionOpts) (string, error) {
	encoding := opts.Encoding
	if encoding == "" {
		encoding = EncodingBase64
	}

	params := []interface{}{
		tx,
		map[string]interface{}{
			"encoding":      encoding,
			"skipPreflight": opts.SkipPreflight,
		},
	}

	path := transactionsPath
	if opts.BundleOnly {
		path += "?bundleOnly=true"
	}

	var signature string
	if err := c.call(ctx, path, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	if signature == "" {
		return "", fmt.Errorf("%w: sendTransaction: empty signature", ErrMalformedResponse)
	}

	log.WithField("signature", signature).Debug("transaction submitted")
	return signature, nil
}

// GetTipAccounts returns the accounts that accept bundle tips.
func (c *Client) GetTipAccounts(ctx context.Context) ([]types.Pubkey, error) {
	var raw []string
	if err := c.call(ctx, bundlesPath, "getTipAccounts", nil, &raw); err != nil {
		return nil, err
	}

	accounts := make([]types.Pubkey, 0, len(raw))
	for _, s := range raw {
		pubkey, err := types.PubkeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("%w: tip account %q: %v", ErrMalformedResponse, s, err)
		}
		accounts = append(accounts, pubkey)
	}
	return accounts, nil
}

// GetRandomTipAccount returns one tip account chosen uniformly at random.
func (c *Client) GetRandomTipAccount(ctx context.Context) (types.Pubkey, error) {
	accounts, err := c.GetTipAccounts(ctx)
	if err != nil {
		return types.Pubkey{}, err
	}
	if len(accounts) == 0 {
		return types.Pubkey{}, ErrNoTipAccounts
	}
	return accounts[rand.Intn(len(accounts))], nil
}

// contextValue is the value wrapper returned by status queries.
type contextValue struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value json.RawMessage `json:"value"`
}

// statusValues decodes the value array of a status response.
func (c *Client) statusValues(ctx context.Context, path, method string, ids []string, out interface{}) error {
	var result contextValue
	if err := c.call(ctx, path, method, []interface{}{ids}, &result); err != nil {
		return err
	}
	if isNull(result.Value) {
		return fmt.Errorf("%w: %s: missing value", ErrMalformedResponse, method)
	}
	if err := json.Unmarshal(result.Value, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, method, err)
	}
	return nil
}

// GetBundleStatuses returns the ledger status of each bundle. Entries are nil
// for bundles the engine does not know about; the slice may also be shorter
// than ids.
func (c *Client) GetBundleStatuses(ctx context.Context, ids []string) ([]*BundleStatus, error) {
	var statuses []*BundleStatus
	if err := c.statusValues(ctx, bundlesPath, "getBundleStatuses", ids, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// GetInflightBundleStatuses returns the engine's own view of recently
// submitted bundles. Entries are nil for unknown bundles.
func (c *Client) GetInflightBundleStatuses(ctx context.Context, ids []string) ([]*InflightStatus, error) {
	var statuses []*InflightStatus
	if err := c.statusValues(ctx, inflightStatusesPath, "getInflightBundleStatuses", ids, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}
