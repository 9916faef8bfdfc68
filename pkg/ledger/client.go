// Package ledger queries the ledger RPC for the data a relay caller needs
// around a submission: a recent blockhash before signing and the commitment
// status of plain transactions afterwards.
//
// Requests go through the egress pool like every relay call.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/sirupsen/logrus"

	"github.com/fortiblox/jito-relay/internal/types"
	"github.com/fortiblox/jito-relay/pkg/relay"
	"github.com/fortiblox/jito-relay/pkg/rpcpool"
)

var log = logrus.WithField("module", "ledger")

// MainnetURL is the public mainnet RPC endpoint.
const MainnetURL = "https://api.mainnet-beta.solana.com"

// Client is a ledger RPC client whose requests are spread over the pool.
type Client struct {
	url    string
	client *rpc.Client
}

// NewClient creates a ledger client for the RPC at url. Empty url selects
// mainnet.
func NewClient(url string, pool *rpcpool.Pool) (*Client, error) {
	if pool == nil {
		return nil, fmt.Errorf("ledger client requires a connection pool")
	}
	if url == "" {
		url = MainnetURL
	}

	rpcClient := jsonrpc.NewClientWithOpts(url, &jsonrpc.RPCClientOpts{
		HTTPClient: pool.HTTPClient(),
	})
	return &Client{
		url:    url,
		client: rpc.NewWithCustomRPCClient(rpcClient),
	}, nil
}

// URL returns the RPC endpoint the client talks to.
func (c *Client) URL() string {
	return c.url
}

// LatestBlockhash returns the latest finalized blockhash and the last block
// height at which transactions referencing it are still valid.
func (c *Client) LatestBlockhash(ctx context.Context) (types.Hash, uint64, error) {
	out, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return types.Hash{}, 0, fmt.Errorf("getLatestBlockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return types.Hash{}, 0, fmt.Errorf("%w: getLatestBlockhash: missing value", relay.ErrMalformedResponse)
	}
	return types.Hash(out.Value.Blockhash), out.Value.LastValidBlockHeight, nil
}

// SignatureStatus is the ledger view of one transaction.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	ConfirmationStatus string
	Err                json.RawMessage
}

// Tier returns the parsed confirmation status.
func (s *SignatureStatus) Tier() relay.ConfirmationTier {
	return relay.ParseConfirmationTier(s.ConfirmationStatus)
}

// ExecutionError returns the error payload, or nil when execution succeeded.
func (s *SignatureStatus) ExecutionError() json.RawMessage {
	return relay.ExecutionError(s.Err)
}

// GetSignatureStatuses returns the status of each signature. Entries are nil
// for signatures the ledger has not seen.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	sigs := make([]solana.Signature, len(signatures))
	for i, s := range signatures {
		sig, err := types.SignatureFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("signature %q: %w", s, err)
		}
		sigs[i] = solana.Signature(sig)
	}

	out, err := c.client.GetSignatureStatuses(ctx, false, sigs...)
	if err != nil {
		return nil, fmt.Errorf("getSignatureStatuses: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: getSignatureStatuses: missing value", relay.ErrMalformedResponse)
	}

	statuses := make([]*SignatureStatus, len(out.Value))
	for i, v := range out.Value {
		if v == nil {
			continue
		}
		errPayload, err := json.Marshal(v.Err)
		if err != nil {
			return nil, fmt.Errorf("%w: getSignatureStatuses: %v", relay.ErrMalformedResponse, err)
		}
		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: string(v.ConfirmationStatus),
			Err:                errPayload,
		}
	}

	log.WithField("signatures", len(signatures)).Trace("signature statuses fetched")
	return statuses, nil
}

// GetSignatureStatus returns the status of one signature, or nil when the
// ledger has not seen it.
func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	statuses, err := c.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, nil
	}
	return statuses[0], nil
}
