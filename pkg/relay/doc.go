// Package relay is a JSON-RPC client for the Jito block engine.
//
// The block engine accepts signed transactions and bundles (up to five
// transactions executed atomically and in order) and reports their progress
// through two status views: the in-flight view tracked by the engine itself
// and the bundle status view backed by the ledger.
//
// # Usage
//
//	pool, err := rpcpool.New(rpcpool.Config{LocalAddrs: addrs})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := relay.NewClient(relay.MainnetURL, pool)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tip, err := client.GetRandomTipAccount(ctx)
//	// ... build and sign transactions paying tip ...
//	bundleID, err := client.SendBundle(ctx, txs, relay.EncodingBase64)
//
// # Connection handling
//
// Every call acquires one endpoint from the pool for its single request. There
// is no affinity between calls, so consecutive calls may leave from different
// egress addresses.
//
// # Error Handling
//
// Calls never retry on their own. Failures are reported as:
//
//   - *HTTPError: the engine answered with a non-200 status and no error object
//   - *RPCError: the JSON-RPC envelope carried an error object
//   - ErrMalformedResponse: the result was missing or had an unexpected shape
//   - wrapped net/http errors for transport failures
//
// IsRateLimited recognizes throttling in either form. Use IsRetryable to
// decide whether a failed status query may be repeated.
package relay
