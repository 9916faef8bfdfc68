package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortiblox/jito-relay/pkg/confirm"
)

const finalSig = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"

// mockEngine answers every method with a fixed result.
func mockEngine(t *testing.T, results map[string]interface{}) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func statusValue(entry map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value":   []interface{}{entry},
	}
}

func run(serverURL string, args ...string) error {
	base := []string{
		"jitorelay",
		"--block-engine-url", serverURL,
		"--rpc-url", serverURL,
		"--inflight-interval", "1ms",
		"--finality-interval", "1ms",
		"--inflight-attempts", "3",
		"--finality-attempts", "3",
	}
	return newApp().Run(append(base, args...))
}

func TestTipAccounts(t *testing.T) {
	server := mockEngine(t, map[string]interface{}{
		"getTipAccounts": []string{"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"},
	})

	require.NoError(t, run(server.URL, "tip-accounts"))
	require.NoError(t, run(server.URL, "tip-accounts", "--random"))
}

func TestTrackBundleFinalized(t *testing.T) {
	server := mockEngine(t, map[string]interface{}{
		"getInflightBundleStatuses": statusValue(map[string]interface{}{
			"bundle_id": "abc123", "status": "Landed", "landed_slot": 10,
		}),
		"getBundleStatuses": statusValue(map[string]interface{}{
			"bundle_id":           "abc123",
			"transactions":        []string{finalSig},
			"slot":                10,
			"confirmation_status": "finalized",
			"err":                 map[string]interface{}{"Ok": nil},
		}),
	})

	require.NoError(t, run(server.URL, "track-bundle", "abc123"))
}

func TestTrackBundleFailed(t *testing.T) {
	server := mockEngine(t, map[string]interface{}{
		"getInflightBundleStatuses": statusValue(map[string]interface{}{
			"bundle_id": "abc123", "status": "Failed", "landed_slot": nil,
		}),
	})

	err := run(server.URL, "track-bundle", "abc123")
	assert.ErrorIs(t, err, confirm.ErrBundleFailed)
}

func TestTrackBundleExhausted(t *testing.T) {
	server := mockEngine(t, map[string]interface{}{
		"getInflightBundleStatuses": statusValue(map[string]interface{}{
			"bundle_id": "abc123", "status": "Pending", "landed_slot": nil,
		}),
	})

	err := run(server.URL, "track-bundle", "abc123")
	assert.ErrorIs(t, err, confirm.ErrExhausted)
}

func TestArgumentValidation(t *testing.T) {
	assert.Error(t, run("http://127.0.0.1:0", "send-bundle"))
	assert.Error(t, run("http://127.0.0.1:0", "send-txn"))
	assert.Error(t, run("http://127.0.0.1:0", "track-bundle"))
	assert.Error(t, run("http://127.0.0.1:0", "--algorithm", "weighted", "tip-accounts"))
}
