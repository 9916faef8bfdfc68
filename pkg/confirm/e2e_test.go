package confirm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortiblox/jito-relay/pkg/relay"
	"github.com/fortiblox/jito-relay/pkg/rpcpool"
)

// scriptedEngine is a mock block engine that answers status queries from
// per-method scripts, repeating the last answer once a script runs out.
type scriptedEngine struct {
	mu       sync.Mutex
	scripts  map[string][]interface{}
	calls    map[string]int
	requests int
}

func (e *scriptedEngine) answer(method string) interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests++
	script := e.scripts[method]
	i := e.calls[method]
	e.calls[method]++
	if i >= len(script) {
		i = len(script) - 1
	}
	return script[i]
}

func (e *scriptedEngine) requestCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests
}

func newScriptedEngine(t *testing.T, scripts map[string][]interface{}) (*scriptedEngine, *httptest.Server) {
	engine := &scriptedEngine{scripts: scripts, calls: map[string]int{}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  engine.answer(req.Method),
		})
	}))
	t.Cleanup(server.Close)
	return engine, server
}

func inflightValue(status string) interface{} {
	entry := map[string]interface{}{"bundle_id": "abc123", "status": status, "landed_slot": nil}
	if status == "Landed" {
		entry["landed_slot"] = 280999025
	}
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 280999028},
		"value":   []interface{}{entry},
	}
}

func bundleValue(tier string) interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 242806119},
		"value": []interface{}{map[string]interface{}{
			"bundle_id":           "abc123",
			"transactions":        []string{primarySig},
			"slot":                242804011,
			"confirmation_status": tier,
			"err":                 map[string]interface{}{"Ok": nil},
		}},
	}
}

func TestSubmitAndTrackBundle(t *testing.T) {
	engine, server := newScriptedEngine(t, map[string][]interface{}{
		"sendBundle":                {"abc123"},
		"getInflightBundleStatuses": {inflightValue("Pending"), inflightValue("Landed")},
		"getBundleStatuses":         {bundleValue("confirmed"), bundleValue("finalized")},
	})

	pool, err := rpcpool.New(rpcpool.Config{})
	require.NoError(t, err)
	defer pool.Close()

	client, err := relay.NewClient(server.URL, pool)
	require.NoError(t, err)

	p, _ := newTestPoller(client, nil, Config{})
	ctx := context.Background()

	bundleID, err := client.SendBundle(ctx, []string{"dHgx", "dHgy"}, relay.EncodingBase64)
	require.NoError(t, err)
	require.Equal(t, "abc123", bundleID)

	outcome, err := p.WaitForBundle(ctx, bundleID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.Kind)
	assert.Equal(t, PhaseFinality, outcome.Phase)
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, primarySig, outcome.Signature)
	assert.Equal(t, uint64(242804011), outcome.Slot)

	// One submission plus two queries per phase.
	assert.Equal(t, 5, engine.requestCount())
	assert.Equal(t, uint64(5), pool.Endpoints()[0].Selections)

	// Re-polling a finalized bundle only costs the requests it makes.
	before := pool.Endpoints()[0].Selections
	again, err := p.WaitForBundle(ctx, bundleID)
	require.NoError(t, err)
	assert.Equal(t, primarySig, again.Signature)
	assert.Equal(t, 1, again.Attempts)
	assert.Equal(t, 7, engine.requestCount())
	assert.Equal(t, before+2, pool.Endpoints()[0].Selections)
}

func TestConcurrentSessionsShareRotation(t *testing.T) {
	_, server := newScriptedEngine(t, map[string][]interface{}{
		"getInflightBundleStatuses": {inflightValue("Landed")},
		"getBundleStatuses":         {bundleValue("finalized")},
	})

	pool, err := rpcpool.New(rpcpool.Config{})
	require.NoError(t, err)
	defer pool.Close()

	client, err := relay.NewClient(server.URL, pool)
	require.NoError(t, err)
	p := New(client, nil, Config{Inflight: PhaseConfig{Interval: time.Millisecond}, Finality: PhaseConfig{Interval: time.Millisecond}})

	const sessions = 8
	var wg sync.WaitGroup
	results := make([]Outcome, sessions)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.WaitForBundle(context.Background(), "abc123")
		}(i)
	}
	wg.Wait()

	for _, outcome := range results {
		assert.True(t, outcome.Succeeded())
		assert.Equal(t, primarySig, outcome.Signature)
	}
	assert.Equal(t, uint64(2*sessions), pool.Endpoints()[0].Selections)
}
