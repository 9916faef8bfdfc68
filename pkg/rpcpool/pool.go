// Package rpcpool provides a pool of HTTP clients bound to distinct local
// egress addresses.
//
// Each configured local IP gets its own transport whose dialer is hard-bound to
// that address, so requests spread across the pool appear to come from several
// sources. This keeps per-IP rate limits of the block engine from throttling a
// single busy caller. Selection is round-robin or random without immediate
// repeat.
//
// Usage:
//
//	pool, err := rpcpool.New(rpcpool.Config{
//	    LocalAddrs: []string{"10.0.0.2", "10.0.0.3"},
//	    Algorithm:  rpcpool.RoundRobin,
//	})
//	if err != nil {
//	    // an address could not be bound
//	}
//	defer pool.Close()
//
//	ep := pool.Acquire()
//	resp, err := ep.Do(req)
package rpcpool

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

var log = logrus.WithField("module", "rpcpool")

// Default transport values.
const (
	DefaultDialTimeout     = 10 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
	DefaultMaxIdleConns    = 100
)

// Algorithm selects which endpoint serves the next request.
type Algorithm int

const (
	// RoundRobin visits every endpoint once per cycle in construction order.
	RoundRobin Algorithm = iota

	// RandomNoRepeat picks uniformly among all endpoints except the previous pick.
	RandomNoRepeat
)

// String returns the configuration tag of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case RoundRobin:
		return "round-robin"
	case RandomNoRepeat:
		return "random"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// ParseAlgorithm parses a configuration tag into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "round-robin", "roundrobin", "rr":
		return RoundRobin, nil
	case "random", "random-no-repeat":
		return RandomNoRepeat, nil
	default:
		return RoundRobin, fmt.Errorf("unknown selection algorithm %q", s)
	}
}

// Config holds the pool construction parameters.
type Config struct {
	// LocalAddrs are the local IPs to bind. Empty means a single unbound client.
	LocalAddrs []string

	// Algorithm is the endpoint selection strategy.
	Algorithm Algorithm

	// RequestTimeout bounds each request. Zero leaves the transport defaults.
	RequestTimeout time.Duration

	// RateLimit caps requests per second per endpoint. Zero disables limiting.
	RateLimit int

	// DisableCompression turns off gzip negotiation on the transports.
	DisableCompression bool
}

// BindError reports a local address that could not be bound.
type BindError struct {
	Addr string
	Err  error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind local address %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BindError) Unwrap() error {
	return e.Err
}

// Pool hands out one endpoint per outbound request.
type Pool struct {
	endpoints []*Endpoint
	algorithm Algorithm

	// Selection state, guarded by mu. No I/O happens while mu is held.
	mu     sync.Mutex
	cursor int
	last   int

	intn func(n int) int
}

// Endpoint is an HTTP client bound to one local egress address.
type Endpoint struct {
	index     int
	localAddr net.IP
	client    *http.Client
	limiter   ratelimit.Limiter

	selections atomic.Uint64
}

// probeBind checks that ip is assigned to a local interface.
var probeBind = func(ip net.IP) error {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: ip})
	if err != nil {
		return err
	}
	return ln.Close()
}

// New builds a pool from cfg. Construction either binds every configured
// address or fails with a *BindError naming the first one that could not be
// bound.
func New(cfg Config) (*Pool, error) {
	p := &Pool{
		algorithm: cfg.Algorithm,
		last:      -1,
		intn:      rand.Intn,
	}

	if len(cfg.LocalAddrs) == 0 {
		p.endpoints = []*Endpoint{newEndpoint(0, nil, cfg)}
		log.Debug("no local addresses configured, using default route")
		return p, nil
	}

	seen := make(map[string]struct{}, len(cfg.LocalAddrs))
	for _, raw := range cfg.LocalAddrs {
		addr := strings.TrimSpace(raw)
		ip := net.ParseIP(addr)
		if ip == nil {
			return nil, &BindError{Addr: raw, Err: fmt.Errorf("not an IP address")}
		}
		if _, dup := seen[ip.String()]; dup {
			continue
		}
		seen[ip.String()] = struct{}{}

		if err := probeBind(ip); err != nil {
			return nil, &BindError{Addr: ip.String(), Err: err}
		}
		p.endpoints = append(p.endpoints, newEndpoint(len(p.endpoints), ip, cfg))
	}

	log.WithFields(logrus.Fields{
		"endpoints": len(p.endpoints),
		"algorithm": p.algorithm,
	}).Info("egress pool ready")
	return p, nil
}

// newEndpoint creates the transport for one endpoint. ip may be nil.
func newEndpoint(index int, ip net.IP, cfg Config) *Endpoint {
	dialer := &net.Dialer{
		Timeout:   DefaultDialTimeout,
		KeepAlive: 30 * time.Second,
	}
	if ip != nil {
		dialer.LocalAddr = &net.TCPAddr{IP: ip}
	}

	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	var transport http.RoundTripper = base
	if !cfg.DisableCompression {
		transport = gzhttp.Transport(base)
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.RateLimit > 0 {
		limiter = ratelimit.New(cfg.RateLimit)
	}

	return &Endpoint{
		index:     index,
		localAddr: ip,
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		limiter: limiter,
	}
}

// Acquire returns the endpoint to use for the next request.
func (p *Pool) Acquire() *Endpoint {
	var idx int
	if len(p.endpoints) > 1 {
		idx = p.next()
	}

	ep := p.endpoints[idx]
	ep.selections.Add(1)
	selectionsTotal.WithLabelValues(ep.Label()).Inc()
	log.WithField("index", idx).Trace("selected egress endpoint")
	return ep
}

// next advances the selection state and returns the chosen index.
func (p *Pool) next() int {
	n := len(p.endpoints)

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.algorithm {
	case RandomNoRepeat:
		var idx int
		if p.last < 0 {
			idx = p.intn(n)
		} else {
			// Draw from the n-1 indices other than last.
			idx = p.intn(n - 1)
			if idx >= p.last {
				idx++
			}
		}
		p.last = idx
		return idx

	default:
		idx := p.cursor
		p.cursor = (p.cursor + 1) % n
		return idx
	}
}

// Size returns the number of endpoints in the pool.
func (p *Pool) Size() int {
	return len(p.endpoints)
}

// Algorithm returns the configured selection algorithm.
func (p *Pool) Algorithm() Algorithm {
	return p.algorithm
}

// Close releases idle connections held by every endpoint.
func (p *Pool) Close() {
	for _, ep := range p.endpoints {
		ep.client.CloseIdleConnections()
	}
}

// EndpointInfo contains status information about an endpoint.
type EndpointInfo struct {
	Index      int
	LocalAddr  string
	Selections uint64
}

// Endpoints returns the status of all endpoints in construction order.
func (p *Pool) Endpoints() []EndpointInfo {
	infos := make([]EndpointInfo, len(p.endpoints))
	for i, ep := range p.endpoints {
		infos[i] = EndpointInfo{
			Index:      ep.index,
			LocalAddr:  ep.Label(),
			Selections: ep.selections.Load(),
		}
	}
	return infos
}

// Index returns the position of the endpoint in the pool.
func (e *Endpoint) Index() int {
	return e.index
}

// LocalAddr returns the bound source address, or nil for the default route.
func (e *Endpoint) LocalAddr() net.IP {
	return e.localAddr
}

// Label returns a printable name for the endpoint.
func (e *Endpoint) Label() string {
	if e.localAddr == nil {
		return "default"
	}
	return e.localAddr.String()
}

// Client returns the underlying HTTP client.
func (e *Endpoint) Client() *http.Client {
	return e.client
}

// Do sends req from this endpoint, waiting on its rate limiter first.
func (e *Endpoint) Do(req *http.Request) (*http.Response, error) {
	e.limiter.Take()
	return e.client.Do(req)
}

// HTTPClient adapts the pool to the Do/CloseIdleConnections shape expected by
// JSON-RPC client libraries. Every request acquires a fresh endpoint.
type HTTPClient struct {
	pool *Pool
}

// HTTPClient returns an adapter that routes requests through the pool.
func (p *Pool) HTTPClient() *HTTPClient {
	return &HTTPClient{pool: p}
}

// Do sends req using the next endpoint of the pool.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.pool.Acquire().Do(req)
}

// CloseIdleConnections closes idle connections on every endpoint.
func (c *HTTPClient) CloseIdleConnections() {
	c.pool.Close()
}
