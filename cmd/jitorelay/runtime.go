package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/fortiblox/jito-relay/pkg/config"
	"github.com/fortiblox/jito-relay/pkg/confirm"
	"github.com/fortiblox/jito-relay/pkg/ledger"
	"github.com/fortiblox/jito-relay/pkg/relay"
	"github.com/fortiblox/jito-relay/pkg/rpcpool"
)

// runtime wires the clients every command shares.
type runtime struct {
	ctx    context.Context
	cancel context.CancelFunc

	conf     *config.RelayConfig
	encoding relay.Encoding
	pool     *rpcpool.Pool
	relay    *relay.Client
	ledger   *ledger.Client
	poller   *confirm.Poller
	metrics  *http.Server
}

// newRuntime builds the configuration from the global flags and creates the
// pool, the clients and the poller.
func newRuntime(c *cli.Context) (*runtime, error) {
	conf := config.NewRelayConfig()
	conf.Apply(c)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := conf.ConfigureLogging(); err != nil {
		return nil, err
	}

	encoding, err := relay.ParseEncoding(conf.Encoding)
	if err != nil {
		return nil, err
	}

	poolConf, err := conf.PoolConfig()
	if err != nil {
		return nil, err
	}
	pool, err := rpcpool.New(poolConf)
	if err != nil {
		return nil, err
	}

	relayClient, err := relay.NewClient(conf.BlockEngineURL, pool, relay.WithAuthUUID(conf.AuthUUID))
	if err != nil {
		pool.Close()
		return nil, err
	}
	ledgerClient, err := ledger.NewClient(conf.RPCURL, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)

	rt := &runtime{
		ctx:      ctx,
		cancel:   cancel,
		conf:     conf,
		encoding: encoding,
		pool:     pool,
		relay:    relayClient,
		ledger:   ledgerClient,
		poller:   confirm.New(relayClient, ledgerClient, conf.ConfirmConfig()),
	}

	if conf.MetricsAddr != "" {
		if err := rt.serveMetrics(); err != nil {
			rt.Close()
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"engine":    conf.BlockEngineURL,
		"rpc":       conf.RPCURL,
		"egress":    pool.Size(),
		"algorithm": pool.Algorithm(),
	}).Debug("relay client ready")
	return rt, nil
}

// serveMetrics exposes the pool and poller collectors over HTTP.
func (rt *runtime) serveMetrics() error {
	reg := prometheus.NewRegistry()
	if err := rpcpool.RegisterMetrics(reg); err != nil {
		return err
	}
	if err := confirm.RegisterMetrics(reg); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	rt.metrics = &http.Server{
		Addr:              rt.conf.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", rt.conf.MetricsAddr).Info("serving metrics")
		if err := rt.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	return nil
}

// Close stops the metrics server and releases pooled connections.
func (rt *runtime) Close() {
	if rt.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rt.metrics.Shutdown(ctx)
		cancel()
	}
	rt.cancel()
	rt.pool.Close()

	for _, ep := range rt.pool.Endpoints() {
		log.WithFields(logrus.Fields{
			"egress":     ep.LocalAddr,
			"selections": ep.Selections,
		}).Debug("egress usage")
	}
}
