// Package config holds the relay client configuration: defaults, overrides
// from command line flags and environment, and validation.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v2"

	"github.com/fortiblox/jito-relay/pkg/confirm"
	"github.com/fortiblox/jito-relay/pkg/relay"
	"github.com/fortiblox/jito-relay/pkg/rpcpool"
)

type RelayConfig struct {
	LogLevel          string        `json:"log-level"`
	LogFormat         string        `json:"log-format"`
	BlockEngineURL    string        `json:"block-engine-url"`
	RPCURL            string        `json:"rpc-url"`
	AuthUUID          string        `json:"auth-uuid"`
	LocalAddrs        []string      `json:"local-addrs"`
	Algorithm         string        `json:"algorithm"`
	RequestTimeout    time.Duration `json:"request-timeout"`
	RateLimit         int           `json:"rate-limit"`
	Encoding          string        `json:"encoding"`
	MetricsAddr       string        `json:"metrics-addr"`
	InflightAttempts  int           `json:"inflight-attempts"`
	InflightInterval  time.Duration `json:"inflight-interval"`
	FinalityAttempts  int           `json:"finality-attempts"`
	FinalityInterval  time.Duration `json:"finality-interval"`
	SignatureAttempts int           `json:"signature-attempts"`
	SignatureInterval time.Duration `json:"signature-interval"`
	MaxPollInterval   time.Duration `json:"max-poll-interval"`
}

func NewRelayConfig() *RelayConfig {
	// Return Default values for the relay configuration
	return &RelayConfig{
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		BlockEngineURL:    DefaultBlockEngineURL,
		RPCURL:            DefaultRPCURL,
		Algorithm:         DefaultAlgorithm,
		RequestTimeout:    DefaultRequestTimeout,
		RateLimit:         DefaultRateLimit,
		Encoding:          DefaultEncoding,
		MetricsAddr:       DefaultMetricsAddr,
		InflightAttempts:  DefaultInflightAttempts,
		InflightInterval:  DefaultInflightInterval,
		FinalityAttempts:  DefaultFinalityAttempts,
		FinalityInterval:  DefaultFinalityInterval,
		SignatureAttempts: DefaultSignatureAttempts,
		SignatureInterval: DefaultSignatureInterval,
		MaxPollInterval:   DefaultMaxPollInterval,
	}
}

// Apply overrides the defaults with every flag that was set.
func (c *RelayConfig) Apply(ctx *cli.Context) {
	if ctx.IsSet("log-level") {
		c.LogLevel = ctx.String("log-level")
	}
	if ctx.IsSet("log-format") {
		c.LogFormat = ctx.String("log-format")
	}
	if ctx.IsSet("block-engine-url") {
		c.BlockEngineURL = ctx.String("block-engine-url")
	}
	if ctx.IsSet("rpc-url") {
		c.RPCURL = ctx.String("rpc-url")
	}
	if ctx.IsSet("auth-uuid") {
		c.AuthUUID = ctx.String("auth-uuid")
	}
	// egress addresses, a single env value may be comma separated
	if ctx.IsSet("local-addr") {
		c.LocalAddrs = nil
		for _, v := range ctx.StringSlice("local-addr") {
			for _, addr := range strings.Split(v, ",") {
				if addr = strings.TrimSpace(addr); addr != "" {
					c.LocalAddrs = append(c.LocalAddrs, addr)
				}
			}
		}
	}
	if ctx.IsSet("algorithm") {
		c.Algorithm = ctx.String("algorithm")
	}
	if ctx.IsSet("request-timeout") {
		c.RequestTimeout = ctx.Duration("request-timeout")
	}
	if ctx.IsSet("rate-limit") {
		c.RateLimit = ctx.Int("rate-limit")
	}
	if ctx.IsSet("encoding") {
		c.Encoding = ctx.String("encoding")
	}
	if ctx.IsSet("metrics-addr") {
		c.MetricsAddr = ctx.String("metrics-addr")
	}
	// poll budgets
	if ctx.IsSet("inflight-attempts") {
		c.InflightAttempts = ctx.Int("inflight-attempts")
	}
	if ctx.IsSet("inflight-interval") {
		c.InflightInterval = ctx.Duration("inflight-interval")
	}
	if ctx.IsSet("finality-attempts") {
		c.FinalityAttempts = ctx.Int("finality-attempts")
	}
	if ctx.IsSet("finality-interval") {
		c.FinalityInterval = ctx.Duration("finality-interval")
	}
	if ctx.IsSet("signature-attempts") {
		c.SignatureAttempts = ctx.Int("signature-attempts")
	}
	if ctx.IsSet("signature-interval") {
		c.SignatureInterval = ctx.Duration("signature-interval")
	}
	if ctx.IsSet("max-poll-interval") {
		c.MaxPollInterval = ctx.Duration("max-poll-interval")
	}
}

// Validate checks every value that would otherwise fail later at use.
func (c *RelayConfig) Validate() error {
	endpoints := []struct{ name, raw string }{
		{"block-engine-url", c.BlockEngineURL},
		{"rpc-url", c.RPCURL},
	}
	for _, e := range endpoints {
		u, err := url.Parse(e.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s: unsupported scheme %q", e.name, u.Scheme)
		}
	}
	if c.AuthUUID != "" {
		if _, err := uuid.Parse(c.AuthUUID); err != nil {
			return fmt.Errorf("auth-uuid: %w", err)
		}
	}
	if _, err := rpcpool.ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}
	if _, err := relay.ParseEncoding(c.Encoding); err != nil {
		return err
	}
	if _, err := ParseLogFormatter(c.LogFormat); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate-limit must not be negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request-timeout must not be negative")
	}

	budgets := []struct {
		name     string
		attempts int
		interval time.Duration
	}{
		{"inflight", c.InflightAttempts, c.InflightInterval},
		{"finality", c.FinalityAttempts, c.FinalityInterval},
		{"signature", c.SignatureAttempts, c.SignatureInterval},
	}
	for _, b := range budgets {
		if b.attempts <= 0 {
			return fmt.Errorf("%s-attempts must be positive", b.name)
		}
		if b.interval <= 0 {
			return fmt.Errorf("%s-interval must be positive", b.name)
		}
	}
	return nil
}

// PoolConfig returns the egress pool configuration.
func (c *RelayConfig) PoolConfig() (rpcpool.Config, error) {
	alg, err := rpcpool.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return rpcpool.Config{}, err
	}
	return rpcpool.Config{
		LocalAddrs:     c.LocalAddrs,
		Algorithm:      alg,
		RequestTimeout: c.RequestTimeout,
		RateLimit:      c.RateLimit,
	}, nil
}

// ConfirmConfig returns the polling budgets.
func (c *RelayConfig) ConfirmConfig() confirm.Config {
	phase := func(attempts int, interval time.Duration) confirm.PhaseConfig {
		return confirm.PhaseConfig{
			MaxAttempts: attempts,
			Interval:    interval,
			MaxInterval: c.MaxPollInterval,
		}
	}
	return confirm.Config{
		Inflight:  phase(c.InflightAttempts, c.InflightInterval),
		Finality:  phase(c.FinalityAttempts, c.FinalityInterval),
		Signature: phase(c.SignatureAttempts, c.SignatureInterval),
	}
}

// LoadEnv loads environment variables from the given files. Missing files
// are skipped; variables already set in the environment win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if isNotExist(err) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
