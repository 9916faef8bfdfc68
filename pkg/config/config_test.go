package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v2"

	"github.com/fortiblox/jito-relay/pkg/relay"
	"github.com/fortiblox/jito-relay/pkg/rpcpool"
)

// applyArgs runs a throwaway app with the global flags and returns the
// configuration built from args.
func applyArgs(t *testing.T, args ...string) *RelayConfig {
	t.Helper()
	conf := NewRelayConfig()
	app := &cli.App{
		Name:  "test",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			conf.Apply(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return conf
}

func TestDefaults(t *testing.T) {
	conf := applyArgs(t)

	assert.Equal(t, relay.MainnetURL, conf.BlockEngineURL)
	assert.Equal(t, "round-robin", conf.Algorithm)
	assert.Empty(t, conf.LocalAddrs)
	assert.Equal(t, 30, conf.InflightAttempts)
	assert.Equal(t, 10, conf.FinalityAttempts)
	assert.Equal(t, 500*time.Millisecond, conf.SignatureInterval)
	require.NoError(t, conf.Validate())
}

func TestApplyOverridesSetFlags(t *testing.T) {
	conf := applyArgs(t,
		"--block-engine-url", relay.NewYorkURL,
		"--auth-uuid", "3f2504e0-4f89-11d3-9a0c-0305e82c3301",
		"--local-addr", "10.0.0.2",
		"--local-addr", "10.0.0.3,10.0.0.4",
		"--algorithm", "random",
		"--inflight-attempts", "5",
		"--inflight-interval", "250ms",
		"--max-poll-interval", "4s",
		"--log-level", "debug",
	)
	require.NoError(t, conf.Validate())

	assert.Equal(t, relay.NewYorkURL, conf.BlockEngineURL)
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"}, conf.LocalAddrs)
	assert.Equal(t, "debug", conf.LogLevel)

	poolConf, err := conf.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, rpcpool.RandomNoRepeat, poolConf.Algorithm)
	assert.Len(t, poolConf.LocalAddrs, 3)

	confirmConf := conf.ConfirmConfig()
	assert.Equal(t, 5, confirmConf.Inflight.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, confirmConf.Inflight.Interval)
	assert.Equal(t, 4*time.Second, confirmConf.Inflight.MaxInterval)
	assert.Equal(t, 10, confirmConf.Finality.MaxAttempts)
	assert.Equal(t, 4*time.Second, confirmConf.Signature.MaxInterval)
}

func TestApplyFromEnvironment(t *testing.T) {
	t.Setenv("JITO_LOCAL_ADDRS", "10.0.0.7,10.0.0.8")
	t.Setenv("JITO_ALGORITHM", "rr")

	conf := applyArgs(t)
	assert.Equal(t, []string{"10.0.0.7", "10.0.0.8"}, conf.LocalAddrs)
	assert.Equal(t, "rr", conf.Algorithm)
	require.NoError(t, conf.Validate())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *RelayConfig){
		"bad uuid":         func(c *RelayConfig) { c.AuthUUID = "nope" },
		"bad algorithm":    func(c *RelayConfig) { c.Algorithm = "weighted" },
		"bad encoding":     func(c *RelayConfig) { c.Encoding = "hex" },
		"bad log format":   func(c *RelayConfig) { c.LogFormat = "xml" },
		"bad scheme":       func(c *RelayConfig) { c.BlockEngineURL = "ftp://engine" },
		"zero attempts":    func(c *RelayConfig) { c.FinalityAttempts = 0 },
		"zero interval":    func(c *RelayConfig) { c.SignatureInterval = 0 },
		"negative limit":   func(c *RelayConfig) { c.RateLimit = -1 },
		"negative timeout": func(c *RelayConfig) { c.RequestTimeout = -time.Second },
	}
	for name, mutate := range cases {
		conf := NewRelayConfig()
		mutate(conf)
		assert.Error(t, conf.Validate(), name)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "relay.env")
	require.NoError(t, os.WriteFile(envFile, []byte("JITO_TEST_AUTH_UUID=3f2504e0-4f89-11d3-9a0c-0305e82c3301\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("JITO_TEST_AUTH_UUID") })

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", os.Getenv("JITO_TEST_AUTH_UUID"))
}

func TestLogging(t *testing.T) {
	assert.Equal(t, logrus.TraceLevel, ParseLogLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))

	f, err := ParseLogFormatter("json")
	require.NoError(t, err)
	assert.IsType(t, &logrus.JSONFormatter{}, f)

	_, err = ParseLogFormatter("xml")
	assert.Error(t, err)
}
