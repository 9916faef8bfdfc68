package config

import (
	"time"

	"github.com/fortiblox/jito-relay/pkg/confirm"
	"github.com/fortiblox/jito-relay/pkg/ledger"
	"github.com/fortiblox/jito-relay/pkg/relay"
)

var (
	DefaultLogLevel          string        = "info"
	DefaultLogFormat         string        = "text"
	DefaultBlockEngineURL    string        = relay.MainnetURL
	DefaultRPCURL            string        = ledger.MainnetURL
	DefaultAlgorithm         string        = "round-robin"
	DefaultEncoding          string        = "base64"
	DefaultRequestTimeout    time.Duration = 0
	DefaultRateLimit         int           = 0
	DefaultMetricsAddr       string        = ""
	DefaultInflightAttempts  int           = confirm.DefaultInflightAttempts
	DefaultInflightInterval  time.Duration = confirm.DefaultInflightInterval
	DefaultFinalityAttempts  int           = confirm.DefaultFinalityAttempts
	DefaultFinalityInterval  time.Duration = confirm.DefaultFinalityInterval
	DefaultSignatureAttempts int           = confirm.DefaultSignatureAttempts
	DefaultSignatureInterval time.Duration = confirm.DefaultSignatureInterval
	DefaultMaxPollInterval   time.Duration = 0
	DefaultEnvFile           string        = ".env"
)
