package config

import (
	cli "github.com/urfave/cli/v2"
)

// Flags returns the global flags read by Apply. Every flag can also be set
// through its environment variable, including from a .env file.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level: trace, debug, info, warn, error",
			EnvVars: []string{"JITO_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log format: text, json",
			EnvVars: []string{"JITO_LOG_FORMAT"},
		},
		&cli.StringFlag{
			Name:    "block-engine-url",
			Usage:   "block engine API url, example: https://ny.mainnet.block-engine.jito.wtf/api/v1",
			EnvVars: []string{"JITO_BLOCK_ENGINE_URL"},
		},
		&cli.StringFlag{
			Name:    "rpc-url",
			Usage:   "ledger RPC url used for blockhashes and signature statuses",
			EnvVars: []string{"JITO_RPC_URL"},
		},
		&cli.StringFlag{
			Name:    "auth-uuid",
			Usage:   "rate-limit approved UUID sent with every block engine request",
			EnvVars: []string{"JITO_AUTH_UUID"},
		},
		&cli.StringSliceFlag{
			Name:    "local-addr",
			Usage:   "local source IP to bind an egress client to (repeatable)",
			EnvVars: []string{"JITO_LOCAL_ADDRS"},
		},
		&cli.StringFlag{
			Name:    "algorithm",
			Usage:   "egress selection: round-robin, random",
			EnvVars: []string{"JITO_ALGORITHM"},
		},
		&cli.DurationFlag{
			Name:    "request-timeout",
			Usage:   "per-request timeout, 0 keeps the transport defaults",
			EnvVars: []string{"JITO_REQUEST_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "rate-limit",
			Usage:   "requests per second per egress address, 0 disables limiting",
			EnvVars: []string{"JITO_RATE_LIMIT"},
		},
		&cli.StringFlag{
			Name:    "encoding",
			Usage:   "transaction encoding: base64, base58",
			EnvVars: []string{"JITO_ENCODING"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "serve prometheus metrics on this address, example: 0.0.0.0:9080",
			EnvVars: []string{"JITO_METRICS_ADDR"},
		},
		&cli.IntFlag{
			Name:  "inflight-attempts",
			Usage: "in-flight status queries before giving up",
		},
		&cli.DurationFlag{
			Name:  "inflight-interval",
			Usage: "delay between in-flight status queries",
		},
		&cli.IntFlag{
			Name:  "finality-attempts",
			Usage: "bundle finality queries before giving up",
		},
		&cli.DurationFlag{
			Name:  "finality-interval",
			Usage: "delay between bundle finality queries",
		},
		&cli.IntFlag{
			Name:  "signature-attempts",
			Usage: "signature status queries before giving up",
		},
		&cli.DurationFlag{
			Name:  "signature-interval",
			Usage: "delay between signature status queries",
		},
		&cli.DurationFlag{
			Name:  "max-poll-interval",
			Usage: "enables exponential backoff between polls, capped at this delay",
		},
	}
}
