// jitorelay: submit transactions and bundles to a Jito block engine and
// track them until they are finalized.
//
// Outbound requests can be spread over several local source addresses so the
// engine's per-IP rate limits apply to each address separately.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/fortiblox/jito-relay/pkg/config"
)

// Version information
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

var log = logrus.WithField("module", "jitorelay")

func main() {
	if err := config.LoadEnv(config.DefaultEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := newApp().RunContext(context.Background(), os.Args); err != nil {
		log.Errorf("error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                 "jitorelay",
		Usage:                "submit transactions and bundles to a Jito block engine and track them to finalization",
		UsageText:            "jitorelay [global options] command [arguments...]",
		Version:              fmt.Sprintf("%s (%s)", Version, GitCommit),
		EnableBashCompletion: true,
		Flags:                config.Flags(),
		Commands: []*cli.Command{
			TipAccountsCommand,
			BlockhashCommand,
			SendBundleCommand,
			SendTxnCommand,
			TrackBundleCommand,
			TrackTxnCommand,
		},
	}
}
