package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/fortiblox/jito-relay/pkg/confirm"
	"github.com/fortiblox/jito-relay/pkg/relay"
)

// explorerURL is where finalized transactions are displayed.
const explorerURL = "https://solscan.io/tx/"

var TipAccountsCommand = &cli.Command{
	Name:   "tip-accounts",
	Usage:  "list the accounts that accept bundle tips",
	Action: LaunchTipAccounts,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "random",
			Usage: "print a single tip account chosen at random",
		},
	},
}

var BlockhashCommand = &cli.Command{
	Name:   "blockhash",
	Usage:  "print the latest finalized blockhash to sign transactions with",
	Action: LaunchBlockhash,
}

var SendBundleCommand = &cli.Command{
	Name:      "send-bundle",
	Usage:     "submit up to 5 signed, encoded transactions as an atomic bundle",
	ArgsUsage: "<tx> [<tx>...]",
	Action:    LaunchSendBundle,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-wait",
			Usage: "print the bundle id and exit without tracking it",
		},
	},
}

var SendTxnCommand = &cli.Command{
	Name:      "send-txn",
	Usage:     "submit one signed, encoded transaction",
	ArgsUsage: "<tx>",
	Action:    LaunchSendTxn,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "bundle-only",
			Usage: "only execute the transaction inside a single-transaction bundle",
		},
		&cli.BoolFlag{
			Name:  "skip-preflight",
			Usage: "skip simulation before forwarding",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "no-wait",
			Usage: "print the signature and exit without tracking it",
		},
	},
}

var TrackBundleCommand = &cli.Command{
	Name:      "track-bundle",
	Usage:     "track a submitted bundle until it is finalized",
	ArgsUsage: "<bundle-id>",
	Action:    LaunchTrackBundle,
}

var TrackTxnCommand = &cli.Command{
	Name:      "track-txn",
	Usage:     "track a submitted transaction until it is finalized",
	ArgsUsage: "<signature>",
	Action:    LaunchTrackTxn,
}

func LaunchTipAccounts(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	if c.Bool("random") {
		account, err := rt.relay.GetRandomTipAccount(rt.ctx)
		if err != nil {
			return err
		}
		fmt.Println(account)
		return nil
	}

	accounts, err := rt.relay.GetTipAccounts(rt.ctx)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		fmt.Println(account)
	}
	return nil
}

func LaunchBlockhash(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	hash, lastValid, err := rt.ledger.LatestBlockhash(rt.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d\n", hash, lastValid)
	return nil
}

func LaunchSendBundle(c *cli.Context) error {
	txs := c.Args().Slice()
	if len(txs) == 0 {
		return errors.New("no transactions provided")
	}

	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	for i, tx := range txs {
		sig, err := relay.PrimarySignature(tx, rt.encoding)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		log.WithFields(logrus.Fields{"index": i, "signature": sig}).Debug("bundle transaction")
	}

	bundleID, err := rt.relay.SendBundle(rt.ctx, txs, rt.encoding)
	if err != nil {
		return err
	}
	log.WithField("bundle", bundleID).Info("bundle submitted")
	fmt.Println(bundleID)

	if c.Bool("no-wait") {
		return nil
	}
	return report(rt.poller.WaitForBundle(rt.ctx, bundleID))
}

func LaunchSendTxn(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one transaction")
	}
	tx := c.Args().First()

	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	expected, err := relay.PrimarySignature(tx, rt.encoding)
	if err != nil {
		return err
	}

	signature, err := rt.relay.SendTransaction(rt.ctx, tx, relay.SendTransactionOpts{
		SkipPreflight: c.Bool("skip-preflight"),
		BundleOnly:    c.Bool("bundle-only"),
		Encoding:      rt.encoding,
	})
	if err != nil {
		return err
	}
	if signature != expected.String() {
		log.WithFields(logrus.Fields{
			"returned": signature,
			"expected": expected,
		}).Warn("block engine returned an unexpected signature")
	}
	log.WithField("signature", signature).Info("transaction submitted")
	fmt.Println(signature)

	if c.Bool("no-wait") {
		return nil
	}
	return report(rt.poller.WaitForTransaction(rt.ctx, signature))
}

func LaunchTrackBundle(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one bundle id")
	}

	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	return report(rt.poller.WaitForBundle(rt.ctx, c.Args().First()))
}

func LaunchTrackTxn(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one signature")
	}

	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	return report(rt.poller.WaitForTransaction(rt.ctx, c.Args().First()))
}

// report prints the outcome of a polling session and turns every
// non-success into an error.
func report(outcome confirm.Outcome, err error) error {
	entry := log.WithFields(logrus.Fields{
		"phase":    outcome.Phase,
		"attempts": outcome.Attempts,
		"outcome":  outcome.Kind,
	})

	switch outcome.Kind {
	case confirm.OutcomeSuccess:
		url := explorerURL + outcome.Signature
		entry.WithFields(logrus.Fields{
			"signature": outcome.Signature,
			"slot":      outcome.Slot,
			"url":       url,
		}).Info("transaction finalized")
		fmt.Fprintln(os.Stdout, url)
		return nil
	case confirm.OutcomeExhausted:
		entry.WithField("last", outcome.LastStatus).Warn("gave up waiting for finalization")
	case confirm.OutcomeFailure:
		entry.WithError(err).Error("submission failed")
	}
	return err
}
