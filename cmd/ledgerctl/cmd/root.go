// Package cmd provides the ledgerctl commands.
package cmd

import (
	"errors"
	"os"

	"pocketledger/internal/cli"
	"pocketledger/internal/config"
	"pocketledger/internal/log"

	"github.com/spf13/cobra"
)

// app carries what PersistentPreRunE opened for the running command.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	ledger *cli.Ledger

	debug   bool
	publish bool
}

// NewRootCmd builds the command tree. Every subcommand opens the ledger
// configured by the environment (and .env) before it runs.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Manage a pocketledger ledger from the command line",
		Long: `ledgerctl records and inspects income and expenses in the ledger
selected by DATA_BACKEND. It writes the snapshot store directly, so stop
the pocketledger server first or point ledgerctl at its API instead.

Example:
  ledgerctl add --title Lunch --amount 12.50 --category food
  ledgerctl list --range week --sort amount
  ledgerctl stats`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.publish, "publish", true, "publish ledger events to AMQP when AMQP_URL is set")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newRemoveCmd(a),
		newUpdateCmd(a),
		newBudgetCmd(a),
		newStatsCmd(a),
		newClearCmd(a),
		newExportCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
	)
	return root
}

// Execute runs the CLI. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) open(cmd *cobra.Command) error {
	cli.LoadEnvFile()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	if a.debug {
		level = "debug"
	}
	a.logger = cli.SetupLogger(level, cmd.ErrOrStderr()).WithComponent(log.ComponentCLI)

	a.cfg = config.Load()
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	l, err := cli.OpenLedger(cmd.Context(), a.cfg, a.logger, a.publish)
	if err != nil {
		return err
	}
	a.ledger = l
	return nil
}

func (a *app) close() error {
	if a.ledger == nil {
		return nil
	}
	err := a.ledger.Close()
	a.ledger = nil
	return err
}

var errAborted = errors.New("aborted: pass --yes to confirm")
