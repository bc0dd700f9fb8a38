package main

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventpay",
		Short: "Payment reconciliation for the RC race registration",
		Long: `EventPay receives Xendit payment callbacks, applies participant payment
status changes exactly once, delivers receipts and re-checks pending invoices
when a callback never arrived.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env.SetupEnvFile()
			if env.IsDev() {
				log.SetLevel(log.LevelDebug)
			}
		},
	}

	cmd.AddCommand(newServeCommand(), newSweepCommand(), newInvoiceCommand())
	return cmd
}
