package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Check every due payment queue item against Xendit once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sweepOnce(cmd.Context())
		},
	}
}

func sweepOnce(ctx context.Context) error {
	svc, err := buildServices(ctx, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	if !svc.gatewayOK {
		return errGatewayNotConfigured
	}

	report, err := svc.poller.SweepOnce(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
