package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newInvoiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Manage Xendit invoices",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <participant-id>",
		Short: "Create an invoice for a registered participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.invoices.CreateInvoice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "resend <participant-id>",
		Short: "Deliver the receipt of a paid participant again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			outcomes, err := svc.resender.Resend(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, o := range outcomes {
				if o.Err != nil {
					cmd.PrintErrf("%s: %v\n", o.Name, o.Err)
				} else {
					cmd.Printf("%s: ok (%s)\n", o.Name, o.Duration)
				}
			}
			return nil
		},
	})

	return cmd
}
