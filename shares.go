package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rkarmaka98/anomalyctl/monitor"
)

func newSharesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shares",
		Short: "Manage the file shares that can be watched for usage anomalies",
	}
	cmd.PersistentFlags().String("storage-account", "", "Storage account name")
	cmd.PersistentFlags().String("storage-key", "", "Shared key of the storage account")

	account := func() (*monitor.StorageAccount, error) {
		return monitor.NewStorageAccount(a.cfg.Monitor.StorageAccount, a.cfg.Monitor.StorageKey)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all file shares",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				acc, err := account()
				if err != nil {
					return err
				}
				shares, err := acc.ListShares(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Available Shares:")
				for _, share := range shares {
					fmt.Fprintf(out, " - %s (quota: %d GiB)\n", share.Name, share.QuotaGB)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create [name] [quotaGB]",
			Short: "Create a file share",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quota, err := strconv.ParseInt(args[1], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid quota: %w", err)
				}
				acc, err := account()
				if err != nil {
					return err
				}
				if err := acc.CreateShare(cmd.Context(), args[0], int32(quota)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Share %q created (quota: %d GiB)\n", args[0], quota)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete [name]",
			Short: "Delete a file share",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				acc, err := account()
				if err != nil {
					return err
				}
				if err := acc.DeleteShare(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Share %q deleted\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
