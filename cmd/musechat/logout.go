package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the backend session for this client",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, _, err := buildClient(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file path")
	return cmd
}
