package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the authentication state of this client",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, _, err := buildClient(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.Status(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "client:        %s\n", status.ClientID)
			fmt.Fprintf(out, "authenticated: %v\n", status.Authenticated)
			if status.SessionID != "" {
				fmt.Fprintf(out, "session:       %s\n", status.SessionID)
			}
			if status.Message != "" {
				fmt.Fprintf(out, "message:       %s\n", status.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file path")
	return cmd
}
