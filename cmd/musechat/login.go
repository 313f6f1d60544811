package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
)

func newLoginCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate this client with the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)
			client, _, err := buildClient(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer client.Close()

			challenge, err := client.BeginLogin(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser to sign in:\n\n  %s\n\nWaiting for authentication...\n", challenge.AuthorizationURL)

			id, err := client.WaitAuthenticated(ctx)
			if err != nil {
				return err
			}
			logger.Info("login complete", "client", id.ClientID, "session", id.SessionID)
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file path")
	return cmd
}
