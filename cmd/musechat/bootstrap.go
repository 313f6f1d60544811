package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/meetingmuse/musechat/internal/appconfig"
)

func newBootstrapCmd() *cobra.Command {
	var output string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Write a default config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			path, err := appconfig.WriteDefault(output, overwrite)
			if err != nil {
				return err
			}
			logger.Info("bootstrap wrote", "path", path, "name", "config.yaml")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "config file path")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing config")
	return cmd
}
