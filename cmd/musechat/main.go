package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"

	musechat "github.com/meetingmuse/musechat"
	"github.com/meetingmuse/musechat/internal/appconfig"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("musechat command failed")
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "musechat",
		Short:         "Terminal client for the MeetingMuse assistant",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newChatCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newBootstrapCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// buildClient loads configuration and constructs the client with the given
// sinks attached.
func buildClient(ctx context.Context, cfgPath string, sinks ...musechat.EventSink) (*musechat.Client, appconfig.Config, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	client, err := musechat.New(musechat.Config{
		BaseURL:          cfg.Server.BaseURL,
		StateDir:         cfg.StateDir,
		HandshakeTimeout: time.Duration(cfg.Server.HandshakeTimeoutSeconds) * time.Second,
		PollInterval:     time.Duration(cfg.Identity.PollIntervalSeconds) * time.Second,
		Timezone:         cfg.Chat.Timezone,
		MentionDebounce:  time.Duration(cfg.Mentions.DebounceMs) * time.Millisecond,
		MaxCandidates:    cfg.Mentions.MaxCandidates,
		EventSinks:       sinks,
		Logger:           pslog.Ctx(ctx),
	})
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	return client, cfg, nil
}
