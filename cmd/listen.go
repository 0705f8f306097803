package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/crm-backoffice/internal/core/events"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Log domain events mirrored to NATS",
	Long:  `Subscribe to every subject under the configured prefix and log each domain event until interrupted`,
	Run: func(cmd *cobra.Command, args []string) {
		startListener()
	},
}

func startListener() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg)
	lg := logger.LoggerWrapper()

	nc, err := events.Connect(cfg.Events, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("listening for domain events. Press Ctrl+C to stop.", "prefix", cfg.Events.SubjectPrefix)
	err = events.Listen(ctx, nc, cfg.Events.SubjectPrefix, lg, func(subject string, env events.Envelope) {
		lg.Info("received event",
			"subject", subject,
			"event_id", env.ID,
			"event_type", env.Type,
			"occurred_at", env.OccurredAt,
			"payload", env.Data)
	})
	if err != nil {
		lg.Error("listener stopped", "error", err)
		os.Exit(1)
	}
	lg.Info("listener shutdown complete")
}

func init() {
	rootCmd.AddCommand(listenCmd)
}
