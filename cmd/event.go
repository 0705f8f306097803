package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/crm-backoffice/internal/core/events"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish debug events through the bus and, when configured, the NATS mirror`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var eventData string

func publishTestEvent(eventType string) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg)
	lg := logger.LoggerWrapper()

	data := map[string]interface{}{}
	if err := json.Unmarshal([]byte(eventData), &data); err != nil {
		data = map[string]interface{}{"message": eventData}
	}
	data["source"] = "cli-command"

	bus, nc := initEventBus(cfg.Events, lg)
	if nc != nil {
		defer nc.Close()
	}

	testEvent := events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	lg.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bus.PublishSync(ctx, testEvent); err != nil {
		lg.Error("failed to publish event", "error", err)
		os.Exit(1)
	}
	if nc != nil {
		if err := nc.FlushWithContext(ctx); err != nil {
			lg.Warn("nats flush failed", "error", err)
		}
	}
	lg.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", `{"message":"test message"}`, "Event payload, JSON object or plain text")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
