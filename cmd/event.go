package cmd

import (
	"context"

	"github.com/frahmantamala/intranet-portal/internal/core/events"
	"github.com/frahmantamala/intranet-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish domain events on a local bus to check the audit subscriber output`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a test event",
	Long:      `Publish a domain event on a bus with the audit log subscribed, for debugging`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: events.AuditedEventTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var (
	eventData        string
	eventAggregateID int64
	eventActorID     int64
)

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)

	event := events.NewDomainEvent(eventType, eventAggregateID, eventActorID, map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	if err := bus.PublishSync(ctx, event); err != nil {
		lg.Error("failed to publish event", "error", err)
		return err
	}

	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")
	publishEventCmd.Flags().Int64Var(&eventAggregateID, "aggregate-id", 0, "Aggregate id carried by the event")
	publishEventCmd.Flags().Int64Var(&eventActorID, "actor-id", 0, "Actor id carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
