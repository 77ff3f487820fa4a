package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/intranet-portal/internal/core/events"
	"github.com/frahmantamala/intranet-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start long running workers that sit next to the HTTP server`,
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long: `Start an event bus with the audit subscriber attached and publish every
JSON event read from stdin, one per line:

  {"type":"reservation.created","aggregate_id":1,"actor_id":2,"data":{}}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startEventWorker(cmd.Context(), os.Stdin)
	},
}

// eventLine is the stdin wire format of the events worker.
type eventLine struct {
	Type        string                 `json:"type"`
	AggregateID int64                  `json:"aggregate_id"`
	ActorID     int64                  `json:"actor_id"`
	Data        map[string]interface{} `json:"data"`
}

func startEventWorker(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	lg.Info("event bus worker started. Waiting for events on stdin...")

	processed := 0
	for {
		select {
		case <-ctx.Done():
			lg.Info("received signal, shutting down event bus", "processed", processed)
			return nil
		case line, ok := <-lines:
			if !ok {
				lg.Info("event bus shutdown complete", "processed", processed)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if line == "" {
				continue
			}
			if err := publishLine(ctx, bus, line); err != nil {
				lg.Warn("skipping event", "error", err)
				continue
			}
			processed++
		}
	}
}

func publishLine(ctx context.Context, bus *events.EventBus, line string) error {
	var in eventLine
	if err := json.Unmarshal([]byte(line), &in); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if in.Type == "" {
		return fmt.Errorf("event type is required")
	}
	return bus.PublishSync(ctx, events.NewDomainEvent(in.Type, in.AggregateID, in.ActorID, in.Data))
}

func init() {
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
