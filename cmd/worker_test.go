package cmd

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/frahmantamala/intranet-portal/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Event worker", func() {
	var (
		bus      *events.EventBus
		received atomic.Int32
		ctx      context.Context
	)

	BeforeEach(func() {
		received.Store(0)
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
		bus.Subscribe(events.EventTypeReservationCreated, func(ctx context.Context, e events.Event) error {
			received.Add(1)
			return nil
		})
		ctx = context.Background()
	})

	It("publishes a decoded line synchronously", func() {
		line := `{"type":"reservation.created","aggregate_id":7,"actor_id":2,"data":{"room_id":1}}`
		Expect(publishLine(ctx, bus, line)).To(Succeed())
		Expect(received.Load()).To(BeEquivalentTo(1))
	})

	It("rejects malformed lines", func() {
		Expect(publishLine(ctx, bus, "{not json")).To(MatchError(ContainSubstring("decode event")))
		Expect(publishLine(ctx, bus, `{"aggregate_id":1}`)).To(MatchError(ContainSubstring("type is required")))
		Expect(received.Load()).To(BeZero())
	})

	It("drains stdin and stops at EOF", func() {
		in := strings.NewReader(strings.Join([]string{
			`{"type":"article.published","aggregate_id":1,"actor_id":1}`,
			``,
			`garbage`,
			`{"type":"file.uploaded","aggregate_id":2,"actor_id":1}`,
		}, "\n"))
		Expect(startEventWorker(ctx, in)).To(Succeed())
	})
})
