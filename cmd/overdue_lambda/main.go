package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/spot-booking-ledger/pkg/booking"
	"github.com/chris/spot-booking-ledger/pkg/bootstrap"
	"github.com/chris/spot-booking-ledger/pkg/config"
	"github.com/chris/spot-booking-ledger/pkg/events"
)

type handler struct {
	bookings  booking.Lifecycle
	publisher events.Publisher
}

// HandleRequest is triggered by an EventBridge Schedule. It announces every
// Active booking past its scheduled end; completing them is left to the
// driver or the checkout queue.
func (h *handler) HandleRequest(ctx context.Context) error {
	log.Println("Scanning for overdue bookings...")

	overdue, err := h.bookings.ListOverdue(ctx)
	if err != nil {
		log.Printf("ERROR: failed to list overdue bookings: %v", err)
		return err
	}

	if len(overdue) == 0 {
		log.Println("No overdue bookings found.")
		return nil
	}

	log.Printf("Found %d overdue bookings.", len(overdue))

	for i := range overdue {
		b := &overdue[i]
		if err := h.publisher.Publish(ctx, events.BookingMessage(events.BookingOverdue, b, 0)); err != nil {
			log.Printf("ERROR: failed to publish overdue event for booking %s: %v", b.Id, err)
			continue
		}
		log.Printf("Flagged booking %s (scheduled end %s)", b.Id, b.ScheduledEnd)
	}

	log.Println("Overdue scan finished.")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := bootstrap.New(context.Background(), cfg, slog.Default())
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	h := &handler{bookings: app.Bookings, publisher: app.Publisher}
	lambda.Start(h.HandleRequest)
}
