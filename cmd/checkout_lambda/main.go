package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/booking"
	"github.com/chris/spot-booking-ledger/pkg/bootstrap"
	"github.com/chris/spot-booking-ledger/pkg/config"
)

// checkoutRequest is the body of a checkout queue message.
type checkoutRequest struct {
	BookingID string `json:"booking_id"`
}

type handler struct {
	bookings booking.Lifecycle
}

// HandleRequest completes the booking named by each SQS record. Records that
// can never succeed are acknowledged; transient failures are reported back
// so SQS redelivers only those.
func (h *handler) HandleRequest(ctx context.Context, sqsEvent lambdaevents.SQSEvent) (lambdaevents.SQSEventResponse, error) {
	var resp lambdaevents.SQSEventResponse

	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var req checkoutRequest
		if err := json.Unmarshal([]byte(message.Body), &req); err != nil || req.BookingID == "" {
			log.Printf("ERROR: dropping malformed checkout message %s: %v", message.MessageId, err)
			continue
		}

		res, err := h.bookings.Complete(ctx, req.BookingID)
		switch {
		case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrNotFound):
			// Completing again would not be safe, so these are never retried.
			log.Printf("Skipping booking %s: %v", req.BookingID, err)
		case err != nil:
			log.Printf("ERROR: failed to complete booking %s: %v", req.BookingID, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, lambdaevents.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
		default:
			log.Printf("Completed booking %s (overtime %d hrs, total %s)", req.BookingID, res.OvertimeHours, res.TotalAmount)
		}
	}

	return resp, nil
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

	h := &handler{bookings: app.Bookings}
	lambda.Start(h.HandleRequest)
}
