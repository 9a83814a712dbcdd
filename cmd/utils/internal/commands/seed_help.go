package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/pkg"
	"github.com/bistroclub/bistro/pkg/event"
	"github.com/google/uuid"
)

var sampleMessages = []string{
	"Customer needs assistance",
	"Check please",
	"Missing cutlery",
	"Spilled a drink",
}

// SeedHelp publishes a batch of fabricated help-request events so the waiter
// portal has something to show during local development. It talks straight to
// the topic, bypassing the hub's request/reply surface.
func SeedHelp(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	natsURL, _ := config.GetString("nats.url")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	count := 3
	if raw, _ := config.GetString("seed.count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid seed.count %q", raw)
		}
		count = parsed
	}

	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		return err
	}
	defer publisher.Close()

	for i := 0; i < count; i++ {
		evt := event.HelpRequestReceivedEvent{
			EventType:  event.EventHelpRequestReceived,
			OccurredAt: time.Now().UTC(),
			Request: event.HelpRequest{
				ID:          uuid.NewString(),
				TableNumber: strconv.Itoa(i%12 + 1),
				Message:     sampleMessages[i%len(sampleMessages)],
				Timestamp:   time.Now().UTC(),
			},
		}

		data, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("cannot encode sample request: %w", err)
		}
		if err := publisher.Publish(ctx, event.HelpRequestsTopic, data); err != nil {
			return fmt.Errorf("cannot publish sample request: %w", err)
		}
		logger.Infof("published help request for table %s: %s", evt.Request.TableNumber, evt.Request.Message)
	}

	logger.Infof("seeded %d help requests", count)
	return nil
}
