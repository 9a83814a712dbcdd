package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/pkg"
	"github.com/bistroclub/bistro/pkg/event"
)

// WatchHelp tails the help topic and prints every pushed event until the
// context is cancelled. Handy for checking what the portals actually receive.
func WatchHelp(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	natsURL, _ := config.GetString("nats.url")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	subscriber, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		return err
	}
	defer subscriber.Close()

	handler := func(ctx context.Context, data []byte) error {
		var probe struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			logger.Errorf("cannot decode event: %v", err)
			return nil
		}
		fmt.Printf("%s %s\n", probe.EventType, data)
		return nil
	}

	if err := subscriber.Subscribe(ctx, event.HelpRequestsTopic, handler); err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", event.HelpRequestsTopic, err)
	}

	logger.Infof("watching %s, ctrl-c to stop", event.HelpRequestsTopic)
	<-ctx.Done()
	return nil
}
