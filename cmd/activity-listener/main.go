// Command activity-listener subscribes to an Activeledger node's activity
// stream and logs every notification it receives.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	activesse "github.com/activeledger/active-sse-go"
)

func main() {
	var (
		url      = flag.String("url", "http://localhost:5260", "base URL of the Activeledger node")
		streamID = flag.String("stream", "", "listen for activity on a single stream only")
		retries  = flag.Int("retries", -1, "maximum reconnection attempts, -1 for unlimited")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := activesse.Activity(*url)
	if *streamID != "" {
		if err := cfg.SetStreamID(*streamID); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}
	}

	s := &activesse.Subscriber{
		Config: cfg,
		Client: &activesse.Client{
			MaxRetries:              *retries,
			DefaultReconnectionTime: 5 * time.Second,
			Logger:                  &log,
		},
	}

	sub, err := s.Activities(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to subscribe")
	}

	for n := range sub.C {
		log.Info().
			Str("operation", n.Operation).
			Str("stream", n.StreamID()).
			RawJSON("document", n.Stream).
			Msg("activity")
	}

	if err := sub.Err(); err != nil {
		log.Fatal().Err(err).Msg("subscription failed")
	}
}
