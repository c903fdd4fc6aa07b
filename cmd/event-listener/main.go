// Command event-listener subscribes to an Activeledger node's contract
// events and logs every event it receives.
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
		contract = flag.String("contract", "", "listen for events raised by a single contract only")
		event    = flag.String("event", "", "listen for a single event name only; requires -contract")
		retries  = flag.Int("retries", -1, "maximum reconnection attempts, -1 for unlimited")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := activesse.Events(*url)
	if *contract != "" {
		if err := cfg.SetContract(*contract); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}
	}
	if *event != "" {
		if err := cfg.SetEvent(*event); err != nil {
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

	sub, err := s.ContractEvents(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to subscribe")
	}

	for ce := range sub.C {
		log.Info().
			Str("contract", ce.Contract).
			Str("event", ce.Name).
			Str("phase", ce.Phase).
			RawJSON("data", ce.Data).
			Msg("contract event")
	}

	if err := sub.Err(); err != nil {
		log.Fatal().Err(err).Msg("subscription failed")
	}
}
