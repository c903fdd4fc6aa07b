package activesse

import (
	"context"
	"errors"
	"sync"
)

// subscriberBuffer is the size of the channels subscriptions deliver on.
// A full channel blocks the connection's read loop, which in turn applies
// backpressure on the node.
const subscriberBuffer = 64

// Subscriber opens subscriptions described by a Config. It is the high-level
// entry point of the library; for finer control use a Client directly.
type Subscriber struct {
	// Config describes the subscription to open. Required.
	Config *Config
	// Client used to open connections. Defaults to DefaultClient.
	Client *Client
}

// Subscription is a handle to an open subscription. Events are received from
// C, which is closed when the subscription ends: when its context is done,
// when the remote stream closes, or when a permanent connection error occurs.
type Subscription struct {
	// C receives the subscription's events.
	C <-chan Event

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Close stops the subscription. C is closed once the connection has shut
// down; keep receiving from it until then.
func (s *Subscription) Close() {
	s.cancel()
}

// Done returns a channel that is closed when the subscription has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the subscription, blocking until the
// subscription has ended. It returns nil when the subscription ended cleanly:
// the remote stream closed, or the subscription's context was cancelled.
func (s *Subscription) Err() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// errConfigMissing is returned by Subscribe when no Config is set.
var errConfigMissing = errors.New("active-sse: subscriber has no configuration")

// Subscribe opens the configured subscription and starts receiving events.
// The returned error is non-nil only when the request cannot be built;
// connection errors are reported through the subscription's Err method
// after its channel closes.
func (s *Subscriber) Subscribe(ctx context.Context) (*Subscription, error) {
	if s.Config == nil {
		return nil, errConfigMissing
	}

	ctx, cancel := context.WithCancel(ctx)

	req, err := s.Config.NewRequest(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	client := s.Client
	if client == nil {
		client = DefaultClient
	}

	ch := make(chan Event, subscriberBuffer)
	conn := client.NewConnection(req)
	conn.SubscribeToAll(ch)

	sub := &Subscription{C: ch, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer cancel()
		defer close(sub.done)

		if err := conn.Connect(); err != nil && !isSuccess(err) {
			sub.setErr(err)
		}
	}()

	return sub, nil
}

// ActivitySubscription receives decoded activity notifications.
type ActivitySubscription = TypedSubscription[ActivityNotification]

// ContractEventSubscription receives decoded contract events.
type ContractEventSubscription = TypedSubscription[ContractEvent]

// TypedSubscription is a subscription whose events are decoded into a
// payload type before delivery.
type TypedSubscription[T any] struct {
	// C receives the decoded payloads.
	C <-chan T

	sub *Subscription
}

// Close stops the subscription. See Subscription.Close.
func (s *TypedSubscription[T]) Close() {
	s.sub.Close()
}

// Done returns a channel that is closed when the subscription has ended.
func (s *TypedSubscription[T]) Done() <-chan struct{} {
	return s.sub.done
}

// Err returns the error that ended the subscription, blocking until the
// subscription has ended. A payload that fails to decode ends the
// subscription and is reported here.
func (s *TypedSubscription[T]) Err() error {
	return s.sub.Err()
}

// Activities opens an activity subscription and decodes each event payload.
// It returns ErrIncompatibleConfig when the subscriber's configuration is not
// an activity configuration.
func (s *Subscriber) Activities(ctx context.Context) (*ActivitySubscription, error) {
	if s.Config != nil && s.Config.kind != kindActivity {
		return nil, ErrIncompatibleConfig
	}
	return subscribeTyped(ctx, s, Event.Activity)
}

// ContractEvents opens an events subscription and decodes each event payload.
// It returns ErrIncompatibleConfig when the subscriber's configuration is not
// an events configuration.
func (s *Subscriber) ContractEvents(ctx context.Context) (*ContractEventSubscription, error) {
	if s.Config != nil && s.Config.kind != kindEvents {
		return nil, ErrIncompatibleConfig
	}
	return subscribeTyped(ctx, s, Event.ContractEvent)
}

func subscribeTyped[T any](ctx context.Context, s *Subscriber, decode func(Event) (T, error)) (*TypedSubscription[T], error) {
	sub, err := s.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan T, subscriberBuffer)

	go func() {
		defer close(ch)

		for ev := range sub.C {
			v, err := decode(ev)
			if err != nil {
				sub.setErr(err)
				sub.Close()

				// Drain so the connection can shut down.
				for range sub.C {
				}
				return
			}
			ch <- v
		}
	}()

	return &TypedSubscription[T]{C: ch, sub: sub}, nil
}
