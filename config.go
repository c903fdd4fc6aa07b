package activesse

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Sentinel errors returned by configuration setters.
var (
	// ErrIncompatibleConfig is returned when a filter is set on a configuration
	// of the wrong subscription kind, e.g. a stream ID on an events configuration.
	ErrIncompatibleConfig = errors.New("active-sse: filter is incompatible with the configuration's subscription kind")
	// ErrContractNotSet is returned when an event name filter is set before a contract.
	ErrContractNotSet = errors.New("active-sse: a contract must be set before an event name")
)

type subscriptionKind int

const (
	kindActivity subscriptionKind = iota
	kindEvents
)

// Config describes a subscription to an Activeledger node's SSE endpoint.
// Create one using Activity or Events, then apply optional filters.
//
// A Config is not safe for concurrent modification. Connections read the
// configuration once, when the request is built; later changes do not affect
// subscriptions that are already open.
type Config struct {
	baseURL  string
	kind     subscriptionKind
	streamID string
	contract string
	event    string
	headers  http.Header
	token    string
}

// Activity creates a configuration for the node's activity endpoint.
// Subscribing to it notifies about stream creation and update activity.
// It can be used as is to listen globally, or be given a specific stream
// to listen to with SetStreamID.
func Activity(baseURL string) *Config {
	return &Config{baseURL: baseURL, kind: kindActivity}
}

// Events creates a configuration for the node's contract events endpoint.
// It can be used as is to listen for all events on the network, be given a
// contract with SetContract to listen to all events raised by it, or
// additionally an event name with SetEvent.
func Events(baseURL string) *Config {
	return &Config{baseURL: baseURL, kind: kindEvents}
}

// SetStreamID restricts an activity configuration to a single ledger stream.
// It returns ErrIncompatibleConfig when called on an events configuration.
func (c *Config) SetStreamID(id string) error {
	if c.kind != kindActivity {
		return ErrIncompatibleConfig
	}
	c.streamID = id
	return nil
}

// SetContract restricts an events configuration to events raised by the given
// contract. It returns ErrIncompatibleConfig when called on an activity
// configuration.
func (c *Config) SetContract(contract string) error {
	if c.kind != kindEvents {
		return ErrIncompatibleConfig
	}
	c.contract = contract
	return nil
}

// SetEvent restricts an events configuration to a single event name.
// A contract must be set first, otherwise ErrContractNotSet is returned.
// It returns ErrIncompatibleConfig when called on an activity configuration.
func (c *Config) SetEvent(event string) error {
	if c.kind != kindEvents {
		return ErrIncompatibleConfig
	}
	if c.contract == "" {
		return ErrContractNotSet
	}
	c.event = event
	return nil
}

// SetHeader adds a header to the requests opened with this configuration.
func (c *Config) SetHeader(key, value string) {
	if c.headers == nil {
		c.headers = http.Header{}
	}
	c.headers.Set(key, value)
}

// SetBearerToken configures the Authorization header sent with the requests
// opened with this configuration.
func (c *Config) SetBearerToken(token string) {
	c.token = token
}

// URL returns the fully composed endpoint the configuration points at.
func (c *Config) URL() (string, error) {
	switch c.kind {
	case kindActivity:
		elems := []string{"api", "activity", "subscribe"}
		if c.streamID != "" {
			elems = append(elems, c.streamID)
		}
		return url.JoinPath(c.baseURL, elems...)
	default:
		elems := []string{"api", "events"}
		if c.contract != "" {
			elems = append(elems, c.contract)
			if c.event != "" {
				elems = append(elems, c.event)
			}
		}
		return url.JoinPath(c.baseURL, elems...)
	}
}

// NewRequest builds the HTTP request a connection is opened with.
// The request carries the configured headers and authorization token.
// Use the context to stop the connection.
func (c *Config) NewRequest(ctx context.Context) (*http.Request, error) {
	u, err := c.URL()
	if err != nil {
		return nil, err
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}

	for key, values := range c.headers {
		r.Header[key] = append([]string(nil), values...)
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}

	return r, nil
}
