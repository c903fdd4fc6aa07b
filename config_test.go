package activesse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	activesse "github.com/activeledger/active-sse-go"
)

func TestConfig_URL(t *testing.T) {
	t.Parallel()

	t.Run("global activity", func(t *testing.T) {
		cfg := activesse.Activity("http://localhost:5260")

		u, err := cfg.URL()
		require.NoError(t, err)
		require.Equal(t, "http://localhost:5260/api/activity/subscribe", u)
	})

	t.Run("activity for a stream", func(t *testing.T) {
		cfg := activesse.Activity("http://localhost:5260/")
		require.NoError(t, cfg.SetStreamID("some-stream"))

		u, err := cfg.URL()
		require.NoError(t, err)
		require.Equal(t, "http://localhost:5260/api/activity/subscribe/some-stream", u)
	})

	t.Run("global events", func(t *testing.T) {
		cfg := activesse.Events("http://localhost:5260")

		u, err := cfg.URL()
		require.NoError(t, err)
		require.Equal(t, "http://localhost:5260/api/events", u)
	})

	t.Run("events for a contract", func(t *testing.T) {
		cfg := activesse.Events("http://localhost:5260")
		require.NoError(t, cfg.SetContract("some-contract"))

		u, err := cfg.URL()
		require.NoError(t, err)
		require.Equal(t, "http://localhost:5260/api/events/some-contract", u)
	})

	t.Run("single event on a contract", func(t *testing.T) {
		cfg := activesse.Events("http://localhost:5260")
		require.NoError(t, cfg.SetContract("some-contract"))
		require.NoError(t, cfg.SetEvent("minted"))

		u, err := cfg.URL()
		require.NoError(t, err)
		require.Equal(t, "http://localhost:5260/api/events/some-contract/minted", u)
	})
}

func TestConfig_incompatibleFilters(t *testing.T) {
	t.Parallel()

	activity := activesse.Activity("http://localhost:5260")
	require.ErrorIs(t, activity.SetContract("c"), activesse.ErrIncompatibleConfig)
	require.ErrorIs(t, activity.SetEvent("e"), activesse.ErrIncompatibleConfig)

	events := activesse.Events("http://localhost:5260")
	require.ErrorIs(t, events.SetStreamID("s"), activesse.ErrIncompatibleConfig)
}

func TestConfig_eventRequiresContract(t *testing.T) {
	t.Parallel()

	cfg := activesse.Events("http://localhost:5260")
	require.ErrorIs(t, cfg.SetEvent("minted"), activesse.ErrContractNotSet)

	require.NoError(t, cfg.SetContract("some-contract"))
	require.NoError(t, cfg.SetEvent("minted"))
}

func TestConfig_NewRequest(t *testing.T) {
	t.Parallel()

	cfg := activesse.Activity("http://localhost:5260")
	cfg.SetHeader("X-Custom", "value")
	cfg.SetBearerToken("token")

	r, err := cfg.NewRequest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5260/api/activity/subscribe", r.URL.String())
	require.Equal(t, "value", r.Header.Get("X-Custom"))
	require.Equal(t, "Bearer token", r.Header.Get("Authorization"))
}

func TestConfig_NewRequest_invalidURL(t *testing.T) {
	t.Parallel()

	cfg := activesse.Activity("://not-a-url")

	_, err := cfg.NewRequest(context.Background())
	require.Error(t, err)
}
