/*
Package activesse is a helper library that handles the setup and configuration
of Server-Sent-Events (Eventsource) connections to an Activeledger node.

To listen for events, create a configuration first. A configuration defines
which Activeledger API endpoint the connection points at. There are two
subscription kinds, activity and events:

	cfg := activesse.Activity("http://localhost:5260")

	cfg := activesse.Events("http://localhost:5260")

Activity subscriptions notify about stream creation and update activity, either
globally or for a single stream:

	cfg := activesse.Activity("http://localhost:5260")
	if err := cfg.SetStreamID("stream id"); err != nil { ... }

Event subscriptions notify about events raised by smart contracts, optionally
filtered by contract and further by event name:

	cfg := activesse.Events("http://localhost:5260")
	if err := cfg.SetContract("contract id"); err != nil { ... }
	if err := cfg.SetEvent("event name"); err != nil { ... }

Once configured, open the subscription and receive events from the returned
channel:

	sub, err := (&activesse.Subscriber{Config: cfg}).Subscribe(ctx)
	if err != nil { ... }
	for ev := range sub.C {
		fmt.Println(ev)
	}
	if err := sub.Err(); err != nil { ... }

The channel is closed when the context is done, the remote stream ends or a
permanent connection error occurs. For finer control over the HTTP transport,
response validation, reconnection backoff and logging, configure a Client and
use it either through a Subscriber or directly via NewConnection.

Ledger consensus, transaction building and key management are out of scope;
they are provided by the sibling Activeledger SDKs.
*/
package activesse
