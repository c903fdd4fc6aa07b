package activesse

import (
	"io"
	"strings"

	"github.com/activeledger/active-sse-go/internal/parser"
)

// The Event struct represents an event sent by an Activeledger node.
type Event struct {
	// The last non-empty ID of all the events received. This may not be
	// the ID of the latest event!
	LastEventID string
	// The event's name. It is empty if the event is unnamed.
	Name string
	// The event's payload in raw form. Use the String method if you need it as a string,
	// or the Activity and ContractEvent methods to decode it.
	Data []byte
}

// String copies the data buffer and returns it as a string.
func (e Event) String() string {
	return string(e.Data)
}

// ReadConfig is used to configure how Read behaves.
type ReadConfig struct {
	// MaxEventSize is the maximum expected length of the byte sequence
	// representing a single event. Parsing events longer than that
	// will result in an error.
	//
	// By default this limit is 64KB, the default buffer limit of
	// bufio.Scanner.
	MaxEventSize int
}

// Read parses an SSE stream and yields all incoming events. On any
// encountered error iteration stops and no further events are parsed –
// the loop can safely be ended on error. If the input ends cleanly the
// Read operation is considered successful and no error is yielded.
// An Event is never yielded together with an error.
//
// Read is useful for parsing responses of endpoints which communicate
// using SSE but not over long-lived connections. It provides no way to
// handle the "retry" field and doesn't handle retrying; use a Client and
// a Connection for that.
//
// Read handles Event.LastEventID the way a browser EventSource would:
// every event carries the last encountered event ID, even if the ID was
// not received together with the current event.
func Read(r io.Reader, cfg *ReadConfig) func(func(Event, error) bool) {
	p := parser.New(r)
	if cfg != nil && cfg.MaxEventSize > 0 {
		p.Buffer(nil, cfg.MaxEventSize)
	}

	return func(yield func(Event, error) bool) {
		lastEventID := ""
		ev, dirty := Event{}, false

		doYield := func() bool {
			if l := len(ev.Data); l > 0 {
				ev.Data = ev.Data[:l-1]
			}
			ev.LastEventID = lastEventID
			return yield(ev, nil)
		}

		for f := (parser.Field{}); p.Next(&f); {
			switch f.Name {
			case parser.FieldNameData:
				ev.Data = append(ev.Data, f.Value...)
				ev.Data = append(ev.Data, '\n')
				dirty = true
			case parser.FieldNameEvent:
				ev.Name = f.Value
				dirty = true
			case parser.FieldNameID:
				if strings.IndexByte(f.Value, 0) != -1 {
					break
				}

				lastEventID = f.Value
				dirty = true
			case parser.FieldNameRetry:
				// Not handled; see the doc comment.
			default:
				if dirty {
					if !doYield() {
						return
					}
					ev, dirty = Event{}, false
				}
			}
		}

		err := p.Err()
		if dirty && err == nil {
			if !doYield() {
				return
			}
		}
		if err != nil && !isSuccess(err) {
			yield(Event{}, err)
		}
	}
}
