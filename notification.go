package activesse

import (
	"encoding/json"
	"fmt"
)

// ActivityNotification is the decoded payload of an event received from the
// activity endpoint. It notifies about an operation performed on a ledger
// stream.
type ActivityNotification struct {
	// Operation performed on the stream, e.g. "insert" or "update".
	Operation string `json:"event"`
	// Stream is the activity stream document the operation refers to,
	// left as raw JSON as its shape is defined by the ledger contracts.
	Stream json.RawMessage `json:"stream"`
}

// StreamID extracts the ledger stream ID from the notification's stream
// document. It returns an empty string if the document carries no ID.
func (n ActivityNotification) StreamID() string {
	var doc struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(n.Stream, &doc); err != nil {
		return ""
	}
	return doc.ID
}

// ContractEvent is the decoded payload of an event received from the events
// endpoint. It is raised by a smart contract during transaction processing.
type ContractEvent struct {
	// Contract is the ID of the contract that raised the event.
	Contract string `json:"contract"`
	// Name of the event, as chosen by the contract.
	Name string `json:"name"`
	// Phase of transaction processing the event was raised in.
	Phase string `json:"phase,omitempty"`
	// Data is the event's payload, left as raw JSON as its shape is
	// defined by the contract.
	Data json.RawMessage `json:"data"`
}

// Activity decodes the event's payload as an ActivityNotification.
func (e Event) Activity() (ActivityNotification, error) {
	var n ActivityNotification
	if err := json.Unmarshal(e.Data, &n); err != nil {
		return ActivityNotification{}, fmt.Errorf("active-sse: decoding activity notification: %w", err)
	}
	return n, nil
}

// ContractEvent decodes the event's payload as a ContractEvent.
func (e Event) ContractEvent() (ContractEvent, error) {
	var ce ContractEvent
	if err := json.Unmarshal(e.Data, &ce); err != nil {
		return ContractEvent{}, fmt.Errorf("active-sse: decoding contract event: %w", err)
	}
	return ce, nil
}
