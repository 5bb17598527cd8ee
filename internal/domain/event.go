package domain

import (
	"encoding/json"
	"strings"
)

// EventKind is the closed set of AMM events the indexer understands.
type EventKind int

const (
	EventKindUnknown EventKind = iota
	EventKindCreatePool
	EventKindSwap
)

// Move struct names emitted by the AMM package.
const (
	CreatePoolEventName = "CreatePoolEvent"
	SwapEventName       = "SwapEvent"
)

// String returns the Move struct name for known kinds and "unknown" otherwise.
func (k EventKind) String() string {
	switch k {
	case EventKindCreatePool:
		return CreatePoolEventName
	case EventKindSwap:
		return SwapEventName
	default:
		return "unknown"
	}
}

// ParseEventKind maps a Move struct name to its EventKind.
func ParseEventKind(name string) EventKind {
	switch name {
	case CreatePoolEventName:
		return EventKindCreatePool
	case SwapEventName:
		return EventKindSwap
	default:
		return EventKindUnknown
	}
}

// EventID identifies an event on chain.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// RawEvent is an event exactly as delivered by the upstream subscription.
// It is never mutated after receipt.
type RawEvent struct {
	ID          EventID         // digest + sequence within the transaction
	PackageID   string          // emitting package
	Module      string          // emitting module
	Sender      string          // transaction sender
	Type        string          // full struct tag, e.g. 0x2::amm::SwapEvent
	ParsedJSON  json.RawMessage // event fields as JSON
	TimestampMs int64           // checkpoint timestamp in milliseconds (0 if absent or malformed)
}

// Name returns the struct name of the event type with any module path
// and generic arguments stripped.
func (e RawEvent) Name() string {
	t := e.Type
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	if i := strings.LastIndex(t, "::"); i >= 0 {
		t = t[i+2:]
	}
	return t
}

// Kind classifies the event by its struct name.
func (e RawEvent) Kind() EventKind {
	return ParseEventKind(e.Name())
}
