// Package core implements the Meridian scheduler/edge runtime: the
// message and port value types, the bounded edge queue and its overflow
// policies, the node lifecycle contract, the subgraph wiring validator,
// and the scheduler that drives execution.
package core

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the category of a Message.
type Kind int

const (
	// DataKind carries an application payload.
	DataKind Kind = iota
	// ControlKind carries a management command token (mode change, shutdown
	// signal). Control messages are preferred by the scheduler's priority
	// lanes (see Scheduler).
	ControlKind
	// ErrorKind carries a structured error value, surfaced to a node's
	// on_message the same way any other message is.
	ErrorKind
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case DataKind:
		return "DATA"
	case ControlKind:
		return "CONTROL"
	case ErrorKind:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Metadata carries optional, advisory information about a Message that
// travels alongside the payload but is never interpreted by the edge or
// scheduler.
type Metadata struct {
	// Seq is a monotonically increasing sequence number, assigned by the
	// producing node if it chooses to track one. Zero means unset.
	Seq uint64
	// TraceID correlates a message across a pipeline of nodes. The message
	// constructors (NewDataMessage, NewControlMessage, NewErrorMessage)
	// generate one; WithMetadata replaces it together with the rest of the
	// Metadata.
	TraceID string
	// Timestamp records when the message was constructed, unless replaced
	// via WithMetadata.
	Timestamp time.Time
}

// Message is an immutable value carried between nodes over an Edge. Once
// constructed, a Message must not be mutated; the payload is considered
// owned by whichever node ultimately receives it.
type Message struct {
	kind     Kind
	payload  any
	metadata Metadata
}

// NewDataMessage constructs a DATA message carrying payload.
func NewDataMessage(payload any) Message {
	return newMessage(DataKind, payload)
}

// NewControlMessage constructs a CONTROL message carrying a command token.
// Command payloads are typically small, e.g. a string or struct describing
// a mode change.
func NewControlMessage(command any) Message {
	return newMessage(ControlKind, command)
}

// NewErrorMessage constructs an ERROR message carrying a structured error
// value.
func NewErrorMessage(err error) Message {
	return newMessage(ErrorKind, err)
}

func newMessage(kind Kind, payload any) Message {
	return Message{
		kind:    kind,
		payload: payload,
		metadata: Metadata{
			TraceID:   uuid.NewString(),
			Timestamp: time.Now(),
		},
	}
}

// WithMetadata returns a copy of m with its Metadata replaced. Messages are
// immutable once emitted, so this returns a new value rather than mutating
// m in place; use it before the message is passed to Emitter.Emit.
func (m Message) WithMetadata(meta Metadata) Message {
	m.metadata = meta
	return m
}

// Kind returns the message's Kind.
func (m Message) Kind() Kind { return m.kind }

// Payload returns the message's opaque payload.
func (m Message) Payload() any { return m.payload }

// Metadata returns the message's Metadata.
func (m Message) Metadata() Metadata { return m.metadata }

// IsControl reports whether the message is a CONTROL message.
func (m Message) IsControl() bool { return m.kind == ControlKind }

// IsData reports whether the message is a DATA message.
func (m Message) IsData() bool { return m.kind == DataKind }

// IsError reports whether the message is an ERROR message.
func (m Message) IsError() bool { return m.kind == ErrorKind }
