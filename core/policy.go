package core

// PutResult is the outcome of a TryPut against an Edge. It is ordinary
// control-flow information, never an error.
type PutResult int

const (
	// Accepted means the message was enqueued without disturbing any other
	// queued message, except for a CONTROL message on a full non-Block edge
	// whose policy has WithControlBypass: that one evicts the oldest queued
	// message and is still reported as Accepted.
	Accepted PutResult = iota
	// Blocked means the edge was full and the policy is Block: the message
	// was not enqueued, and the producing node should retry.
	Blocked
	// Dropped means the edge was full and the policy is Drop: the new
	// message was discarded, the queue is unchanged.
	Dropped
	// Replaced means the edge was full and the policy is Latest: the oldest
	// queued message was discarded and the new message enqueued in its
	// place.
	Replaced
	// Coalesced means the edge was full and the policy is Coalesce: the
	// tail message was merged with the new one via the policy's merge
	// function.
	Coalesced
)

// String returns a human-readable name for the PutResult.
func (r PutResult) String() string {
	switch r {
	case Accepted:
		return "ACCEPTED"
	case Blocked:
		return "BLOCKED"
	case Dropped:
		return "DROPPED"
	case Replaced:
		return "REPLACED"
	case Coalesced:
		return "COALESCED"
	default:
		return "UNKNOWN"
	}
}

// policyKind tags which of the four overflow policy variants a Policy value
// implements. Modeled as a tagged variant rather than a base class
// hierarchy.
type policyKind int

const (
	policyBlock policyKind = iota
	policyDrop
	policyLatest
	policyCoalesce
)

// CoalesceFunc merges the tail message already queued on a Coalesce edge
// with a newly arriving one. It must be pure and deterministic: given the
// same two inputs it must always produce the same output,
// and it must not mutate either argument (Messages are immutable, so this
// is naturally satisfied as long as the payload values themselves are
// treated as read-only).
type CoalesceFunc func(tail, next Message) Message

// Policy is the overflow policy an Edge applies when a TryPut would exceed
// capacity. Exactly four variants exist; construct one with BlockPolicy,
// DropPolicy, LatestPolicy, or CoalescePolicy.
type Policy struct {
	kind    policyKind
	merge   CoalesceFunc
	control controlMode
}

// controlMode governs whether CONTROL-kind messages bypass Drop/Latest/
// Coalesce on a given edge. The conservative default is that CONTROL
// obeys the edge's declared policy like any other message.
type controlMode int

const (
	controlObeysPolicy controlMode = iota
	controlBypassesPolicy
)

// BlockPolicy returns a Block overflow policy: TryPut returns Blocked
// without enqueuing when the edge is full.
func BlockPolicy() Policy { return Policy{kind: policyBlock} }

// DropPolicy returns a Drop overflow policy: a full edge discards the new
// message and TryPut returns Dropped.
func DropPolicy() Policy { return Policy{kind: policyDrop} }

// LatestPolicy returns a Latest overflow policy: a full edge discards its
// oldest queued message to make room for the new one, and TryPut returns
// Replaced.
func LatestPolicy() Policy { return Policy{kind: policyLatest} }

// CoalescePolicy returns a Coalesce overflow policy: a full edge pops its
// tail message, merges it with the new one via fn, and enqueues the
// result; TryPut returns Coalesced. fn must be pure and deterministic.
func CoalescePolicy(fn CoalesceFunc) Policy {
	if fn == nil {
		panic("core: CoalescePolicy requires a non-nil merge function")
	}
	return Policy{kind: policyCoalesce, merge: fn}
}

// WithControlBypass returns a copy of p where CONTROL-kind messages bypass
// Drop/Latest/Coalesce and are always enqueued, evicting the oldest queued
// message when the edge is full. A Block edge is not bypassed: a CONTROL
// message on a full Block edge is still Blocked. This is an explicit
// opt-in; the default
// constructed by BlockPolicy/DropPolicy/LatestPolicy/CoalescePolicy treats
// CONTROL the same as DATA.
func (p Policy) WithControlBypass() Policy {
	p.control = controlBypassesPolicy
	return p
}

// IsBlock reports whether p is the Block policy.
func (p Policy) IsBlock() bool { return p.kind == policyBlock }

// String returns a human-readable name for the policy.
func (p Policy) String() string {
	switch p.kind {
	case policyBlock:
		return "Block"
	case policyDrop:
		return "Drop"
	case policyLatest:
		return "Latest"
	case policyCoalesce:
		return "Coalesce"
	default:
		return "Unknown"
	}
}
