package transport

import (
	"time"

	"github.com/atvremote/mrp/pkg/codec"
)

// pendingCall is the reactor's record of one outbound message still
// awaiting a reply with a matching identifier. At most one call is ever
// registered per identifier; registration and removal both happen only
// inside the reactor goroutine, so the map itself needs no lock.
type pendingCall struct {
	identifier string
	resp       chan *codec.Envelope
	deadline   time.Time
}

// register adds a waiter for identifier, returning ErrDuplicateIdentifier
// if one is already pending (callers mint fresh UUIDs, so this signals a
// bug rather than a real collision).
func (t *Transport) register(identifier string, timeout time.Duration) (*pendingCall, error) {
	if _, exists := t.pending[identifier]; exists {
		return nil, ErrDuplicateIdentifier
	}
	call := &pendingCall{
		identifier: identifier,
		resp:       make(chan *codec.Envelope, 1),
		deadline:   time.Now().Add(timeout),
	}
	t.pending[identifier] = call
	return call, nil
}

// resolve matches an inbound envelope's identifier against the pending
// table and, on a match, delivers it and removes the entry. Returns true if
// a waiter was matched.
func (t *Transport) resolve(env *codec.Envelope) bool {
	if env.Identifier == "" {
		return false
	}
	call, ok := t.pending[env.Identifier]
	if !ok {
		return false
	}
	delete(t.pending, env.Identifier)
	call.resp <- env
	return true
}

// cancel removes a pending call without delivering a result, used when a
// waited Send's caller-side timeout fires before a reply arrives.
func (t *Transport) cancel(identifier string) {
	delete(t.pending, identifier)
}

// rejectAll delivers no result but closes every pending call's channel,
// unblocking all waiters with a closed-channel read (nil envelope); Send
// callers distinguish this from a real reply and return ErrClosed.
func (t *Transport) rejectAll() {
	for id, call := range t.pending {
		close(call.resp)
		delete(t.pending, id)
	}
}
