// Package gate implements the confirmation protocol guarding destructive
// actions: a caller suspends on Confirm until whoever is driving the UI
// resolves the pending request with an explicit yes or no.
package gate

import (
	"context"
	"sync"
)

// Request is one pending confirmation. Exactly one exists at a time; the
// presentation layer resolves it exactly once.
type Request struct {
	Title   string
	Message string

	once     sync.Once
	decision chan bool
}

// Resolve answers the request. Only the first call counts, late or
// duplicate resolutions are dropped so a stale dialog can never approve
// a newer action.
func (r *Request) Resolve(approved bool) {
	r.once.Do(func() {
		r.decision <- approved
	})
}

// Approve resolves the request affirmatively.
func (r *Request) Approve() { r.Resolve(true) }

// Deny resolves the request negatively.
func (r *Request) Deny() { r.Resolve(false) }

// Gate serializes confirmation requests. Confirm blocks until the
// request is resolved, and the internal lock guarantees no second
// request becomes pending before the first one is fully settled.
type Gate struct {
	mu       sync.Mutex
	requests chan *Request
}

// New creates a gate. Requests surface on the Requests channel.
func New() *Gate {
	return &Gate{
		requests: make(chan *Request),
	}
}

// Requests delivers pending confirmations to the presentation layer.
func (g *Gate) Requests() <-chan *Request {
	return g.requests
}

// Confirm suspends until the user decides. It returns true only on an
// explicit affirmative; a cancelled context counts as a refusal, never
// as consent. When Confirm returns, the request is fully torn down and
// the gate is immediately reusable.
func (g *Gate) Confirm(ctx context.Context, title, message string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	req := &Request{
		Title:    title,
		Message:  message,
		decision: make(chan bool, 1),
	}

	select {
	case g.requests <- req:
	case <-ctx.Done():
		return false
	}

	select {
	case approved := <-req.decision:
		return approved
	case <-ctx.Done():
		// Mark the request settled so a late Resolve is a no-op.
		req.once.Do(func() {})
		return false
	}
}
