/*
Package collab contains the real-time collaboration core.

This file implements the debounced content relay. Each (connection, entry)
pair owns at most one timer: the first content change arms it, every further
change inside the window replaces the payload and re-arms it, and when the
window elapses uninterrupted the latest payload is handed to the flush
callback exactly once. Leaving the room or disconnecting cancels the sender's
own pending timer without emitting.
*/
package collab

import (
	"sync"
	"time"
)

// FlushFunc receives the coalesced payload once a burst goes quiet.
type FlushFunc func(sender *Client, documentID, payload string)

type relayKey struct {
	connectionID string
	documentID   string
}

type pendingRelay struct {
	sender  *Client
	payload string
	timer   *time.Timer
}

// ContentRelay coalesces content changes per (connection, entry) pair.
type ContentRelay struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[relayKey]*pendingRelay
	flush   FlushFunc
}

// NewContentRelay constructs a ContentRelay with the given coalescing window
// and flush callback.
func NewContentRelay(window time.Duration, flush FlushFunc) *ContentRelay {
	return &ContentRelay{
		window:  window,
		pending: make(map[relayKey]*pendingRelay),
		flush:   flush,
	}
}

// Schedule records a content change. The payload replaces any pending one for
// the same (connection, entry) pair and the quiet window starts over.
func (r *ContentRelay) Schedule(sender *Client, documentID, payload string) {
	key := relayKey{connectionID: sender.ID, documentID: documentID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[key]; ok {
		p.payload = payload
		p.timer.Stop()
		p.timer.Reset(r.window)
		return
	}

	p := &pendingRelay{
		sender:  sender,
		payload: payload,
	}
	p.timer = time.AfterFunc(r.window, func() {
		r.fire(key)
	})
	r.pending[key] = p
}

// fire delivers the pending payload for the key, if it still exists. A timer
// racing a cancel finds no entry and does nothing.
func (r *ContentRelay) fire(key relayKey) {
	r.mu.Lock()
	p, ok := r.pending[key]
	if ok {
		delete(r.pending, key)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.flush(p.sender, key.documentID, p.payload)
}

// Cancel discards any pending relay for the (connection, entry) pair.
func (r *ContentRelay) Cancel(connectionID, documentID string) {
	key := relayKey{connectionID: connectionID, documentID: documentID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[key]; ok {
		p.timer.Stop()
		delete(r.pending, key)
	}
}

// CancelConnection discards every pending relay owned by the connection.
// Called on disconnect.
func (r *ContentRelay) CancelConnection(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, p := range r.pending {
		if key.connectionID == connectionID {
			p.timer.Stop()
			delete(r.pending, key)
		}
	}
}

// PendingCount returns the number of armed timers.
func (r *ContentRelay) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pending)
}
