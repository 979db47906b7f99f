/*
Package collab contains the real-time collaboration core.

This file defines the Hub, the composition point owning the room registry,
color assigner, and content relay. Every join, leave, cursor move, content
change, and disconnect flows through it. The Hub is created once by the
process's composition root and passed by reference; there is no package-level
instance.
*/
package collab

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inkwell/internal/pkg/errs"
	"inkwell/internal/pkg/logx"
)

// Authorizer decides whether a user may join an entry's room.
type Authorizer interface {
	Authorize(ctx context.Context, userID, entryID, capabilityToken string) *errs.CustomError
}

// Hub coordinates all live connections and rooms.
type Hub struct {
	registry *Registry
	access   Authorizer
	relay    *ContentRelay
	colors   *ColorAssigner

	// mu guards conns, the set of every live connection (joined to a room or not).
	mu    sync.RWMutex
	conns map[string]*Client

	logger zerolog.Logger
}

// NewHub constructs a Hub with the given authorizer and content relay window.
func NewHub(access Authorizer, debounceWindow time.Duration) *Hub {
	h := &Hub{
		registry: NewRegistry(),
		access:   access,
		colors:   NewColorAssigner(nil),
		conns:    make(map[string]*Client),
		logger:   logx.Logger().With().Str("component", "hub").Logger(),
	}

	h.relay = NewContentRelay(debounceWindow, h.flushContent)

	return h
}

// Attach records a freshly admitted connection.
func (h *Hub) Attach(client *Client) {
	h.mu.Lock()
	h.conns[client.ID] = client
	h.mu.Unlock()

	h.logger.Info().
		Str("connection_id", client.ID).
		Str("user_id", client.user.ID).
		Msg("Connection attached.")
}

// JoinDocument authorizes and registers a join request. On denial the client
// receives a join-denied event and stays connected; on success the client
// receives the room roster and peers are told about the new member.
func (h *Hub) JoinDocument(ctx context.Context, client *Client, documentID string) {
	if denial := h.access.Authorize(ctx, client.user.ID, documentID, client.capabilityToken); denial != nil {
		reason := ReasonNotAuthorized
		if denial.Code == errs.ErrEntryNotFound {
			reason = ReasonNotFound
		}

		h.logger.Info().
			Str("connection_id", client.ID).
			Str("user_id", client.user.ID).
			Str("entry_id", documentID).
			Str("reason", reason).
			Msg("Join denied.")

		client.SendEvent(EventJoinDenied, JoinDeniedPayload{
			DocumentID: documentID,
			Reason:     reason,
		})
		return
	}

	added := h.registry.Join(client, documentID)

	// The roster ack goes to the joiner even on a duplicate join, so a
	// retrying client still converges on the current member list.
	roster := h.rosterFor(documentID, client.ID)
	client.SendEvent(EventRoomJoined, RoomJoinedPayload{
		DocumentID: documentID,
		Members:    roster,
	})

	if !added {
		return
	}

	h.logger.Info().
		Str("connection_id", client.ID).
		Str("user_id", client.user.ID).
		Str("entry_id", documentID).
		Int("peers", len(roster)).
		Msg("Connection joined entry room.")

	h.broadcast(documentID, client.ID, EventMemberJoined, MemberJoinedPayload{
		DocumentID:   documentID,
		ConnectionID: client.ID,
		UserID:       client.user.ID,
		DisplayName:  client.user.FullName,
		Color:        h.colors.ColorFor(client.ID),
	})
}

// LeaveDocument removes the client from one room and announces the departure.
// Leaving a room the client is not in is a no-op.
func (h *Hub) LeaveDocument(client *Client, documentID string) {
	h.relay.Cancel(client.ID, documentID)

	removed, remaining := h.registry.Leave(client, documentID)
	if !removed {
		return
	}

	h.logger.Info().
		Str("connection_id", client.ID).
		Str("entry_id", documentID).
		Msg("Connection left entry room.")

	h.announceDeparture(documentID, client.ID, remaining)
}

// Disconnect performs full cleanup for a closed connection: cancels its
// pending relays, removes it from every room it was in, announces each
// departure, and releases its presence color. Runs unconditionally, abrupt
// network drops included.
func (h *Hub) Disconnect(client *Client) {
	h.relay.CancelConnection(client.ID)

	removed := h.registry.RemoveConnection(client)
	for documentID, remaining := range removed {
		h.announceDeparture(documentID, client.ID, remaining)
	}

	h.colors.Release(client.ID)

	h.mu.Lock()
	delete(h.conns, client.ID)
	h.mu.Unlock()

	h.logger.Info().
		Str("connection_id", client.ID).
		Str("user_id", client.user.ID).
		Int("rooms_left", len(removed)).
		Msg("Connection cleanup complete.")
}

// MoveCursor relays a cursor position to the sender's room peers, tagged with
// the sender's server-verified identity. A move for a room the sender is not
// in is dropped silently; it can legitimately race a recent leave.
func (h *Hub) MoveCursor(client *Client, payload CursorMovePayload) {
	if !h.registry.IsMember(client.ID, payload.DocumentID) {
		return
	}

	h.broadcast(payload.DocumentID, client.ID, EventCursorUpdate, CursorUpdatePayload{
		DocumentID:   payload.DocumentID,
		ConnectionID: client.ID,
		UserID:       client.user.ID,
		DisplayName:  client.user.FullName,
		Color:        h.colors.ColorFor(client.ID),
		Position:     payload.Position,
	})
}

// ChangeContent schedules a debounced content relay. Non-members are dropped
// silently, same as cursor moves.
func (h *Hub) ChangeContent(client *Client, payload ContentChangePayload) {
	if !h.registry.IsMember(client.ID, payload.DocumentID) {
		return
	}

	h.relay.Schedule(client, payload.DocumentID, payload.Payload)
}

// flushContent is the relay's flush callback: one coalesced broadcast per
// quiet burst. Membership is re-checked because the timer can race a leave.
func (h *Hub) flushContent(sender *Client, documentID, payload string) {
	if !h.registry.IsMember(sender.ID, documentID) {
		return
	}

	h.broadcast(documentID, sender.ID, EventContentUpdate, ContentUpdatePayload{
		DocumentID:   documentID,
		ConnectionID: sender.ID,
		Payload:      payload,
	})
}

// announceDeparture tells the remaining members to clear the departed cursor
// and drop the member. Cursor-cleared goes first so stale cursors vanish
// before the roster change renders.
func (h *Hub) announceDeparture(documentID, connectionID string, remaining []*Client) {
	h.sendTo(remaining, EventCursorCleared, CursorClearedPayload{
		DocumentID:   documentID,
		ConnectionID: connectionID,
	})
	h.sendTo(remaining, EventMemberLeft, MemberLeftPayload{
		DocumentID:   documentID,
		ConnectionID: connectionID,
	})
}

// rosterFor builds the presence entries of the entry's current members,
// excluding the given connection.
func (h *Hub) rosterFor(documentID, exceptConnectionID string) []PresenceEntry {
	members := h.registry.Members(documentID, exceptConnectionID)

	roster := make([]PresenceEntry, 0, len(members))
	for _, member := range members {
		roster = append(roster, PresenceEntry{
			ConnectionID: member.ID,
			UserID:       member.user.ID,
			DisplayName:  member.user.FullName,
			Color:        h.colors.ColorFor(member.ID),
		})
	}

	return roster
}

// broadcast fans an event out to every member of the entry's room except the
// sender.
func (h *Hub) broadcast(documentID, exceptConnectionID string, eventType EventType, payload any) {
	h.sendTo(h.registry.Members(documentID, exceptConnectionID), eventType, payload)
}

// sendTo marshals the event once and queues it to each recipient.
func (h *Hub) sendTo(recipients []*Client, eventType EventType, payload any) {
	if len(recipients) == 0 {
		return
	}

	frame, err := NewEvent(eventType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal event for broadcast.")
		return
	}

	for _, recipient := range recipients {
		recipient.queue(frame)
	}
}

// Stats returns the number of active rooms and live connections.
func (h *Hub) Stats() (rooms, connections int) {
	rooms, _ = h.registry.Stats()

	h.mu.RLock()
	connections = len(h.conns)
	h.mu.RUnlock()

	return rooms, connections
}

// Shutdown closes every live connection. Each closing connection runs its own
// Disconnect cleanup through its read pump.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conns))
	for _, client := range h.conns {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.Close()
	}

	h.logger.Info().Int("connections", len(clients)).Msg("Hub shutdown complete.")
}
