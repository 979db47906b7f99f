/*
Package collab contains the real-time collaboration core: per-entry rooms,
presence and cursor broadcasting, and the debounced content relay.

This file defines the wire protocol: the JSON envelope exchanged over the
WebSocket connection and the payload structures for every inbound and outbound
event type.
*/
package collab

import "encoding/json"

// EventType identifies a collaboration event on the wire.
type EventType string

// Inbound events (client to server).
const (
	// EventJoinDocument requests membership in an entry's room.
	EventJoinDocument EventType = "join-document"

	// EventLeaveDocument gives up membership in an entry's room.
	EventLeaveDocument EventType = "leave-document"

	// EventCursorMove reports the sender's cursor position inside an entry.
	EventCursorMove EventType = "cursor-move"

	// EventContentChange carries the sender's full entry content for relay.
	EventContentChange EventType = "content-change"
)

// Outbound events (server to client).
const (
	// EventRoomJoined acknowledges a successful join and carries the room's
	// current presence roster.
	EventRoomJoined EventType = "room-joined"

	// EventJoinDenied reports a rejected join attempt with a reason.
	EventJoinDenied EventType = "join-denied"

	// EventMemberJoined announces a peer joining a shared room.
	EventMemberJoined EventType = "member-joined"

	// EventMemberLeft announces a peer leaving a shared room.
	EventMemberLeft EventType = "member-left"

	// EventCursorUpdate relays a peer's cursor position.
	EventCursorUpdate EventType = "cursor-update"

	// EventCursorCleared tells peers to erase a departed member's cursor.
	EventCursorCleared EventType = "cursor-cleared"

	// EventContentUpdate relays a peer's debounced content payload.
	EventContentUpdate EventType = "content-update"

	// EventError reports a per-event validation failure to the sender.
	EventError EventType = "error"
)

// Deny reasons carried by EventJoinDenied.
const (
	ReasonNotFound      = "not found"
	ReasonNotAuthorized = "not authorized"
)

// Event is the envelope wrapping every message on the wire.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals the payload and wraps it in an envelope, returning the
// frame bytes ready for the client's send queue.
func NewEvent(eventType EventType, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Event{
		Type:    eventType,
		Payload: payloadBytes,
	})
}

// JoinDocumentPayload is the payload of EventJoinDocument and EventLeaveDocument.
type JoinDocumentPayload struct {
	DocumentID string `json:"documentId"`
}

// CursorMovePayload is the payload of EventCursorMove. Position is relayed
// verbatim; the server never inspects it.
type CursorMovePayload struct {
	DocumentID string          `json:"documentId"`
	Position   json.RawMessage `json:"position"`
	Color      string          `json:"color,omitempty"`
}

// ContentChangePayload is the payload of EventContentChange. Payload is the
// full serialized entry content, opaque to the server.
type ContentChangePayload struct {
	DocumentID string `json:"documentId"`
	Payload    string `json:"payload"`
}

// PresenceEntry describes one room member as seen by its peers.
type PresenceEntry struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	Color        string `json:"color"`
}

// RoomJoinedPayload is the payload of EventRoomJoined, sent only to the joiner.
type RoomJoinedPayload struct {
	DocumentID string          `json:"documentId"`
	Members    []PresenceEntry `json:"members"`
}

// JoinDeniedPayload is the payload of EventJoinDenied.
type JoinDeniedPayload struct {
	DocumentID string `json:"documentId"`
	Reason     string `json:"reason"`
}

// MemberJoinedPayload is the payload of EventMemberJoined. Identity fields are
// always the server-verified values resolved at handshake time.
type MemberJoinedPayload struct {
	DocumentID   string `json:"documentId"`
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	Color        string `json:"color"`
}

// MemberLeftPayload is the payload of EventMemberLeft.
type MemberLeftPayload struct {
	DocumentID   string `json:"documentId"`
	ConnectionID string `json:"connectionId"`
}

// CursorUpdatePayload is the payload of EventCursorUpdate.
type CursorUpdatePayload struct {
	DocumentID   string          `json:"documentId"`
	ConnectionID string          `json:"connectionId"`
	UserID       string          `json:"userId"`
	DisplayName  string          `json:"displayName"`
	Color        string          `json:"color"`
	Position     json.RawMessage `json:"position"`
}

// CursorClearedPayload is the payload of EventCursorCleared.
type CursorClearedPayload struct {
	DocumentID   string `json:"documentId"`
	ConnectionID string `json:"connectionId"`
}

// ContentUpdatePayload is the payload of EventContentUpdate.
type ContentUpdatePayload struct {
	DocumentID   string `json:"documentId"`
	ConnectionID string `json:"connectionId"`
	Payload      string `json:"payload"`
}

// ErrorPayload is the payload of EventError.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
