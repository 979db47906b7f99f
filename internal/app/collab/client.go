/*
Package collab contains the real-time collaboration core.

This file defines the Client struct, representing one live WebSocket
connection and its server-verified identity. It runs the read/write pumps,
dispatches inbound events to the Hub, and guarantees cleanup when the
transport closes, gracefully or not.
*/
package collab

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"inkwell/internal/app/user"
	"inkwell/internal/pkg/errs"
	"inkwell/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame. Content payloads
	// are full serialized entries, so this is generous.
	maxMessageSize = 1 << 20

	// MaxContentBytes bounds the content payload accepted for relay.
	MaxContentBytes = 512 << 10

	// authorizeTimeout bounds the store lookups behind a join request.
	authorizeTimeout = 5 * time.Second
)

// Client represents an active WebSocket connection and its authenticated user.
type Client struct {
	// ID is the opaque identifier of this connection.
	ID string

	// hub coordinates rooms and broadcasts for all connections.
	hub *Hub

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// user is the server-verified identity resolved at handshake time.
	user user.User

	// capabilityToken is the optional share token presented at handshake,
	// consulted on every join attempt.
	capabilityToken string

	// send queues frames waiting to be written to the connection.
	send chan []byte

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an admitted connection.
func NewClient(hub *Hub, wsConn *websocket.Conn, connectionID string, identity user.User, capabilityToken string) *Client {
	clientLogger := logx.Logger().With().
		Str("connection_id", connectionID).
		Str("user_id", identity.ID).
		Logger()

	return &Client{
		ID:              connectionID,
		hub:             hub,
		conn:            wsConn,
		user:            identity,
		capabilityToken: capabilityToken,
		send:            make(chan []byte, 256),
		logger:          clientLogger,
	}
}

// User returns the connection's server-verified identity.
func (c *Client) User() user.User {
	return c.user
}

// ReadPump reads frames from the WebSocket connection and dispatches them.
// It handles heartbeats (Pong) and performs cleanup when the connection
// closes for any reason.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		c.processInboundEvent(frame)
	}
}

// cleanupOnDisconnect runs when the read pump terminates. Room membership,
// pending relays, and presence state are all torn down here, so an abrupt
// network drop cleans up exactly like a graceful close.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.hub.Disconnect(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error during cleanup")
	}
}

// processInboundEvent parses one inbound frame and routes it by event type.
func (c *Client) processInboundEvent(frame []byte) {
	var event Event
	if err := json.Unmarshal(frame, &event); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	switch event.Type {
	case EventJoinDocument:
		c.handleJoin(event.Payload)

	case EventLeaveDocument:
		c.handleLeave(event.Payload)

	case EventCursorMove:
		c.handleCursorMove(event.Payload)

	case EventContentChange:
		c.handleContentChange(event.Payload)

	default:
		c.logger.Warn().Str("event_type", string(event.Type)).Msg("Client sent unsupported event type")
	}
}

// handleJoin processes a join-document request.
func (c *Client) handleJoin(payloadBytes json.RawMessage) {
	var payload JoinDocumentPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.DocumentID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
	defer cancel()

	c.hub.JoinDocument(ctx, c, payload.DocumentID)
}

// handleLeave processes a leave-document request.
func (c *Client) handleLeave(payloadBytes json.RawMessage) {
	var payload JoinDocumentPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.DocumentID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	c.hub.LeaveDocument(c, payload.DocumentID)
}

// handleCursorMove processes a cursor-move event.
func (c *Client) handleCursorMove(payloadBytes json.RawMessage) {
	var payload CursorMovePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.DocumentID == "" {
		// Malformed cursor traffic is dropped, not surfaced: it is ephemeral
		// and the next move supersedes it anyway.
		c.logger.Debug().Msg("Dropping malformed cursor-move")
		return
	}

	c.hub.MoveCursor(c, payload)
}

// handleContentChange processes a content-change event.
func (c *Client) handleContentChange(payloadBytes json.RawMessage) {
	var payload ContentChangePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.DocumentID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if len(payload.Payload) > MaxContentBytes {
		c.SendError(errs.NewError(errs.ErrContentTooLarge))
		return
	}

	c.hub.ChangeContent(c, payload)
}

// WritePump writes queued frames to the WebSocket connection and maintains
// the heartbeat.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame pulled from the send queue.
// Returns false when the write pump should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePing sends a heartbeat ping. Returns false on write failure.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// SendEvent marshals and queues an outbound event for this connection.
func (c *Client) SendEvent(eventType EventType, payload any) {
	frame, err := NewEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal outbound event")
		return
	}

	c.queue(frame)
}

// SendError queues an error event describing the failure to this connection.
func (c *Client) SendError(customErr *errs.CustomError) {
	c.SendEvent(EventError, ErrorPayload{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

// queue enqueues a frame without blocking. A full queue drops the frame: a
// client that cannot drain 256 frames is effectively dead and the heartbeat
// will reap it.
func (c *Client) queue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame")
	}
}

// Close closes the underlying connection, which unblocks the read pump and
// triggers the normal disconnect cleanup.
func (c *Client) Close() {
	if c.conn == nil {
		return
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to write close frame")
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}
}
