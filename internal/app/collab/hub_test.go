package collab

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/app/user"
	"inkwell/internal/pkg/errs"
)

type allowAll struct{}

func (allowAll) Authorize(context.Context, string, string, string) *errs.CustomError {
	return nil
}

type denyAll struct {
	code int
}

func (d denyAll) Authorize(context.Context, string, string, string) *errs.CustomError {
	return errs.NewError(d.code)
}

func newTestHub(access Authorizer) *Hub {
	return NewHub(access, testWindow)
}

func connect(h *Hub, connectionID, userID, name string) *Client {
	c := NewClient(h, nil, connectionID, user.User{ID: userID, FullName: name}, "")
	h.Attach(c)
	return c
}

// drainEvents empties the client's send queue and returns the decoded events.
func drainEvents(t *testing.T, c *Client) []Event {
	t.Helper()

	var events []Event
	for {
		select {
		case frame := <-c.send:
			var e Event
			require.NoError(t, json.Unmarshal(frame, &e))
			events = append(events, e)
		default:
			return events
		}
	}
}

// waitEvent reads from the client's queue until an event of the wanted type
// arrives, failing the test on timeout.
func waitEvent(t *testing.T, c *Client, want EventType) json.RawMessage {
	t.Helper()

	deadline := time.After(time.Second)
	for {
		select {
		case frame := <-c.send:
			var e Event
			require.NoError(t, json.Unmarshal(frame, &e))
			if e.Type == want {
				return e.Payload
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
			return nil
		}
	}
}

func countEvents(events []Event, eventType EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestJoinAnnouncesToPeersOnly(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	drainEvents(t, a)

	h.JoinDocument(ctx, b, "entry1")

	// The existing member learns about the joiner, with server-verified identity.
	payload := waitEvent(t, a, EventMemberJoined)
	var joined MemberJoinedPayload
	require.NoError(t, json.Unmarshal(payload, &joined))
	assert.Equal(t, "connB", joined.ConnectionID)
	assert.Equal(t, "u2", joined.UserID)
	assert.Equal(t, "Bob", joined.DisplayName)
	assert.NotEmpty(t, joined.Color)

	// The joiner gets the roster ack, not its own member-joined.
	bEvents := drainEvents(t, b)
	assert.Equal(t, 1, countEvents(bEvents, EventRoomJoined))
	assert.Zero(t, countEvents(bEvents, EventMemberJoined), "broadcasts never echo back to sender")
}

func TestJoinAckCarriesRoster(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	drainEvents(t, a)

	h.JoinDocument(ctx, b, "entry1")

	roster := waitEvent(t, b, EventRoomJoined)
	var ack RoomJoinedPayload
	require.NoError(t, json.Unmarshal(roster, &ack))
	assert.Equal(t, "entry1", ack.DocumentID)
	require.Len(t, ack.Members, 1)
	assert.Equal(t, "connA", ack.Members[0].ConnectionID)
	assert.Equal(t, "Alice", ack.Members[0].DisplayName)
}

func TestDuplicateJoinBroadcastsOnce(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	drainEvents(t, a)

	h.JoinDocument(ctx, b, "entry1")
	h.JoinDocument(ctx, b, "entry1")

	aEvents := drainEvents(t, a)
	assert.Equal(t, 1, countEvents(aEvents, EventMemberJoined), "a duplicate join must not re-announce")

	// The duplicate join still gets a roster ack.
	bEvents := drainEvents(t, b)
	assert.Equal(t, 2, countEvents(bEvents, EventRoomJoined))
}

func TestJoinDeniedReportsReason(t *testing.T) {
	tests := []struct {
		name       string
		denyCode   int
		wantReason string
	}{
		{"unauthorized entry", errs.ErrNotAuthorized, ReasonNotAuthorized},
		{"missing entry", errs.ErrEntryNotFound, ReasonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHub(denyAll{code: tt.denyCode})

			c := connect(h, "connA", "u1", "Alice")
			h.JoinDocument(context.Background(), c, "entry1")

			payload := waitEvent(t, c, EventJoinDenied)
			var denied JoinDeniedPayload
			require.NoError(t, json.Unmarshal(payload, &denied))
			assert.Equal(t, tt.wantReason, denied.Reason)

			assert.False(t, h.registry.IsMember("connA", "entry1"), "a denied connection must not be registered")
		})
	}
}

func TestCursorRelayCarriesVerifiedIdentity(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	h.JoinDocument(ctx, b, "entry1")
	drainEvents(t, a)
	drainEvents(t, b)

	h.MoveCursor(a, CursorMovePayload{
		DocumentID: "entry1",
		Position:   json.RawMessage(`{"x":10,"y":20}`),
	})

	payload := waitEvent(t, b, EventCursorUpdate)
	var update CursorUpdatePayload
	require.NoError(t, json.Unmarshal(payload, &update))
	assert.Equal(t, "connA", update.ConnectionID)
	assert.Equal(t, "u1", update.UserID, "identity must be the server-verified one")
	assert.Equal(t, "Alice", update.DisplayName)
	assert.JSONEq(t, `{"x":10,"y":20}`, string(update.Position), "position is relayed verbatim")

	assert.Zero(t, countEvents(drainEvents(t, a), EventCursorUpdate), "sender must not receive its own cursor echo")
}

func TestCursorMoveFromNonMemberIsDropped(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, b, "entry1")
	drainEvents(t, b)

	// a never joined entry1; this can legitimately race a recent leave.
	h.MoveCursor(a, CursorMovePayload{
		DocumentID: "entry1",
		Position:   json.RawMessage(`{"x":1}`),
	})

	assert.Empty(t, drainEvents(t, b))
	assert.Empty(t, drainEvents(t, a), "the drop is silent, no error event")
}

func TestContentChangeDebouncedRelay(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	h.JoinDocument(ctx, b, "entry1")
	drainEvents(t, a)
	drainEvents(t, b)

	h.ChangeContent(a, ContentChangePayload{DocumentID: "entry1", Payload: "<p>h</p>"})
	h.ChangeContent(a, ContentChangePayload{DocumentID: "entry1", Payload: "<p>he</p>"})
	h.ChangeContent(a, ContentChangePayload{DocumentID: "entry1", Payload: "<p>hello</p>"})

	payload := waitEvent(t, b, EventContentUpdate)
	var update ContentUpdatePayload
	require.NoError(t, json.Unmarshal(payload, &update))
	assert.Equal(t, "<p>hello</p>", update.Payload, "the burst collapses to its last payload")
	assert.Equal(t, "connA", update.ConnectionID)

	time.Sleep(3 * testWindow)
	assert.Zero(t, countEvents(drainEvents(t, b), EventContentUpdate), "exactly one relay per burst")
	assert.Zero(t, countEvents(drainEvents(t, a), EventContentUpdate), "no echo to the sender")
}

func TestConcurrentSendersClobberEachOther(t *testing.T) {
	// Last-writer-wins: two members editing at once each receive the other's
	// whole payload, unmerged. This is the intended (weak) semantics.
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	h.JoinDocument(ctx, b, "entry1")
	drainEvents(t, a)
	drainEvents(t, b)

	h.ChangeContent(a, ContentChangePayload{DocumentID: "entry1", Payload: "<p>alice's draft</p>"})
	h.ChangeContent(b, ContentChangePayload{DocumentID: "entry1", Payload: "<p>bob's draft</p>"})

	var toB ContentUpdatePayload
	require.NoError(t, json.Unmarshal(waitEvent(t, b, EventContentUpdate), &toB))
	assert.Equal(t, "<p>alice's draft</p>", toB.Payload)

	var toA ContentUpdatePayload
	require.NoError(t, json.Unmarshal(waitEvent(t, a, EventContentUpdate), &toA))
	assert.Equal(t, "<p>bob's draft</p>", toA.Payload)
}

func TestLeaveCancelsPendingRelay(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	h.JoinDocument(ctx, b, "entry1")
	drainEvents(t, a)
	drainEvents(t, b)

	h.ChangeContent(a, ContentChangePayload{DocumentID: "entry1", Payload: "<p>never sent</p>"})
	h.LeaveDocument(a, "entry1")

	time.Sleep(3 * testWindow)

	bEvents := drainEvents(t, b)
	assert.Zero(t, countEvents(bEvents, EventContentUpdate), "leaving while pending cancels the sender's relay")
	assert.Equal(t, 1, countEvents(bEvents, EventMemberLeft))
	assert.Equal(t, 1, countEvents(bEvents, EventCursorCleared))
}

func TestLeaveAnnouncesDeparture(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	h.JoinDocument(ctx, b, "entry1")
	drainEvents(t, a)
	drainEvents(t, b)

	h.LeaveDocument(a, "entry1")

	bEvents := drainEvents(t, b)
	require.Equal(t, 1, countEvents(bEvents, EventMemberLeft))
	require.Equal(t, 1, countEvents(bEvents, EventCursorCleared))

	// cursor-cleared arrives before member-left, so stale cursors vanish first.
	var clearedIdx, leftIdx int
	for i, e := range bEvents {
		switch e.Type {
		case EventCursorCleared:
			clearedIdx = i
		case EventMemberLeft:
			leftIdx = i
		}
	}
	assert.Less(t, clearedIdx, leftIdx)

	assert.False(t, h.registry.IsMember("connA", "entry1"))
}

func TestDisconnectCleansUpEveryRoom(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")
	c := connect(h, "connC", "u3", "Carol")

	h.JoinDocument(ctx, a, "entry1")
	h.JoinDocument(ctx, a, "entry2")
	h.JoinDocument(ctx, b, "entry1")
	h.JoinDocument(ctx, c, "entry2")
	drainEvents(t, a)
	drainEvents(t, b)
	drainEvents(t, c)

	h.Disconnect(a)

	for _, peer := range []*Client{b, c} {
		events := drainEvents(t, peer)
		assert.Equal(t, 1, countEvents(events, EventMemberLeft), "peer %s", peer.ID)
		assert.Equal(t, 1, countEvents(events, EventCursorCleared), "peer %s", peer.ID)
	}

	assert.False(t, h.registry.IsMember("connA", "entry1"))
	assert.False(t, h.registry.IsMember("connA", "entry2"))

	rooms, connections := h.Stats()
	assert.Equal(t, 2, rooms)
	assert.Equal(t, 2, connections)
}

func TestDisconnectCancelsPendingRelays(t *testing.T) {
	h := newTestHub(allowAll{})
	ctx := context.Background()

	a := connect(h, "connA", "u1", "Alice")
	b := connect(h, "connB", "u2", "Bob")

	h.JoinDocument(ctx, a, "entry1")
	h.JoinDocument(ctx, b, "entry1")
	drainEvents(t, a)
	drainEvents(t, b)

	h.ChangeContent(a, ContentChangePayload{DocumentID: "entry1", Payload: "<p>never sent</p>"})
	h.Disconnect(a)

	time.Sleep(3 * testWindow)

	assert.Zero(t, countEvents(drainEvents(t, b), EventContentUpdate))
	assert.Equal(t, 0, h.relay.PendingCount())
}
