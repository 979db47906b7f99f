/*
Package collab contains the real-time collaboration core.

This file defines the Registry, the in-memory map from entry id to the set of
connections joined to it. Rooms exist only while they have members: the first
join creates a room, the last leave deletes it. All mutation and every fan-out
snapshot happen under one lock, so a broadcast can never be computed from a
member set that races a concurrent join or leave.
*/
package collab

import "sync"

// Registry tracks room membership for all live connections. It holds no
// document content and nothing in it is persisted.
type Registry struct {
	// mu guards rooms and joined together.
	mu sync.RWMutex

	// rooms maps entry id to the clients currently joined, keyed by connection id.
	rooms map[string]map[string]*Client

	// joined maps connection id to the set of entry ids it is a member of.
	joined map[string]map[string]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]*Client),
		joined: make(map[string]map[string]struct{}),
	}
}

// Join adds the client to the entry's room, creating the room on first join.
// Joining a room the connection is already in is a no-op; the return value
// reports whether membership actually changed.
func (reg *Registry) Join(client *Client, documentID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[documentID]
	if !ok {
		room = make(map[string]*Client)
		reg.rooms[documentID] = room
	}

	if _, ok := room[client.ID]; ok {
		return false
	}

	room[client.ID] = client

	docs, ok := reg.joined[client.ID]
	if !ok {
		docs = make(map[string]struct{})
		reg.joined[client.ID] = docs
	}
	docs[documentID] = struct{}{}

	return true
}

// Leave removes the client from the entry's room. Leaving a room the
// connection is not in is a no-op. The returned slice holds the remaining
// members, snapshotted under the same lock as the removal so departure
// announcements target exactly the post-removal member set.
func (reg *Registry) Leave(client *Client, documentID string) (bool, []*Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[documentID]
	if !ok {
		return false, nil
	}

	if _, ok := room[client.ID]; !ok {
		return false, nil
	}

	remaining := reg.removeLocked(client, documentID)

	return true, remaining
}

// RemoveConnection removes the client from every room it is a member of,
// returning the remaining members of each, keyed by entry id. Called exactly
// once per connection, on disconnect.
func (reg *Registry) RemoveConnection(client *Client) map[string][]*Client {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	removed := make(map[string][]*Client, len(reg.joined[client.ID]))

	for documentID := range reg.joined[client.ID] {
		removed[documentID] = reg.removeLocked(client, documentID)
	}

	return removed
}

// removeLocked drops the client from one room and garbage-collects empty
// state. Caller must hold mu.
func (reg *Registry) removeLocked(client *Client, documentID string) []*Client {
	room := reg.rooms[documentID]

	delete(room, client.ID)
	if len(room) == 0 {
		delete(reg.rooms, documentID)
	}

	docs := reg.joined[client.ID]
	delete(docs, documentID)
	if len(docs) == 0 {
		delete(reg.joined, client.ID)
	}

	remaining := make([]*Client, 0, len(room))
	for _, member := range room {
		remaining = append(remaining, member)
	}

	return remaining
}

// Members returns the entry's current members, excluding the given connection
// id. Broadcasts never echo back to their sender.
func (reg *Registry) Members(documentID, exceptConnectionID string) []*Client {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room := reg.rooms[documentID]

	members := make([]*Client, 0, len(room))
	for id, member := range room {
		if id == exceptConnectionID {
			continue
		}
		members = append(members, member)
	}

	return members
}

// IsMember reports whether the connection is currently joined to the entry.
func (reg *Registry) IsMember(connectionID, documentID string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[documentID]
	if !ok {
		return false
	}

	_, ok = room[connectionID]
	return ok
}

// Rooms returns the entry ids the connection is currently joined to.
func (reg *Registry) Rooms(connectionID string) []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	docs := make([]string, 0, len(reg.joined[connectionID]))
	for documentID := range reg.joined[connectionID] {
		docs = append(docs, documentID)
	}

	return docs
}

// Stats returns the number of active rooms and joined connections.
func (reg *Registry) Stats() (rooms, connections int) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms), len(reg.joined)
}
