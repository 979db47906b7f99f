/*
Package user contains the core identity data structure shared by the
collaboration subsystem.

The User struct is always populated from a server-side lookup at handshake
time; it is the only identity ever attached to broadcast events.
*/
package user

// User is the server-verified identity of a connected participant.
// Fields carry JSON tags for serialization in WebSocket events.
type User struct {

	// ID is the unique identifier of the user record in the store.
	ID string `json:"id"`

	// FullName is the display name shown to other collaborators.
	FullName string `json:"fullName"`

	// AvatarURL is the URL for the user's avatar, if one is set.
	AvatarURL string `json:"avatarUrl,omitempty"`
}
