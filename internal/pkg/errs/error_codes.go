/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1002
)

// 2xxx: Entry and Room Business Logic Errors
const (
	// ErrEntryNotFound indicates that the journal entry a connection tried to join does not exist.
	ErrEntryNotFound = 2001

	// ErrNotAuthorized indicates that none of the access paths (owner, notebook
	// membership, share token) granted access to the entry.
	ErrNotAuthorized = 2002

	// ErrContentTooLarge indicates that a content payload exceeded the relay's byte bound.
	ErrContentTooLarge = 2101
)

// 3xxx: Credential and Session Errors
const (
	// ErrNoCredential indicates that no bearer credential was presented at handshake time.
	ErrNoCredential = 3001

	// ErrInvalidCredential indicates a credential with a bad signature or past expiry.
	ErrInvalidCredential = 3002

	// ErrSubjectNotFound indicates a validly signed credential whose subject no longer exists.
	ErrSubjectNotFound = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
