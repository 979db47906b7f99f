/*
Package store exposes the read-through queries the collaboration core consumes.

The collaboration subsystem never writes document content or identity data; it
only needs three lookups: resolve a credential subject to a live user, load an
entry's access attributes, and check notebook membership. Everything else in
the record store belongs to the CRUD services.
*/
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/app/user"
)

// Share modes carried by journal entries. Only link and community entries can
// be opened through a share token.
const (
	ShareModePrivate   = "private"
	ShareModeLink      = "link"
	ShareModeCommunity = "community"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// EntryAccess holds the access-control attributes of a journal entry.
type EntryAccess struct {
	// OwnerID is the user id of the entry's author.
	OwnerID string

	// NotebookID is the parent notebook id, empty when the entry is standalone.
	NotebookID string

	// ShareMode is one of ShareModePrivate, ShareModeLink, ShareModeCommunity.
	ShareMode string

	// ShareToken is the entry's current share token, empty when none is issued.
	ShareToken string
}

// Store runs the collaboration core's queries against PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetUserByID resolves a user id to its live record.
// Returns ErrNotFound when the account no longer exists.
func (s *Store) GetUserByID(ctx context.Context, id string) (user.User, error) {
	const query = `
		SELECT id, full_name, avatar_url
		FROM users
		WHERE id = $1`

	var (
		u         user.User
		avatarURL pgtype.Text
	)

	err := s.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.FullName, &avatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}

	u.AvatarURL = avatarURL.String

	return u, nil
}

// GetEntryAccess loads the access attributes of a journal entry.
// Returns ErrNotFound when the entry does not exist.
func (s *Store) GetEntryAccess(ctx context.Context, entryID string) (EntryAccess, error) {
	const query = `
		SELECT user_id, notebook_id::text, share_mode, share_token
		FROM journal_entries
		WHERE id = $1`

	var (
		access     EntryAccess
		notebookID pgtype.Text
		shareToken pgtype.Text
	)

	err := s.pool.QueryRow(ctx, query, entryID).Scan(&access.OwnerID, &notebookID, &access.ShareMode, &shareToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return EntryAccess{}, ErrNotFound
	}
	if err != nil {
		return EntryAccess{}, fmt.Errorf("get entry access: %w", err)
	}

	access.NotebookID = notebookID.String
	access.ShareToken = shareToken.String

	return access, nil
}

// HasNotebookMembership reports whether the user holds an active membership
// record for the given notebook.
func (s *Store) HasNotebookMembership(ctx context.Context, userID, notebookID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM notebook_members
			WHERE user_id = $1 AND notebook_id = $2
		)`

	var isMember bool

	if err := s.pool.QueryRow(ctx, query, userID, notebookID).Scan(&isMember); err != nil {
		return false, fmt.Errorf("check notebook membership: %w", err)
	}

	return isMember, nil
}
