/*
Package collab contains the real-time collaboration core.

This file implements the access resolver deciding whether an authenticated
connection may join an entry's room. Three paths grant access, checked
cheapest first: ownership, notebook membership, and a matching share token.
The decision is recomputed on every join attempt; share modes and memberships
change between joins, so nothing here is cached.
*/
package collab

import (
	"context"
	"crypto/subtle"
	"errors"

	"inkwell/internal/app/store"
	"inkwell/internal/pkg/errs"
	"inkwell/internal/pkg/logx"
)

// EntryStore is the slice of the record store the access resolver consumes.
type EntryStore interface {
	GetEntryAccess(ctx context.Context, entryID string) (store.EntryAccess, error)
	HasNotebookMembership(ctx context.Context, userID, notebookID string) (bool, error)
}

// AccessResolver decides whether a user may join an entry's room.
type AccessResolver struct {
	entries EntryStore
}

// NewAccessResolver constructs an AccessResolver over the given store.
func NewAccessResolver(entries EntryStore) *AccessResolver {
	return &AccessResolver{entries: entries}
}

// Authorize returns nil when the user may join the entry's room, or a
// CustomError describing the denial. A missing entry yields ErrEntryNotFound;
// every other denial, including store failures, yields ErrNotAuthorized so no
// store detail reaches the client.
func (a *AccessResolver) Authorize(ctx context.Context, userID, entryID, capabilityToken string) *errs.CustomError {
	access, err := a.entries.GetEntryAccess(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.NewError(errs.ErrEntryNotFound)
		}

		logx.Error(err, "Entry access lookup failed during join authorization", "entry_id", entryID)
		return errs.NewError(errs.ErrNotAuthorized)
	}

	// Path 1: direct ownership.
	if access.OwnerID == userID {
		return nil
	}

	// Path 2: membership in the entry's parent notebook.
	if access.NotebookID != "" {
		isMember, err := a.entries.HasNotebookMembership(ctx, userID, access.NotebookID)
		if err != nil {
			logx.Error(err, "Notebook membership lookup failed during join authorization",
				"entry_id", entryID, "notebook_id", access.NotebookID)
			return errs.NewError(errs.ErrNotAuthorized)
		}
		if isMember {
			return nil
		}
	}

	// Path 3: share token, only for entries shared by link or to the community.
	if tokenGrantsAccess(access, capabilityToken) {
		return nil
	}

	return errs.NewError(errs.ErrNotAuthorized)
}

// tokenGrantsAccess reports whether the presented capability token opens the
// entry. Private entries never qualify regardless of the token.
func tokenGrantsAccess(access store.EntryAccess, capabilityToken string) bool {
	if capabilityToken == "" || access.ShareToken == "" {
		return false
	}

	if access.ShareMode != store.ShareModeLink && access.ShareMode != store.ShareModeCommunity {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(capabilityToken), []byte(access.ShareToken)) == 1
}
