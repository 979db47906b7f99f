package collab

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/app/store"
	"inkwell/internal/pkg/errs"
)

type fakeEntryStore struct {
	entries       map[string]store.EntryAccess
	memberships   map[string]bool // userID + "/" + notebookID
	entryErr      error
	membershipErr error
}

func (f *fakeEntryStore) GetEntryAccess(_ context.Context, entryID string) (store.EntryAccess, error) {
	if f.entryErr != nil {
		return store.EntryAccess{}, f.entryErr
	}

	access, ok := f.entries[entryID]
	if !ok {
		return store.EntryAccess{}, store.ErrNotFound
	}
	return access, nil
}

func (f *fakeEntryStore) HasNotebookMembership(_ context.Context, userID, notebookID string) (bool, error) {
	if f.membershipErr != nil {
		return false, f.membershipErr
	}
	return f.memberships[userID+"/"+notebookID], nil
}

func TestAccessResolverAuthorize(t *testing.T) {
	entries := map[string]store.EntryAccess{
		"owned": {
			OwnerID:   "alice",
			ShareMode: store.ShareModePrivate,
		},
		"notebook-entry": {
			OwnerID:    "alice",
			NotebookID: "nb1",
			ShareMode:  store.ShareModePrivate,
		},
		"link-shared": {
			OwnerID:    "alice",
			ShareMode:  store.ShareModeLink,
			ShareToken: "tok-link",
		},
		"community-shared": {
			OwnerID:    "alice",
			ShareMode:  store.ShareModeCommunity,
			ShareToken: "tok-comm",
		},
		"private-with-token": {
			OwnerID:    "alice",
			ShareMode:  store.ShareModePrivate,
			ShareToken: "tok-priv",
		},
	}
	memberships := map[string]bool{
		"bob/nb1": true,
	}

	tests := []struct {
		name     string
		userID   string
		entryID  string
		token    string
		wantCode int // 0 means allowed
	}{
		{"owner is allowed", "alice", "owned", "", 0},
		{"notebook member is allowed", "bob", "notebook-entry", "", 0},
		{"non-member without token is denied", "carol", "owned", "", errs.ErrNotAuthorized},
		{"valid token on link-shared entry is allowed", "carol", "link-shared", "tok-link", 0},
		{"valid token on community-shared entry is allowed", "carol", "community-shared", "tok-comm", 0},
		{"wrong token on link-shared entry is denied", "carol", "link-shared", "tok-other", errs.ErrNotAuthorized},
		{"any token on private entry is denied", "carol", "private-with-token", "tok-priv", errs.ErrNotAuthorized},
		{"no token on private entry is denied", "carol", "private-with-token", "", errs.ErrNotAuthorized},
		{"missing entry is a distinct denial", "alice", "missing", "", errs.ErrEntryNotFound},
		{"non-member of the notebook is denied", "carol", "notebook-entry", "", errs.ErrNotAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewAccessResolver(&fakeEntryStore{
				entries:     entries,
				memberships: memberships,
			})

			denial := resolver.Authorize(context.Background(), tt.userID, tt.entryID, tt.token)

			if tt.wantCode == 0 {
				assert.Nil(t, denial)
			} else {
				require.NotNil(t, denial)
				assert.Equal(t, tt.wantCode, denial.Code)
			}
		})
	}
}

func TestAccessResolverStoreFailureIsGenericDenial(t *testing.T) {
	resolver := NewAccessResolver(&fakeEntryStore{
		entryErr: errors.New("connection refused"),
	})

	denial := resolver.Authorize(context.Background(), "alice", "owned", "")

	require.NotNil(t, denial)
	assert.Equal(t, errs.ErrNotAuthorized, denial.Code)
	assert.NotContains(t, denial.Message, "connection refused", "store detail must not leak to the client")
}

func TestAccessResolverMembershipFailureIsGenericDenial(t *testing.T) {
	resolver := NewAccessResolver(&fakeEntryStore{
		entries: map[string]store.EntryAccess{
			"notebook-entry": {OwnerID: "alice", NotebookID: "nb1", ShareMode: store.ShareModePrivate},
		},
		membershipErr: errors.New("connection refused"),
	})

	denial := resolver.Authorize(context.Background(), "bob", "notebook-entry", "")

	require.NotNil(t, denial)
	assert.Equal(t, errs.ErrNotAuthorized, denial.Code)
}

func TestAccessResolverOwnerSkipsStoreLookups(t *testing.T) {
	// Ownership is the cheapest path; a membership store outage must not
	// affect the owner.
	resolver := NewAccessResolver(&fakeEntryStore{
		entries: map[string]store.EntryAccess{
			"notebook-entry": {OwnerID: "alice", NotebookID: "nb1", ShareMode: store.ShareModePrivate},
		},
		membershipErr: errors.New("connection refused"),
	})

	denial := resolver.Authorize(context.Background(), "alice", "notebook-entry", "")

	assert.Nil(t, denial)
}
