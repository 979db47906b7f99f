package collab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/app/store"
	"inkwell/internal/app/user"
	"inkwell/internal/pkg/auth/jwt"
	"inkwell/internal/pkg/errs"
)

const testSecret = "test-secret"

type fakeUserStore struct {
	users map[string]user.User
	err   error
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (user.User, error) {
	if f.err != nil {
		return user.User{}, f.err
	}

	u, ok := f.users[id]
	if !ok {
		return user.User{}, store.ErrNotFound
	}
	return u, nil
}

func mintCredential(t *testing.T, userID string, duration time.Duration) string {
	t.Helper()

	token, err := jwt.GenerateToken(&jwt.Payload{UserID: userID}, testSecret, duration)
	require.NoError(t, err)
	return token
}

func TestVerifierResolvesLiveUser(t *testing.T) {
	users := &fakeUserStore{users: map[string]user.User{
		"u1": {ID: "u1", FullName: "Alice"},
	}}
	v := NewCredentialVerifier(testSecret, users)

	identity, customErr := v.Verify(context.Background(), mintCredential(t, "u1", time.Hour))

	require.Nil(t, customErr)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "Alice", identity.FullName)
}

func TestVerifierRejectsMissingCredential(t *testing.T) {
	v := NewCredentialVerifier(testSecret, &fakeUserStore{})

	_, customErr := v.Verify(context.Background(), "")

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrNoCredential, customErr.Code)
}

func TestVerifierRejectsExpiredCredential(t *testing.T) {
	v := NewCredentialVerifier(testSecret, &fakeUserStore{users: map[string]user.User{
		"u1": {ID: "u1", FullName: "Alice"},
	}})

	_, customErr := v.Verify(context.Background(), mintCredential(t, "u1", -time.Hour))

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrInvalidCredential, customErr.Code)
}

func TestVerifierRejectsWrongSignature(t *testing.T) {
	v := NewCredentialVerifier("a-different-secret", &fakeUserStore{})

	_, customErr := v.Verify(context.Background(), mintCredential(t, "u1", time.Hour))

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrInvalidCredential, customErr.Code)
}

func TestVerifierRejectsDeletedSubject(t *testing.T) {
	// A validly signed credential whose account has since been deleted.
	v := NewCredentialVerifier(testSecret, &fakeUserStore{users: map[string]user.User{}})

	_, customErr := v.Verify(context.Background(), mintCredential(t, "ghost", time.Hour))

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrSubjectNotFound, customErr.Code)
}

func TestVerifierStoreFailureStaysGeneric(t *testing.T) {
	v := NewCredentialVerifier(testSecret, &fakeUserStore{err: errors.New("connection refused")})

	_, customErr := v.Verify(context.Background(), mintCredential(t, "u1", time.Hour))

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrInvalidCredential, customErr.Code)
	assert.NotContains(t, customErr.Message, "connection refused")
}
