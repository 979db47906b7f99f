/*
Package collab contains the real-time collaboration core.

This file implements the credential verifier run once per connection, before
the WebSocket upgrade. It validates the bearer JWT's signature and expiry,
then resolves the embedded subject id to a live user record, so a deleted
account cannot keep collaborating on an old credential.
*/
package collab

import (
	"context"
	"errors"

	"inkwell/internal/app/store"
	"inkwell/internal/app/user"
	"inkwell/internal/pkg/auth/jwt"
	"inkwell/internal/pkg/errs"
	"inkwell/internal/pkg/logx"
)

// UserStore is the slice of the record store the credential verifier consumes.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (user.User, error)
}

// CredentialVerifier authenticates handshake credentials.
type CredentialVerifier struct {
	secret string
	users  UserStore
}

// NewCredentialVerifier constructs a CredentialVerifier with the signing
// secret shared with the auth service.
func NewCredentialVerifier(secret string, users UserStore) *CredentialVerifier {
	return &CredentialVerifier{
		secret: secret,
		users:  users,
	}
}

// Verify validates the raw bearer credential and resolves it to a user
// identity. Any non-nil error aborts the handshake before the connection is
// admitted.
func (v *CredentialVerifier) Verify(ctx context.Context, rawCredential string) (user.User, *errs.CustomError) {
	if rawCredential == "" {
		return user.User{}, errs.NewError(errs.ErrNoCredential)
	}

	payload, err := jwt.ParseToken(rawCredential, v.secret)
	if err != nil {
		logx.Warn("Handshake credential failed validation", "error", err.Error())
		return user.User{}, errs.NewError(errs.ErrInvalidCredential)
	}

	subject, err := v.users.GetUserByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logx.Warn("Handshake credential references a deleted account", "user_id", payload.UserID)
			return user.User{}, errs.NewError(errs.ErrSubjectNotFound)
		}

		logx.Error(err, "User lookup failed during handshake", "user_id", payload.UserID)
		return user.User{}, errs.NewError(errs.ErrInvalidCredential)
	}

	return subject, nil
}
