package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims for an Inkwell identity credential.
// The auth service issues these at login; this server only validates them and
// resolves the subject to a live user record.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer), required for validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the identifier of the user record the credential was issued for.
	UserID string `json:"userId"`
}
