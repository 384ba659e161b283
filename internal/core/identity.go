package core

import "github.com/google/uuid"

// IdentityClaims is the caller identity decoded from a bearer token.
// ExternalID carries the token subject and is the canonical identity
// used by every downstream service.
type IdentityClaims struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// Registrable reports whether the claims carry enough data for the
// directory to create a user record.
func (c IdentityClaims) Registrable() bool {
	return c.ExternalID != "" && c.Email != ""
}

// RegistrationRequest asks the directory to create a user record for
// an identity it does not know yet. The directory's account creation
// requires a credential even though authentication is delegated to
// the identity provider, so PlaceholderCredential is a random value
// that is never used to log in.
type RegistrationRequest struct {
	ExternalID            string
	Email                 string
	FirstName             string
	LastName              string
	PlaceholderCredential string
}

// NewRegistrationRequest builds a RegistrationRequest from claims with
// a fresh placeholder credential.
func NewRegistrationRequest(claims IdentityClaims) RegistrationRequest {
	return RegistrationRequest{
		ExternalID:            claims.ExternalID,
		Email:                 claims.Email,
		FirstName:             claims.FirstName,
		LastName:              claims.LastName,
		PlaceholderCredential: uuid.NewString(),
	}
}

// RegisteredUser is the durable user record returned by the directory.
type RegisteredUser struct {
	ID         string
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// ClaimsExtractor decodes an Authorization header value into identity
// claims. Implementations must not verify signatures or perform I/O.
type ClaimsExtractor interface {
	Extract(authorization string) (IdentityClaims, error)
}
