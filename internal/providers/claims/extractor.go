// Package claims implements core.ClaimsExtractor on top of
// golang-jwt. With authentication enabled, tokens reaching the extractor
// have already been verified by the resource-server middleware, so only
// the claim set is decoded.
package claims

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/otterscale/otterscale-gateway/internal/core"
)

const bearerPrefix = "Bearer "

// tokenClaims is the subset of OIDC claims the gateway reads.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Extractor decodes bearer tokens without verifying their signature
// or interpreting their alg header.
type Extractor struct {
	parser *jwt.Parser
}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{parser: jwt.NewParser()}
}

var _ core.ClaimsExtractor = (*Extractor)(nil)

// Extract strips one literal "Bearer " prefix, trims whitespace and
// decodes the token's claim set. The subject claim is required.
func (e *Extractor) Extract(authorization string) (core.IdentityClaims, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix))
	if raw == "" {
		return core.IdentityClaims{}, &core.ErrClaimsUnavailable{Reason: "empty token"}
	}

	claims, err := e.decode(raw)
	if err != nil {
		return core.IdentityClaims{}, &core.ErrClaimsUnavailable{Reason: "malformed token", Err: err}
	}

	if claims.Subject == "" {
		return core.IdentityClaims{}, &core.ErrClaimsUnavailable{Reason: "missing sub claim"}
	}

	return core.IdentityClaims{
		ExternalID: claims.Subject,
		Email:      claims.Email,
		FirstName:  claims.GivenName,
		LastName:   claims.FamilyName,
	}, nil
}

// decode reads the header and claim segments of a compact JWS. The alg
// header is not interpreted, so tokens signed with algorithms the jwt
// package does not implement still yield their claims.
func (e *Extractor) decode(raw string) (tokenClaims, error) {
	var claims tokenClaims

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return claims, fmt.Errorf("token has %d segments, want 3", len(parts))
	}

	headerJSON, err := e.parser.DecodeSegment(parts[0])
	if err != nil {
		return claims, fmt.Errorf("decode header: %w", err)
	}
	var header map[string]any
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return claims, fmt.Errorf("unmarshal header: %w", err)
	}

	claimsJSON, err := e.parser.DecodeSegment(parts[1])
	if err != nil {
		return claims, fmt.Errorf("decode claims: %w", err)
	}
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return claims, fmt.Errorf("unmarshal claims: %w", err)
	}

	return claims, nil
}
