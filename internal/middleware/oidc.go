// Package middleware provides the gateway's HTTP middleware: OIDC
// resource-server verification and identity reconciliation.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/authn"
	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/otterscale/otterscale-gateway/internal/identity"
)

// keycloakClaims holds the custom claims extracted from a Keycloak
// ID token.
type keycloakClaims struct {
	Email  string   `json:"email"`
	Groups []string `json:"groups"`
}

// NewOIDC creates an authentication middleware that verifies bearer
// tokens against the given OIDC issuer and client ID.
//
// Requests without an Authorization header pass through anonymously;
// only a present but unverifiable token is rejected. On success the
// caller's identity.UserInfo is stored in the request context.
func NewOIDC(issuer, clientID string) (*authn.Middleware, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init oidc provider: %w", err)
	}

	return newOIDC(provider.Verifier(&oidc.Config{
		ClientID: clientID,
	})), nil
}

func newOIDC(verifier *oidc.IDTokenVerifier) *authn.Middleware {
	authenticate := func(ctx context.Context, r *http.Request) (any, error) {
		if r.Header.Get("Authorization") == "" {
			return nil, nil
		}

		token, found := authn.BearerToken(r)
		if !found || token == "" {
			return nil, authn.Errorf("missing or invalid bearer token")
		}

		idToken, err := verifier.Verify(ctx, token)
		if err != nil {
			return nil, authn.Errorf("invalid token: %s", err)
		}

		var claims keycloakClaims
		if err := idToken.Claims(&claims); err != nil {
			return nil, authn.Errorf("parse token claims: %s", err)
		}

		groups := make([]string, 0, len(claims.Groups)+1)
		groups = append(groups, "system:authenticated")
		for _, g := range claims.Groups {
			groups = append(groups, "oidc:"+g)
		}

		return identity.UserInfo{
			Subject: idToken.Subject,
			Email:   claims.Email,
			Groups:  groups,
		}, nil
	}

	return authn.NewMiddleware(authenticate)
}
