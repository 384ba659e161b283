// Package config provides unified configuration loading from files,
// environment variables, and CLI flags using viper and pflag.
//
// Resolution order (highest wins):
//  1. CLI flags
//  2. Environment variables (prefix OTTERSCALE_)
//  3. Config file (config.yaml in . or /etc/otterscale/)
//  4. Compiled defaults
package config

// Viper keys for gateway configuration.
const (
	keyGatewayAddress        = "gateway.address"
	keyGatewayAllowedOrigins = "gateway.allowed_origins"
	keyGatewayRoutes         = "gateway.routes"
	keyGatewayDebugEnabled   = "gateway.debug.enabled"
)

// Viper keys for the resource-server (token verification) layer.
const (
	keyGatewayAuthEnabled      = "gateway.auth.enabled"
	keyGatewayKeycloakRealmURL = "gateway.keycloak.realm_url"
	keyGatewayKeycloakClientID = "gateway.keycloak.client_id"
)

// Viper keys for the user directory and reconciliation policy.
const (
	keyGatewayDirectoryURL            = "gateway.directory.url"
	keyGatewayDirectoryTimeout        = "gateway.directory.timeout"
	keyGatewayDirectoryMaxConcurrency = "gateway.directory.max_concurrency"
	keyGatewayReconcileTrustCallerID  = "gateway.reconcile.trust_caller_id"
)
