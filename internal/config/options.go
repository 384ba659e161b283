package config

import (
	"strings"
	"time"
)

// Option describes a single configuration entry: its viper key, the
// corresponding CLI flag name, the compiled default, and a
// human-readable description shown in --help output.
type Option struct {
	Key         string
	Flag        string
	Default     any
	Description string
}

// GatewayOptions defines the configuration entries available to the
// gateway serve command. Each entry is registered as a viper default
// and a CLI flag.
var GatewayOptions = []Option{
	{Key: keyGatewayAddress, Flag: toFlag(keyGatewayAddress), Default: ":8080", Description: "Gateway listen address"},
	{Key: keyGatewayAllowedOrigins, Flag: toFlag(keyGatewayAllowedOrigins), Default: []string{}, Description: "Gateway allowed origins"},
	{Key: keyGatewayRoutes, Flag: toFlag(keyGatewayRoutes), Default: []string{}, Description: "Gateway upstream routes in prefix=url form"},
	{Key: keyGatewayDebugEnabled, Flag: toFlag(keyGatewayDebugEnabled), Default: false, Description: "Gateway debug logging enabled"},
	{Key: keyGatewayAuthEnabled, Flag: toFlag(keyGatewayAuthEnabled), Default: true, Description: "Verify bearer tokens against the keycloak realm"},
	{Key: keyGatewayKeycloakRealmURL, Flag: toFlag(keyGatewayKeycloakRealmURL), Default: "https://keycloak.example.com/realms/otterscale", Description: "Gateway keycloak realm url"},
	{Key: keyGatewayKeycloakClientID, Flag: toFlag(keyGatewayKeycloakClientID), Default: "otterscale", Description: "Gateway keycloak client id"},
	{Key: keyGatewayDirectoryURL, Flag: toFlag(keyGatewayDirectoryURL), Default: "http://127.0.0.1:8081/api", Description: "User directory base url"},
	{Key: keyGatewayDirectoryTimeout, Flag: toFlag(keyGatewayDirectoryTimeout), Default: 3 * time.Second, Description: "User directory call timeout"},
	{Key: keyGatewayDirectoryMaxConcurrency, Flag: toFlag(keyGatewayDirectoryMaxConcurrency), Default: 64, Description: "Maximum concurrent user directory calls"},
	{Key: keyGatewayReconcileTrustCallerID, Flag: toFlag(keyGatewayReconcileTrustCallerID), Default: false, Description: "Propagate a caller supplied X-User-ID without directory reconciliation"},
}

// toFlag converts a viper key like "gateway.directory.max_concurrency"
// into a CLI flag like "directory-max-concurrency" by lower-casing,
// replacing dots and underscores with hyphens, and stripping the
// "gateway-" prefix.
func toFlag(key string) string {
	flag := strings.ToLower(key)
	flag = strings.ReplaceAll(flag, ".", "-")
	flag = strings.ReplaceAll(flag, "_", "-")
	flag = strings.TrimPrefix(flag, "gateway-")
	return flag
}
