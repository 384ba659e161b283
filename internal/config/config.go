package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config wraps a viper instance and exposes typed accessors for every
// known key. Flags must be bound with BindFlags before they take
// effect.
type Config struct {
	v *viper.Viper
}

// New loads defaults, the optional config file, and environment
// variables. A missing config file is not an error.
func New() (*Config, error) {
	v := viper.New()

	// default values
	for _, o := range GatewayOptions {
		v.SetDefault(o.Key, o.Default)
	}

	// load config from file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/otterscale/")

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// load config from environment variables
	v.SetEnvPrefix("OTTERSCALE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return &Config{v: v}, nil
}

// BindFlags registers one flag per option on fs and binds it to the
// option's viper key.
func (c *Config) BindFlags(fs *pflag.FlagSet, options []Option) error {
	for _, o := range options {
		switch v := o.Default.(type) {
		case string:
			fs.String(o.Flag, v, o.Description)
		case int:
			fs.Int(o.Flag, v, o.Description)
		case bool:
			fs.Bool(o.Flag, v, o.Description)
		case []string:
			fs.StringSlice(o.Flag, v, o.Description)
		case time.Duration:
			fs.Duration(o.Flag, v, o.Description)
		default:
			return fmt.Errorf("unsupported flag type for key: %s", o.Key)
		}

		if err := c.v.BindPFlag(o.Key, fs.Lookup(o.Flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}

	return nil
}

func (c *Config) GatewayAddress() string {
	return c.v.GetString(keyGatewayAddress) // OTTERSCALE_GATEWAY_ADDRESS
}

func (c *Config) GatewayAllowedOrigins() []string {
	return c.v.GetStringSlice(keyGatewayAllowedOrigins) // OTTERSCALE_GATEWAY_ALLOWED_ORIGINS
}

func (c *Config) GatewayRoutes() []string {
	return c.v.GetStringSlice(keyGatewayRoutes) // OTTERSCALE_GATEWAY_ROUTES
}

func (c *Config) GatewayDebugEnabled() bool {
	return c.v.GetBool(keyGatewayDebugEnabled) // OTTERSCALE_GATEWAY_DEBUG_ENABLED
}

func (c *Config) GatewayAuthEnabled() bool {
	return c.v.GetBool(keyGatewayAuthEnabled) // OTTERSCALE_GATEWAY_AUTH_ENABLED
}

func (c *Config) GatewayKeycloakRealmURL() string {
	return c.v.GetString(keyGatewayKeycloakRealmURL) // OTTERSCALE_GATEWAY_KEYCLOAK_REALM_URL
}

func (c *Config) GatewayKeycloakClientID() string {
	return c.v.GetString(keyGatewayKeycloakClientID) // OTTERSCALE_GATEWAY_KEYCLOAK_CLIENT_ID
}

func (c *Config) GatewayDirectoryURL() string {
	return c.v.GetString(keyGatewayDirectoryURL) // OTTERSCALE_GATEWAY_DIRECTORY_URL
}

func (c *Config) GatewayDirectoryTimeout() time.Duration {
	return c.v.GetDuration(keyGatewayDirectoryTimeout) // OTTERSCALE_GATEWAY_DIRECTORY_TIMEOUT
}

func (c *Config) GatewayDirectoryMaxConcurrency() int {
	return c.v.GetInt(keyGatewayDirectoryMaxConcurrency) // OTTERSCALE_GATEWAY_DIRECTORY_MAX_CONCURRENCY
}

func (c *Config) GatewayReconcileTrustCallerID() bool {
	return c.v.GetBool(keyGatewayReconcileTrustCallerID) // OTTERSCALE_GATEWAY_RECONCILE_TRUST_CALLER_ID
}
