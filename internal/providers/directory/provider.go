package directory

import (
	"github.com/otterscale/otterscale-gateway/internal/config"
	"github.com/otterscale/otterscale-gateway/internal/core"
)

// NewUserDirectory is a Wire provider that builds the HTTP directory
// client from configuration and bounds its concurrency.
func NewUserDirectory(conf *config.Config) (core.UserDirectory, error) {
	client, err := NewClient(conf.GatewayDirectoryURL())
	if err != nil {
		return nil, err
	}
	return Limit(client, conf.GatewayDirectoryMaxConcurrency()), nil
}
