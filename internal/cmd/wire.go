// Package cmd defines the Cobra subcommands (serve, inspect-token) and
// their Wire provider set. It bridges configuration, dependency
// injection, and the transport layer.
package cmd

import (
	"github.com/google/wire"

	"github.com/otterscale/otterscale-gateway/internal/cmd/server"
)

// ProviderSet is the Wire provider set for the CLI layer.
var ProviderSet = wire.NewSet(
	server.NewServer,
	server.NewHandler,
)
