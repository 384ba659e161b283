//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/spf13/cobra"

	"github.com/otterscale/otterscale-gateway/internal/cmd"
	"github.com/otterscale/otterscale-gateway/internal/cmd/server"
	"github.com/otterscale/otterscale-gateway/internal/config"
	"github.com/otterscale/otterscale-gateway/internal/core"
	"github.com/otterscale/otterscale-gateway/internal/handler"
	"github.com/otterscale/otterscale-gateway/internal/middleware"
	"github.com/otterscale/otterscale-gateway/internal/providers"
	"github.com/otterscale/otterscale-gateway/internal/providers/claims"
)

func wireCmd() (*cobra.Command, func(), error) {
	panic(wire.Build(
		newCmd,
		claims.ProviderSet,
		config.ProviderSet,
	))
}

func wireServer(conf *config.Config) (*server.Server, func(), error) {
	panic(wire.Build(
		provideDirectoryConfig,
		provideReconcileConfig,
		cmd.ProviderSet,
		handler.ProviderSet,
		middleware.ProviderSet,
		core.ProviderSet,
		providers.ProviderSet,
	))
}
