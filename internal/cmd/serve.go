package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/otterscale/otterscale-gateway/internal/cmd/server"
	"github.com/otterscale/otterscale-gateway/internal/config"
)

type ServerInjector func() (*server.Server, func(), error)

func NewServeCommand(conf *config.Config, newServer ServerInjector) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the gateway that reconciles caller identity and forwards to upstream services",
		Example: "gateway serve --address=:8080 --directory-url=http://userservice:8081/api --routes=/api/users=http://userservice:8081",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if conf.GatewayDebugEnabled() {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			srv, cleanup, err := newServer()
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}
			defer cleanup()

			cfg := server.Config{
				Address:          conf.GatewayAddress(),
				AllowedOrigins:   conf.GatewayAllowedOrigins(),
				AuthEnabled:      conf.GatewayAuthEnabled(),
				KeycloakRealmURL: conf.GatewayKeycloakRealmURL(),
				KeycloakClientID: conf.GatewayKeycloakClientID(),
			}

			return srv.Run(cmd.Context(), cfg)
		},
	}

	if err := conf.BindFlags(cmd.Flags(), config.GatewayOptions); err != nil {
		return nil, err
	}

	return cmd, nil
}
