// Package main is the entry point for the gateway binary. It supports
// two subcommands:
//
//   - serve:         runs the identity-reconciling gateway
//   - inspect-token: prints the claims the gateway reads from a token
//
// Dependencies are assembled via Google Wire; see wire.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otterscale/otterscale-gateway/internal/cmd"
	"github.com/otterscale/otterscale-gateway/internal/cmd/server"
	"github.com/otterscale/otterscale-gateway/internal/config"
	"github.com/otterscale/otterscale-gateway/internal/core"
)

// version is injected at build time via -ldflags
// (e.g. -ldflags "-X main.version=v1.2.3").
var version = "devel"

func main() {
	// Cancel on SIGINT (Ctrl+C) or SIGTERM (container runtime).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// Cobra is configured with SilenceErrors: true, so we
		// print the error here for consistent formatting.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires all dependencies and executes the root Cobra command.
func run(ctx context.Context) error {
	rootCmd, cleanup, err := wireCmd()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	return rootCmd.ExecuteContext(ctx)
}

// newCmd is a Wire provider that constructs the root Cobra command and
// registers the subcommands. The server is built lazily by its
// injector so that flags are parsed before configuration is read.
func newCmd(conf *config.Config, extractor core.ClaimsExtractor) (*cobra.Command, error) {
	c := &cobra.Command{
		Use:           "gateway",
		Short:         "OtterScale gateway: reconciles caller identity with the user directory.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd, err := cmd.NewServeCommand(conf, func() (*server.Server, func(), error) {
		return wireServer(conf)
	})
	if err != nil {
		return nil, err
	}

	c.AddCommand(serveCmd, cmd.NewInspectCommand(extractor))

	return c, nil
}

// provideDirectoryConfig is a Wire provider that extracts the per-call
// directory timeout.
func provideDirectoryConfig(conf *config.Config) core.DirectoryConfig {
	return core.DirectoryConfig{Timeout: conf.GatewayDirectoryTimeout()}
}

// provideReconcileConfig is a Wire provider that extracts the
// reconciliation policy switches.
func provideReconcileConfig(conf *config.Config) core.ReconcileConfig {
	return core.ReconcileConfig{TrustCallerID: conf.GatewayReconcileTrustCallerID()}
}
