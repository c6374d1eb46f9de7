package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/openkcm/common-sdk/pkg/utils"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/cmd/catalog-client/keepalive"
	"github.com/openkcm/catalog-client/cmd/catalog-client/login"
	"github.com/openkcm/catalog-client/cmd/catalog-client/logout"
	"github.com/openkcm/catalog-client/cmd/catalog-client/products"
	"github.com/openkcm/catalog-client/cmd/catalog-client/serve"
	"github.com/openkcm/catalog-client/cmd/catalog-client/whoami"
)

var (
	// BuildInfo will be set by the build system
	BuildInfo = "{}"

	isServiceCmd     bool
	gracefulShutdown time.Duration
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Catalog Client Version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		value, err := utils.ExtractFromComplexValue(BuildInfo)
		if err != nil {
			return err
		}

		slog.InfoContext(cmd.Context(), value)

		return nil
	},
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog-client",
		Short: "Catalog Client",
		Long:  "Catalog Client signs in to a DummyJSON shaped catalog API and browses its products.",
	}

	cmd.PersistentFlags().DurationVar(&gracefulShutdown, "graceful-shutdown", 1*time.Second, "graceful shutdown of the long running commands")

	services := []*cobra.Command{
		keepalive.Cmd(BuildInfo),
		serve.Cmd(BuildInfo),
	}
	for _, svc := range services {
		run := svc.RunE
		svc.RunE = func(cmd *cobra.Command, args []string) error {
			isServiceCmd = true
			return run(cmd, args)
		}
	}

	cmd.AddCommand(
		versionCmd,
		login.Cmd(BuildInfo),
		logout.Cmd(BuildInfo),
		whoami.Cmd(BuildInfo),
		products.Cmd(BuildInfo),
	)
	cmd.AddCommand(services...)

	return cmd
}

func execute() error {
	ctx, cancelOnSignal := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancelOnSignal()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slogctx.Debug(ctx, "command failed", "error", err)
		_, _ = fmt.Fprintln(os.Stderr, err)

		return err
	}

	if isServiceCmd {
		_, _ = fmt.Fprintf(os.Stderr, "Graceful shutdown in %s\n", gracefulShutdown)
		time.Sleep(gracefulShutdown)
	}

	return nil
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
