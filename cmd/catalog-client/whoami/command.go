package whoami

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openkcm/catalog-client/internal/business"
	"github.com/openkcm/catalog-client/internal/cmdutils"
	"github.com/openkcm/catalog-client/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	var cmd *cobra.Command

	cmd = cmdutils.CobraCommand(
		"whoami",
		"Show the signed in user",
		"Show the user of the remembered session.",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			return business.WhoAmI(ctx, cfg, cmd.OutOrStdout())
		},
	)

	return cmd
}
