package logout

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
		"logout",
		"Sign out",
		"Sign out and forget the remembered session. The local session ends even when the API cannot be reached.",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			return business.Logout(ctx, cfg, cmd.OutOrStdout())
		},
	)

	return cmd
}
