package login

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/openkcm/catalog-client/internal/business"
	"github.com/openkcm/catalog-client/internal/cmdutils"
	"github.com/openkcm/catalog-client/internal/config"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = "CATALOG_CLIENT_PASSWORD"

func Cmd(buildInfo string) *cobra.Command {
	var (
		in  business.LoginInput
		cmd *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"login",
		"Sign in to the catalog API",
		"Sign in with a username and password. With --remember the session cookies are kept for later commands.",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			if in.Password == "" {
				in.Password = os.Getenv(PasswordEnv)
			}

			return business.Login(ctx, cfg, cmd.OutOrStdout(), in)
		},
	)

	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "password, defaults to $"+PasswordEnv)
	cmd.Flags().BoolVarP(&in.RememberMe, "remember", "r", false, "remember the session")

	return cmd
}
