package serve

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/catalog-client/internal/business"
	"github.com/openkcm/catalog-client/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"serve",
		"Serve the local JSON front end",
		"Serves session, login, logout and product endpoints over the catalog API session.",
		buildInfo,
		cmdutils.RunAsService,
		business.ServeMain,
	)
}
