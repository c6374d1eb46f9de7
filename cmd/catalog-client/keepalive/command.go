package keepalive

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/catalog-client/internal/business"
	"github.com/openkcm/catalog-client/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"keepalive",
		"Keep the remembered session alive",
		"Renews the session cookies on an interval so the remembered session does not expire.",
		buildInfo,
		cmdutils.RunAsService,
		business.KeepAliveMain,
	)
}
