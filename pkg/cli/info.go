package cli

import (
	"fmt"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/demml/opsml-cli/pkg/global"
	"github.com/demml/opsml-cli/pkg/util/console"
)

const logoText = `
 ██████  ██████  ███████ ███    ███ ██             ██████ ██      ██
██    ██ ██   ██ ██      ████  ████ ██            ██      ██      ██
██    ██ ██████  ███████ ██ ████ ██ ██      █████ ██      ██      ██
██    ██ ██           ██ ██  ██  ██ ██            ██      ██      ██
 ██████  ██      ███████ ██      ██ ███████        ██████ ███████ ██
`

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the opsml-cli version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			console.Output(fmt.Sprintf("opsml-cli version %s", aurora.Green(global.Version).Bold()))
		},
	}
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show opsml-cli info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			console.Output(fmt.Sprintf("%s\nopsml-cli version %s (built %s)",
				aurora.Green(logoText),
				aurora.Magenta(global.Version).Bold(),
				global.BuildTime))
		},
	}
}
