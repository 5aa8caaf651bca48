package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/demml/opsml-cli/pkg/api"
	"github.com/demml/opsml-cli/pkg/env"
	"github.com/demml/opsml-cli/pkg/global"
	opsmlHTTP "github.com/demml/opsml-cli/pkg/http"
	"github.com/demml/opsml-cli/pkg/util/console"
)

func NewRootCommand() (*cobra.Command, error) {
	rootCmd := cobra.Command{
		Use:     "opsml-cli",
		Short:   "CLI tool for interacting with an OpsML tracking server",
		Version: fmt.Sprintf("%s (built %s)", global.Version, global.BuildTime),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if global.Verbose {
				console.SetLevel(console.DebugLevel)
			}
			console.SetColor(console.IsTTY(os.Stderr))
			cmd.SilenceUsage = true
		},
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(
		newListCardsCommand(),
		newDownloadModelMetadataCommand(),
		newDownloadModelCommand(),
		newGetModelMetricsCommand(),
		newCompareModelMetricsCommand(),
		newVersionCommand(),
		newInfoCommand(),
	)

	return &rootCmd, nil
}

// newAPIClient reads the tracking URI from the environment once and hands an
// explicit client to the command, so nothing below the CLI touches process
// state.
func newAPIClient() (*api.Client, error) {
	uri, err := env.TrackingURIFromEnvironment()
	if err != nil {
		return nil, err
	}
	return api.NewClient(uri, opsmlHTTP.ProvideHTTPClient()), nil
}
