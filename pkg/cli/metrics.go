package cli

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/demml/opsml-cli/pkg/api"
	"github.com/demml/opsml-cli/pkg/util/console"
)

var getMetricsArgs struct {
	uid string
}

func newGetModelMetricsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get-model-metrics",
		Short:   "Retrieve training metrics for a model run",
		Example: `  opsml-cli get-model-metrics --uid 123`,
		RunE:    getModelMetrics,
		Args:    cobra.NoArgs,
	}
	cmd.Flags().StringVar(&getMetricsArgs.uid, "uid", "", "Run uid")
	cmd.MarkFlagRequired("uid")

	return cmd
}

func getModelMetrics(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	metrics, err := client.GetMetrics(cmd.Context(), getMetricsArgs.uid)
	if err != nil {
		return fmt.Errorf("%s: %w", aurora.Red("Failed to get model metrics").Bold(), err)
	}

	console.Info("Model metrics")
	console.Output(metricTable(metrics))
	return nil
}

func metricTable(metrics []api.Metric) string {
	buf := &bytes.Buffer{}
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE\tSTEP\tTIMESTAMP")
	for _, metric := range metrics {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			metric.Name,
			rawValue(metric.Value),
			rawValue(metric.Step),
			rawValue(metric.Timestamp),
		)
	}
	w.Flush()
	return strings.TrimSuffix(buf.String(), "\n")
}

// rawValue renders a metric field that may be a number, string, or absent.
func rawValue(raw []byte) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "None"
	}
	return strings.Trim(string(raw), `"`)
}
