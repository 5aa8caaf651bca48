package cli

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/demml/opsml-cli/pkg/api"
	"github.com/demml/opsml-cli/pkg/util/console"
)

var compareMetricsArgs struct {
	challengerUID string
	championUIDs  []string
	metricNames   []string
	lowerIsBetter []bool
}

func newCompareModelMetricsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compare-model-metrics",
		Short:   "Compare a challenger run against one or more champions",
		Example: `  opsml-cli compare-model-metrics --challenger-uid 123 --champion-uid 456,789 --metric-name mae --lower-is-better true`,
		RunE:    compareModelMetrics,
		Args:    cobra.NoArgs,
	}
	cmd.Flags().StringVar(&compareMetricsArgs.challengerUID, "challenger-uid", "", "Run uid of the challenger model")
	cmd.Flags().StringSliceVar(&compareMetricsArgs.championUIDs, "champion-uid", nil, "Run uids of champion models")
	cmd.Flags().StringSliceVar(&compareMetricsArgs.metricNames, "metric-name", nil, "Metrics to compare on")
	cmd.Flags().BoolSliceVar(&compareMetricsArgs.lowerIsBetter, "lower-is-better", []bool{true}, "Whether a lower value wins, per metric")
	cmd.MarkFlagRequired("challenger-uid")
	cmd.MarkFlagRequired("champion-uid")
	cmd.MarkFlagRequired("metric-name")

	return cmd
}

func compareModelMetrics(cmd *cobra.Command, args []string) error {
	lowerIsBetter, err := broadcastLowerIsBetter(compareMetricsArgs.lowerIsBetter, len(compareMetricsArgs.metricNames))
	if err != nil {
		return err
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	response, err := client.CompareMetrics(cmd.Context(), api.CompareMetricRequest{
		MetricName:    compareMetricsArgs.metricNames,
		LowerIsBetter: lowerIsBetter,
		ChallengerUID: compareMetricsArgs.challengerUID,
		ChampionUID:   compareMetricsArgs.championUIDs,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", aurora.Red("Failed to compare model metrics").Bold(), err)
	}

	console.Infof("Comparison report for challenger %s (version %s)",
		aurora.Green(response.ChallengerName),
		response.ChallengerVersion)
	console.Output(battleReportTable(response.Report))
	return nil
}

// broadcastLowerIsBetter expands a single flag value to every metric, or
// checks that one value was given per metric.
func broadcastLowerIsBetter(values []bool, metrics int) ([]bool, error) {
	if len(values) == 1 {
		expanded := make([]bool, metrics)
		for i := range expanded {
			expanded[i] = values[0]
		}
		return expanded, nil
	}
	if len(values) != metrics {
		return nil, fmt.Errorf("--lower-is-better must be given once or once per metric (%d values for %d metrics)", len(values), metrics)
	}
	return values, nil
}

func battleReportTable(report map[string][]api.BattleReport) string {
	championUIDs := make([]string, 0, len(report))
	for uid := range report {
		championUIDs = append(championUIDs, uid)
	}
	sort.Strings(championUIDs)

	buf := &bytes.Buffer{}
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHAMPION\tVERSION\tMETRIC\tCHAMPION VALUE\tCHALLENGER VALUE\tCHALLENGER WIN")
	for _, uid := range championUIDs {
		for _, battle := range report[uid] {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
				battle.ChampionName,
				battle.ChampionVersion,
				metricName(battle.ChampionMetric, battle.ChallengerMetric),
				metricValue(battle.ChampionMetric),
				metricValue(battle.ChallengerMetric),
				battle.ChallengerWin,
			)
		}
	}
	w.Flush()
	return strings.TrimSuffix(buf.String(), "\n")
}

func metricName(metrics ...*api.Metric) string {
	for _, metric := range metrics {
		if metric != nil {
			return metric.Name
		}
	}
	return "None"
}

func metricValue(metric *api.Metric) string {
	if metric == nil {
		return "None"
	}
	return rawValue(metric.Value)
}
