package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/demml/opsml-cli/pkg/api"
)

func TestBroadcastLowerIsBetter(t *testing.T) {
	expanded, err := broadcastLowerIsBetter([]bool{true}, 3)
	require.NoError(t, err)
	require.Equal(t, []bool{true, true, true}, expanded)

	expanded, err = broadcastLowerIsBetter([]bool{true, false}, 2)
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, expanded)

	_, err = broadcastLowerIsBetter([]bool{true, false}, 3)
	require.Error(t, err)
}

func TestBattleReportTable(t *testing.T) {
	report := map[string][]api.BattleReport{
		"champion-uid": {
			{
				ChampionName:     "old-model",
				ChampionVersion:  "1.0.0",
				ChampionMetric:   &api.Metric{Name: "mae", Value: json.RawMessage("5")},
				ChallengerMetric: &api.Metric{Name: "mae", Value: json.RawMessage("4")},
				ChallengerWin:    true,
			},
		},
	}

	lines := splitLines(battleReportTable(report))
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "CHAMPION")
	require.Contains(t, lines[1], "old-model")
	require.Contains(t, lines[1], "mae")
	require.Contains(t, lines[1], "true")
}

func TestBattleReportTableHandlesMissingMetrics(t *testing.T) {
	report := map[string][]api.BattleReport{
		"champion-uid": {{ChampionName: "old-model", ChampionVersion: "1.0.0"}},
	}

	lines := splitLines(battleReportTable(report))
	require.Contains(t, lines[1], "None")
}
