package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/demml/opsml-cli/pkg/api"
	"github.com/demml/opsml-cli/pkg/env"
)

func TestValidateRegistry(t *testing.T) {
	for _, registry := range validRegistries {
		require.NoError(t, validateRegistry(registry))
	}
	err := validateRegistry("bogus")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid registry: bogus")
}

func TestZipTags(t *testing.T) {
	tags := zipTags([]string{"stage", "team"}, []string{"prod", "ml"})
	require.Equal(t, map[string]string{"stage": "prod", "team": "ml"}, tags)

	// Unmatched names are dropped rather than paired with empty values.
	tags = zipTags([]string{"stage", "team"}, []string{"prod"})
	require.Equal(t, map[string]string{"stage": "prod"}, tags)

	require.Empty(t, zipTags(nil, []string{"prod"}))
}

func TestCardTable(t *testing.T) {
	cards := []api.Card{
		{Name: "reg", Repository: "ml", Contact: "ops", Version: "1.0.0", UID: "a"},
		{Name: "reg", Repository: "ml", Contact: "ops", Version: "1.10.0", UID: "b"},
		{Name: "reg", Repository: "ml", Contact: "ops", Version: "1.2.0", UID: "c"},
	}

	table := cardTable(cards)
	lines := splitLines(table)
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "NAME")
	require.Contains(t, lines[0], "UID")

	// Newest version first: 1.10.0 sorts above 1.2.0.
	require.Contains(t, lines[1], "1.10.0")
	require.Contains(t, lines[2], "1.2.0")
	require.Contains(t, lines[3], "1.0.0")
}

func TestCardTableUnparseableVersionsSortLast(t *testing.T) {
	cards := []api.Card{
		{Name: "reg", Version: "weird"},
		{Name: "reg", Version: "2.0.0"},
	}
	lines := splitLines(cardTable(cards))
	require.Contains(t, lines[1], "2.0.0")
	require.Contains(t, lines[2], "weird")
}

func TestFormatCardDateFallsBackToRawValue(t *testing.T) {
	require.Equal(t, "not a date", formatCardDate("not a date"))
}

func TestListCardsCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, api.ListCardsPath, r.URL.Path)

		request := api.ListCardRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, "model", request.RegistryType)
		require.Equal(t, map[string]string{"stage": "prod"}, request.Tags)

		json.NewEncoder(w).Encode(api.ListCardResponse{Cards: []api.Card{
			{Name: "reg", Repository: "ml", Version: "1.0.0", UID: "uid", Contact: "ops"},
		}})
	}))
	defer server.Close()
	t.Setenv(env.TrackingURIEnvVarName, server.URL)

	cmd, err := NewRootCommand()
	require.NoError(t, err)
	cmd.SetArgs([]string{"list-cards", "--registry", "model", "--tag-name", "stage", "--tag-value", "prod"})
	require.NoError(t, cmd.Execute())
}

func TestListCardsCommandRejectsBadRegistry(t *testing.T) {
	t.Setenv(env.TrackingURIEnvVarName, "http://localhost:1")

	cmd, err := NewRootCommand()
	require.NoError(t, err)
	cmd.SetArgs([]string{"list-cards", "--registry", "bogus"})
	require.Error(t, cmd.Execute())
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}
