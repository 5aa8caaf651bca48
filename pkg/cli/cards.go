package cli

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/demml/opsml-cli/pkg/api"
	"github.com/demml/opsml-cli/pkg/util/console"
)

// validRegistries are the card registries the server exposes.
var validRegistries = []string{"data", "model", "run", "pipeline", "audit", "project"}

var listCardsArgs struct {
	registry                string
	name                    string
	repository              string
	version                 string
	uid                     string
	limit                   int
	tagNames                []string
	tagValues               []string
	maxDate                 string
	ignoreReleaseCandidates bool
}

func newListCardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-cards",
		Short: "List cards from a registry",
		Example: `  opsml-cli list-cards --registry model
  opsml-cli list-cards --registry data --repository devops-ml --limit 10`,
		RunE: listCards,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVar(&listCardsArgs.registry, "registry", "", "Name of the registry (data, model, run, etc)")
	cmd.Flags().StringVar(&listCardsArgs.name, "name", "", "Name given to a card")
	cmd.Flags().StringVar(&listCardsArgs.repository, "repository", "", "Repository name")
	cmd.Flags().StringVar(&listCardsArgs.version, "version", "", "Card version")
	cmd.Flags().StringVar(&listCardsArgs.uid, "uid", "", "Card uid")
	cmd.Flags().IntVar(&listCardsArgs.limit, "limit", 0, "Maximum number of cards to return")
	cmd.Flags().StringSliceVar(&listCardsArgs.tagNames, "tag-name", nil, "Tag names to filter on")
	cmd.Flags().StringSliceVar(&listCardsArgs.tagValues, "tag-value", nil, "Tag values, zipped positionally with --tag-name")
	cmd.Flags().StringVar(&listCardsArgs.maxDate, "max-date", "", "Only return cards created before this date")
	cmd.Flags().BoolVar(&listCardsArgs.ignoreReleaseCandidates, "ignore-release-candidate", false, "Exclude release candidate versions")
	cmd.MarkFlagRequired("registry")

	return cmd
}

func listCards(cmd *cobra.Command, args []string) error {
	if err := validateRegistry(listCardsArgs.registry); err != nil {
		return err
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	request := api.ListCardRequest{
		RegistryType:            listCardsArgs.registry,
		Tags:                    zipTags(listCardsArgs.tagNames, listCardsArgs.tagValues),
		IgnoreReleaseCandidates: listCardsArgs.ignoreReleaseCandidates,
	}
	if listCardsArgs.name != "" {
		request.Name = &listCardsArgs.name
	}
	if listCardsArgs.repository != "" {
		request.Repository = &listCardsArgs.repository
	}
	if listCardsArgs.version != "" {
		request.Version = &listCardsArgs.version
	}
	if listCardsArgs.uid != "" {
		request.UID = &listCardsArgs.uid
	}
	if listCardsArgs.limit > 0 {
		request.Limit = &listCardsArgs.limit
	}
	if listCardsArgs.maxDate != "" {
		request.MaxDate = &listCardsArgs.maxDate
	}

	response, err := client.ListCards(cmd.Context(), request)
	if err != nil {
		return fmt.Errorf("%s: %w", aurora.Red("Failed to list cards").Bold(), err)
	}

	console.Infof("Listing cards from the %s registry", aurora.Green(listCardsArgs.registry).Bold())
	console.Output(cardTable(response.Cards))
	return nil
}

func validateRegistry(registry string) error {
	for _, valid := range validRegistries {
		if registry == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid registry: %s. Valid registries are: %s", registry, strings.Join(validRegistries, ", "))
}

// zipTags pairs tag names with tag values positionally. Unmatched names or
// values are dropped.
func zipTags(names []string, values []string) map[string]string {
	tags := map[string]string{}
	for i, name := range names {
		if i >= len(values) {
			break
		}
		tags[name] = values[i]
	}
	return tags
}

func cardTable(cards []api.Card) string {
	sortCardsByVersion(cards)

	buf := &bytes.Buffer{}
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREPOSITORY\tDATE\tCONTACT\tVERSION\tUID")
	for _, card := range cards {
		date := ""
		if card.Date != nil {
			date = formatCardDate(*card.Date)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			card.Name, card.Repository, date, card.Contact, card.Version, card.UID)
	}
	w.Flush()
	return strings.TrimSuffix(buf.String(), "\n")
}

// sortCardsByVersion groups rows by card name and orders each group newest
// version first. Versions that don't parse sort after the ones that do.
func sortCardsByVersion(cards []api.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Name != cards[j].Name {
			return cards[i].Name < cards[j].Name
		}
		vi, erri := goversion.NewVersion(cards[i].Version)
		vj, errj := goversion.NewVersion(cards[j].Version)
		switch {
		case erri == nil && errj == nil:
			return vi.GreaterThan(vj)
		case erri == nil:
			return true
		case errj == nil:
			return false
		default:
			return cards[i].Version > cards[j].Version
		}
	})
}

func formatCardDate(date string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, date); err == nil {
			return console.FormatTime(t)
		}
	}
	return date
}
