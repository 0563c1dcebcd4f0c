package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

var (
	searchOmitHeaders   bool
	searchActions       bool
	searchNoPrune       bool
	searchLocal         bool
	searchAttributes    []string
	searchPackages      bool
	searchRemote        bool
	searchServers       []string
	searchCaseSensitive bool
	searchJSON          bool
)

var searchCmd = &cobra.Command{
	Use:   "search [options] query...",
	Short: "Search for packages and actions",
	Long: `Searches the local index and remote repositories for actions matching
the query. Terms may use '*' and '?' wildcards; a term written <term> returns
matching packages instead of actions.

Results are printed page by page as they arrive. Exit status is 0 when every
source answered, 3 when some failed, and 1 when nothing matched or all failed.`,
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			return usageError(errors.New("at least one search term must be provided"))
		}
		return nil
	},
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.BoolVarP(&searchOmitHeaders, "omit-headers", "H", false, "omit headers and separate columns with tabs")
	f.BoolVarP(&searchActions, "actions", "a", false, "return matching actions (default)")
	f.BoolVarP(&searchNoPrune, "all-versions", "f", false, "return all versions instead of the newest")
	f.BoolVarP(&searchLocal, "local", "l", false, "search the local index")
	f.StringSliceVarP(&searchAttributes, "output", "o", nil, "comma separated output columns")
	f.BoolVarP(&searchPackages, "packages", "p", false, "return matching packages")
	f.BoolVarP(&searchRemote, "remote", "r", false, "search remote repositories (default)")
	f.StringArrayVarP(&searchServers, "server", "s", nil, "search this repository URL instead of the configured ones")
	f.BoolVarP(&searchCaseSensitive, "case-sensitive", "I", false, "match case exactly")
	f.BoolVar(&searchJSON, "json", false, "output one JSON object per result")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Local:          searchLocal,
		Remote:         searchRemote || len(searchServers) > 0,
		CaseSensitive:  searchCaseSensitive,
		ReturnActions:  !searchPackages,
		PruneVersions:  !searchNoPrune,
		Attributes:     searchAttributes,
		DisplayHeaders: !searchOmitHeaders,
		JSON:           searchJSON,
	}
	for _, s := range searchServers {
		opts.Servers = append(opts.Servers, domain.Repository{Origin: s})
	}

	diag := newDiagnosticWriter(cmd.ErrOrStderr())
	defer flushDiagnostics(diag)

	status, err := searchService.Search(cmd.Context(), strings.Join(args, " "), opts, cmd.OutOrStdout(), diag)
	if err != nil {
		if status == domain.ExitBadOpt {
			return usageError(err)
		}
		return err
	}
	if status != domain.ExitOK {
		return &exitError{status: status}
	}
	return nil
}
