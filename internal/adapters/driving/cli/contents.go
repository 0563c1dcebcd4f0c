package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

var (
	contentsOmitHeaders bool
	contentsAttributes  []string
	contentsSort        []string
	contentsTypes       []string
)

var contentsCmd = &cobra.Command{
	Use:   "contents [options] [package...]",
	Short: "List the contents of indexed packages",
	Long: `Lists the actions of locally indexed packages whose names match the
given patterns, or of every package when none are given. Output is sorted
on the sort column and printed in one block.`,
	RunE: runContents,
}

func init() {
	f := contentsCmd.Flags()
	f.BoolVarP(&contentsOmitHeaders, "omit-headers", "H", false, "omit headers and separate columns with tabs")
	f.StringSliceVarP(&contentsAttributes, "output", "o", nil, "comma separated output columns (default path)")
	f.StringArrayVarP(&contentsSort, "sort", "s", nil, "column to sort on (default first column)")
	f.StringSliceVarP(&contentsTypes, "type", "t", nil, "only list these action types")
	rootCmd.AddCommand(contentsCmd)
}

func runContents(cmd *cobra.Command, args []string) error {
	if contentsService == nil {
		return errors.New("contents service not configured")
	}

	opts := domain.ContentsOptions{
		Packages:       args,
		Attributes:     contentsAttributes,
		SortAttributes: contentsSort,
		ActionTypes:    contentsTypes,
		DisplayHeaders: !contentsOmitHeaders,
	}

	printed, err := contentsService.List(cmd.Context(), opts, cmd.OutOrStdout())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAttribute) {
			return usageError(err)
		}
		return err
	}
	if !printed {
		return &exitError{status: domain.ExitOops}
	}
	return nil
}
