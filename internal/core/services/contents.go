package services

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driving"
	"github.com/custodia-labs/pkgsearch/internal/logger"
)

// Ensure ContentsService implements the interface.
var _ driving.ContentsService = (*ContentsService)(nil)

// defaultContentsAttribute is the column listed when none is requested.
const defaultContentsAttribute = "path"

// ContentsService lists the actions of locally indexed packages.
type ContentsService struct {
	index driven.LocalIndex
}

// NewContentsService creates a new contents service.
func NewContentsService(index driven.LocalIndex) *ContentsService {
	return &ContentsService{index: index}
}

// List renders one sorted, unpaginated listing to out.
func (s *ContentsService) List(ctx context.Context, opts domain.ContentsOptions, out io.Writer) (bool, error) {
	logger.Section("Contents")

	attrs := opts.Attributes
	if len(attrs) == 0 {
		attrs = []string{defaultContentsAttribute}
	}
	sortAttrs := opts.SortAttributes
	if len(sortAttrs) == 0 {
		sortAttrs = attrs[:1]
	}
	for _, set := range [][]string{attrs, sortAttrs} {
		if err := domain.ValidateAttributes(set, domain.ListAttributes, domain.ListPrefixes); err != nil {
			return false, err
		}
	}

	pkgs, err := s.index.Contents(ctx, opts.Packages)
	if err != nil {
		return false, fmt.Errorf("listing contents: %w", err)
	}

	var records []domain.NormalizedRecord
	for _, pa := range pkgs {
		for _, a := range pa.Actions {
			records = append(records, domain.NormalizedRecord{
				Package:   pa.Package,
				Action:    a,
				Publisher: pa.Publisher,
			})
		}
	}
	logger.Debug("Listing %d actions from %d packages", len(records), len(pkgs))

	projector := NewProjector(attrs, ProjectorOptions{ActionTypes: opts.ActionTypes})
	lines := projector.Project(records, nil)

	f := NewColumnFormatter(out, opts.DisplayHeaders)
	f.SetColumns(attrs, nil)
	f.Widen(lines)

	sortIdx := max(slices.Index(attrs, sortAttrs[0]), 0)
	sortLines(lines, sortIdx, numericColumn(lines, sortIdx, f.Justification(sortIdx)))

	printed := false
	for _, line := range lines {
		text := f.FormatLine(line)
		if text == "" {
			continue
		}
		if !printed && opts.DisplayHeaders {
			if err := f.WriteHeader(); err != nil {
				return printed, err
			}
		}
		printed = true
		if _, err := fmt.Fprintln(out, text); err != nil {
			return printed, err
		}
	}
	return printed, nil
}

// sortLines orders lines by column idx, numerically when numeric is set.
// Values that are not integers sort as zero.
func sortLines(lines []domain.Line, idx int, numeric bool) {
	if numeric {
		slices.SortStableFunc(lines, func(a, b domain.Line) int {
			return cmp.Compare(atoiOrZero(a[idx]), atoiOrZero(b[idx]))
		})
		return
	}
	slices.SortStableFunc(lines, func(a, b domain.Line) int {
		return strings.Compare(a[idx], b[idx])
	})
}

// numericColumn reports whether column idx right-justifies: its
// justification is not known from the name and every value is an integer.
func numericColumn(lines []domain.Line, idx int, just domain.Justification) bool {
	if just != domain.JustUnknown || len(lines) == 0 {
		return just == domain.JustRight
	}
	for _, line := range lines {
		if guessJustification(just, line[idx]) != domain.JustRight {
			return false
		}
	}
	return true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
