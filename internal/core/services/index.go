package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driving"
	"github.com/custodia-labs/pkgsearch/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// fmriAttribute is the set action naming the package in a manifest.
const fmriAttribute = "pkg.fmri"

// IndexService loads package manifests into the local index.
type IndexService struct {
	index driven.LocalIndex
}

// NewIndexService creates a new index service.
func NewIndexService(index driven.LocalIndex) *IndexService {
	return &IndexService{index: index}
}

// Import parses a manifest, one action per line, and stores it. Blank
// lines and lines starting with '#' are skipped. The first
// "set name=pkg.fmri" action names the package.
func (s *IndexService) Import(ctx context.Context, manifest io.Reader) (domain.PackageRef, error) {
	logger.Section("Index Import")

	var (
		pkg     domain.PackageRef
		actions []*domain.Action
	)

	scanner := bufio.NewScanner(manifest)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		a, err := domain.ParseAction(text)
		if err != nil {
			return domain.PackageRef{}, fmt.Errorf("manifest line %d: %w", lineNo, err)
		}
		if pkg.IsZero() && a.Name() == domain.ActionSet && a.Key() == fmriAttribute {
			pkg, err = domain.ParsePackageRef(a.Attr("value"))
			if err != nil {
				return domain.PackageRef{}, fmt.Errorf("manifest line %d: %w", lineNo, err)
			}
		}
		actions = append(actions, a)
	}
	if err := scanner.Err(); err != nil {
		return domain.PackageRef{}, fmt.Errorf("reading manifest: %w", err)
	}
	if pkg.IsZero() {
		return domain.PackageRef{}, fmt.Errorf("%w: manifest does not name its package", domain.ErrInvalidInput)
	}

	logger.Debug("Importing %s with %d actions", pkg, len(actions))
	if err := s.index.Import(ctx, driven.PackageActions{
		Package:   pkg,
		Publisher: pkg.Publisher(),
		Actions:   actions,
	}); err != nil {
		return domain.PackageRef{}, fmt.Errorf("importing %s: %w", pkg.Short(), err)
	}
	return pkg, nil
}

// Rebuild regenerates the search index.
func (s *IndexService) Rebuild(ctx context.Context) error {
	logger.Section("Index Rebuild")
	if err := s.index.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	return nil
}
