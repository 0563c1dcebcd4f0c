// Package cli provides the pkgsearch command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driving"
	"github.com/custodia-labs/pkgsearch/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services holds everything the commands need.
type Services struct {
	Search   driving.SearchService
	Contents driving.ContentsService
	Index    driving.IndexService
	Config   driven.ConfigStore

	// Close releases the services; may be nil.
	Close func() error
}

// ServiceFactory builds the services for a configuration directory.
// An empty configDir selects the default.
type ServiceFactory func(configDir string) (*Services, error)

var (
	searchService   driving.SearchService
	contentsService driving.ContentsService
	indexService    driving.IndexService
	configStore     driven.ConfigStore

	serviceFactory ServiceFactory
	closeServices  func() error
)

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "pkgsearch",
	Short: "Search packages in local and remote repositories",
	Long: `pkgsearch searches the actions of packages in the local index and in
remote package repositories, rendering results as they arrive.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.pkgsearch)")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
}

// SetServices installs services directly, bypassing the factory.
func SetServices(s *Services) {
	searchService = s.Search
	contentsService = s.Contents
	indexService = s.Index
	configStore = s.Config
	closeServices = s.Close
}

// SetServiceFactory sets how services are built once flags are parsed.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if serviceFactory == nil || searchService != nil {
		return nil
	}
	s, err := serviceFactory(configDir)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(s)
	return nil
}

// shutdown releases the services once. cobra skips post-run hooks when a
// command fails, so run calls it for every outcome.
func shutdown() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// exitError carries an exit status out of a command.
// Its diagnostics have already been written.
type exitError struct {
	status domain.ExitStatus
}

func (e *exitError) Error() string {
	return "exit " + e.status.String()
}

// usageErr marks command line mistakes.
type usageErr struct {
	err error
}

func (e *usageErr) Error() string { return e.err.Error() }
func (e *usageErr) Unwrap() error { return e.err }

func usageError(err error) error {
	return &usageErr{err: err}
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	return run(ctx, rootCmd.ErrOrStderr())
}

func run(ctx context.Context, stderr io.Writer) int {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := shutdown(); cerr != nil {
		if err == nil {
			err = fmt.Errorf("closing: %w", cerr)
		} else {
			logger.Warn("closing: %v", cerr)
		}
	}
	if err == nil {
		return int(domain.ExitOK)
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return int(ee.status)
	}

	diag := newDiagnosticWriter(stderr)
	fmt.Fprintln(diag, domainPrefix+err.Error())
	flushDiagnostics(diag)

	var ue *usageErr
	if errors.As(err, &ue) {
		fmt.Fprintln(stderr, "Try 'pkgsearch --help' for more information.")
		return int(domain.ExitBadOpt)
	}
	return int(domain.ExitOops)
}
