// Command pkgsearch searches package actions in a local index and in
// remote package repositories.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/pkgsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pkgsearch/internal/adapters/driven/repository/httprepo"
	"github.com/custodia-labs/pkgsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pkgsearch/internal/adapters/driving/cli"
	"github.com/custodia-labs/pkgsearch/internal/core/services"
)

// version is set by the linker.
var version = "dev"

// Configuration keys read at startup.
const (
	configIndexDir    = "index.dir"
	configConcurrency = "search.concurrency"
	configRateLimit   = "search.rate_limit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetServiceFactory(newServices)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}

// newServices wires the adapters for configDir.
func newServices(configDir string) (*cli.Services, error) {
	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	dataDir := cfg.GetString(configIndexDir)
	if dataDir == "" {
		dataDir = filepath.Join(filepath.Dir(cfg.Path()), "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	index := store.Index()

	clientCfg := httprepo.DefaultConfig()
	if n := cfg.GetInt(configConcurrency); n > 0 {
		clientCfg.Concurrency = n
	}
	if _, ok := cfg.Get(configRateLimit); ok {
		clientCfg.RequestsPerSecond = float64(cfg.GetInt(configRateLimit))
	}
	repos := httprepo.NewClient(clientCfg, nil)

	return &cli.Services{
		Search:   services.NewSearchService(index, repos, cfg),
		Contents: services.NewContentsService(index),
		Index:    services.NewIndexService(index),
		Config:   cfg,
		Close:    index.Close,
	}, nil
}
