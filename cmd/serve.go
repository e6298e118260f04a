package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sluice/internal/api"
	"sluice/internal/cache"
	"sluice/internal/httputil"
	"sluice/internal/media"
	"sluice/internal/orchestrate"
	"sluice/internal/provider"
	"sluice/internal/registry"
)

var flagNoPersist bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolution engine over HTTP",
	Long: `Serve starts the HTTP API, the prefetch cache, and the background
filler that keeps the configured buckets warm.`,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().BoolVar(&flagNoPersist, "no-persist", false, "Disable the durable stream cache")
}

func serveRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := newFetcher()
	orch := newOrchestrator(fetcher, nil)

	store := openStore()
	if store != nil {
		defer store.Close()
	}

	c := newCache(orch, fetcher, store)
	filler := cache.NewFiller(c, cfg.Buckets, 3)
	if err := filler.Start(ctx, cfg.FillEvery()); err != nil {
		return fmt.Errorf("starting background filler: %w", err)
	}
	defer filler.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(orch, c, cfg.SubsLanguage),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// openStore opens the durable stream cache, or returns nil when persistence
// is disabled or unavailable. A broken store never blocks serving.
func openStore() *cache.Store {
	if flagNoPersist {
		return nil
	}
	path, err := cfg.ExpandPersistPath()
	if err != nil {
		logrus.WithError(err).Warn("resolving persist path, continuing without durable cache")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logrus.WithError(err).Warn("creating data dir, continuing without durable cache")
		return nil
	}
	store, err := cache.OpenStore(path)
	if err != nil {
		logrus.WithError(err).Warn("opening durable cache, continuing without it")
		return nil
	}
	return store
}

// newCache wires the prefetch cache over the orchestrator and the catalogue
// providers. Anime buckets list from the anime catalogue and resolve with
// the anime routing profile.
func newCache(orch *orchestrate.Orchestrator, fetcher httputil.Fetcher, store *cache.Store) *cache.Cache {
	resolveFn := func(ctx context.Context, bucket string, desc media.Descriptor) (*media.ResolvedStream, error) {
		return orch.Resolve(ctx, desc, registry.ParseHint(bucket))
	}
	listFn := func(ctx context.Context, bucket string) ([]media.Item, error) {
		id := "vidwave"
		if registry.ParseHint(bucket) == registry.HintAnime {
			id = "aniwave"
		}
		cat, ok := provider.CatalogForID(id, cfg.HostOverrides)
		if !ok {
			return nil, fmt.Errorf("no catalogue provider for bucket %q", bucket)
		}
		return cat.List(ctx, bucket, fetcher)
	}
	return cache.New(resolveFn, listFn, cache.Options{
		TTL:   cfg.CacheTTL(),
		Store: store,
	})
}
