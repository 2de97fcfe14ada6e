package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pawanm992002/nimantran-backend/internal/api"
	"github.com/pawanm992002/nimantran-backend/internal/config"
	"github.com/pawanm992002/nimantran-backend/pkg/batch"
	"github.com/pawanm992002/nimantran-backend/pkg/billing"
	"github.com/pawanm992002/nimantran-backend/pkg/cache"
	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/compose"
	"github.com/pawanm992002/nimantran-backend/pkg/fonts"
	"github.com/pawanm992002/nimantran-backend/pkg/layer"
	"github.com/pawanm992002/nimantran-backend/pkg/roster"
	"github.com/pawanm992002/nimantran-backend/pkg/storage"
)

// newServeCmd creates the serve command that runs the HTTP API.
//
// Backends are selected by configuration: Mongo roster and ledger when
// mongo.uri is set (in-memory otherwise), Redis font cache when redis.addr
// is set (file cache otherwise). With no config file at all the server
// runs fully local, which is the development setup.
func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the rendering HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to TOML config file")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	fontCache, err := newFontCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer fontCache.Close()

	store, err := storage.NewFSStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		return err
	}

	rosterStore, ledger, disconnect, err := newBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer disconnect()

	resolver := fonts.NewResolver(fontCache, logger)
	rasterizer := layer.NewRasterizer(resolver, logger)

	factory := func(m card.Medium) (compose.Compositor, error) {
		switch m {
		case card.MediumImage:
			return compose.NewImageCompositor(), nil
		case card.MediumPDF:
			return compose.NewPDFCompositor(), nil
		case card.MediumVideo:
			return compose.NewVideoCompositor(cfg.Render.FFmpegPath, cfg.Render.FFprobePath, logger)
		}
		return nil, errors.New("unknown medium: " + string(m))
	}

	runner := batch.NewRunner(rasterizer, factory, store, rosterStore, ledger)

	server := api.New(runner, logger,
		api.WithChunkSize(cfg.Render.ChunkSize),
		api.WithGuestTimeout(cfg.Render.GuestTimeout),
		api.WithFilesDir(store.Dir()),
	)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newFontCache selects the font cache backend: Redis when configured,
// otherwise a file cache under the configured cache directory.
func newFontCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.Redis.Addr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return cache.NewFileCache(cfg.Storage.CacheDir)
}

// newBackends selects the roster store and credit ledger. Mongo when
// configured, in-memory otherwise. The returned func disconnects the
// Mongo client (no-op for memory backends).
func newBackends(ctx context.Context, cfg config.Config, logger *log.Logger) (roster.Store, billing.Ledger, func(), error) {
	if cfg.Mongo.URI == "" {
		logger.Info("using in-memory roster and ledger")
		return roster.NewMemoryStore(), billing.NewMemoryLedger(nil), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, nil, err
	}

	db := client.Database(cfg.Mongo.Database)
	logger.Info("connected to mongo", "database", cfg.Mongo.Database)

	disconnect := func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		client.Disconnect(dctx)
	}
	return roster.NewMongoStore(db), billing.NewMongoLedger(db), disconnect, nil
}
