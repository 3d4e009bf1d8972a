package commands

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindmap/internal/config"
	"mindmap/internal/domain"
	"mindmap/internal/engine"
	"mindmap/internal/handler"
	"mindmap/internal/metrics"
	"mindmap/internal/watcher"
)

//go:embed web/*
var webFS embed.FS

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mind map server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("starting mindmap server", zap.String("config", cfgPath), zap.String("driver", cfg.Database.Driver))

	gw, err := openGateway(cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database opened", zap.String("path", cfg.Database.Path))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(gw, engineConfig(cfg),
		engine.WithLogger(logger),
		engine.WithMetrics(metrics.NewCollector("mindmap")),
	)
	if err := eng.Open(ctx); err != nil {
		logger.Warn("continuing with an empty map", zap.Error(err))
	}
	go eng.Run(ctx)

	// Hot reload simulation tuning
	if cfgPath != "" {
		w := watcher.New(cfgPath, func() {
			next, _, err := config.LoadFromPath(cfgPath)
			if err != nil {
				logger.Warn("ignoring invalid config change", zap.Error(err))
				return
			}
			eng.Reconfigure(next.Simulation.Layout(domain.Point{}))
		}, logger.Named("watcher"))
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		return err
	}
	router := handler.NewRouter(eng, handler.RouterConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		Static:      http.FileServer(http.FS(webContent)),
	}, logger.Named("http"))

	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			stop()
			_ = eng.Shutdown(context.Background())
			return err
		}
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}
	if err := eng.Shutdown(shutdownCtx); err != nil {
		logger.Error("final save failed", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// engineConfig converts the file config to engine tuning
func engineConfig(cfg *config.Config) engine.Config {
	size := cfg.Viewport.Size()
	sim := cfg.Simulation.Layout(size.Center())
	return engine.Config{
		RootName:      cfg.Map.RootName,
		Size:          size,
		Layout:        sim,
		Interaction:   cfg.Interaction.Controller(sim),
		Autosave:      cfg.Persistence.Autosave(),
		PromptTimeout: cfg.Server.PromptTimeout.Duration(),
	}
}
