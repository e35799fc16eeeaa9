package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/api"
	"github.com/sells-group/rentrisk/internal/graph"
	"github.com/sells-group/rentrisk/internal/metrics"
	"github.com/sells-group/rentrisk/internal/page"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load every region and serve the explorer API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := loadCatalog(ctx, cfg, cfg.Data.Regions)
		if err != nil {
			return err
		}
		defer env.Close()

		for _, r := range env.Catalog.List() {
			metrics.RecordLoad(r.Key, r.Listings.Len(), r.Incidents.Len(), r.Geometry.Len())
		}

		pages := page.NewRegistry(cfg.Server.MaxPages,
			page.WithRecomputeHook(func(region string, ds graph.Dataset, elapsed time.Duration, result any) {
				metrics.ObserveRecompute(region, string(ds), elapsed, page.IsEmpty(result))
			}),
			page.WithSizeHook(func(n int) { metrics.ActivePages.Set(float64(n)) }),
		)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.NewRouter(env.Catalog, pages, apiOptions()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func apiOptions() api.Options {
	opts := api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitQPS:   cfg.Server.RateLimitQPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		OnRequest: func(route string, status int, _ time.Duration) {
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		},
		OnRateLimited: metrics.RateLimited.Inc,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}
	return opts
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
