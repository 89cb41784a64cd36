// Command littlelemon keeps the local Little Lemon menu cache in sync with the remote menu
// and serves it to the presentation layer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	grpcserver "github.com/wyfcoding/littlelemon/internal/menu/interfaces/grpc"
	httpserver "github.com/wyfcoding/littlelemon/internal/menu/interfaces/http"
	"github.com/wyfcoding/littlelemon/pkg/grpcclient"
	"github.com/wyfcoding/littlelemon/pkg/metrics"
	"github.com/wyfcoding/littlelemon/pkg/middleware"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "littlelemon",
		Short:         "Little Lemon menu cache sync service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/littlelemon.toml", "config file path")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Sync the menu in the background and serve the read API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Run one sync pass, print its report and exit",
			RunE:  runSync,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Prepare the menu store schema and exit",
			RunE:  runMigrate,
		},
		newHealthCommand(),
		newSnapshotCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to release resources", "error", err)
		}
	}()

	grpcSrv, health := grpcserver.NewServer()
	health.StoreReady()
	a.sync.OnComplete(health.ObserveSync)

	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled && a.redis != nil {
		limiter = middleware.NewRedisLimiter(a.redis.Client(), cfg.RateLimit.QPS, cfg.RateLimit.Burst)
	}
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Debug:        cfg.Environment == "dev",
		AllowOrigins: cfg.HTTP.AllowOrigins,
		MetricsPath:  cfg.Metrics.Path,
		Metrics:      metricsIfEnabled(a),
		Limiter:      limiter,
	}, httpserver.NewMenuHandler(a.query))
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.sync.Start(gctx, cfg.Menu.RefreshInterval)
	})

	if cfg.GRPC.Enabled {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr())
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}
			log.Info("gRPC server starting", "addr", cfg.GRPC.Addr())
			return grpcSrv.Serve(lis)
		})
	}

	if cfg.HTTP.Enabled {
		g.Go(func() error {
			log.Info("HTTP server starting", "addr", cfg.HTTP.Addr())
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down servers...")
		health.Shutdown()
		a.views.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP shutdown incomplete", "error", err)
		}
		grpcSrv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func metricsIfEnabled(a *app) *metrics.Metrics {
	if !a.cfg.Metrics.Enabled {
		return nil
	}
	return a.metrics
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.sync.Run(ctx)
	if err := printJSON(cmd, report); err != nil {
		return err
	}
	if !report.Status.OK() {
		return fmt.Errorf("sync pass ended with status %s", report.Status)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	conn, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "menu store ready (%s)\n", conn.Driver())
	return nil
}

func newHealthCommand() *cobra.Command {
	var addr string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the gRPC health endpoint of a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				cfg, _, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				addr = cfg.GRPC.Addr()
			}
			conn, err := grpcclient.NewClient(grpcclient.ClientConfig{
				Target:         addr,
				RequestTimeout: timeout,
				MaxRetries:     2,
				RetryDelay:     200 * time.Millisecond,
			})
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout*3)
			defer cancel()
			server, err := grpcclient.CheckHealth(ctx, conn, "")
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}
			lastSync, err := grpcclient.CheckHealth(ctx, conn, grpcserver.SyncServiceName)
			if err != nil {
				return fmt.Errorf("health check %s: %w", grpcserver.SyncServiceName, err)
			}
			if err := printJSON(cmd, map[string]string{
				"server":                   server.String(),
				grpcserver.SyncServiceName: lastSync.String(),
			}); err != nil {
				return err
			}
			if server != healthpb.HealthCheckResponse_SERVING {
				return errors.New("server is not serving")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC address, defaults to grpc.host:grpc.port from config")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "per-call timeout")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
