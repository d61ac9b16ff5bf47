package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-sod/glove/internal/buildinfo"
	"github.com/go-sod/glove/internal/collector"
	glove "github.com/go-sod/glove/internal/config"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/metric"
	"github.com/go-sod/glove/internal/predict"
	"github.com/go-sod/glove/internal/server"
	"github.com/go-sod/glove/internal/setup"
	"github.com/go-sod/glove/internal/shutdown"
)

const healthSyncInterval = time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the collector with its HTTP and gRPC endpoints",
		Args:  cobra.NoArgs,
		RunE:  runServiceCmd,
	}
}

func runServiceCmd(cmd *cobra.Command, _ []string) error {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), buildinfo.Graffiti)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Info.String())

	var logCfg logging.Config
	if err := envconfig.Process("", &logCfg); err != nil {
		return fmt.Errorf("error loading logging config: %w", err)
	}
	logger := logging.NewLogger(logCfg.Level, logCfg.Development)
	defer logger.Sync()

	ctx, done := shutdown.New()
	defer done()
	ctx = logging.WithLogger(ctx, logger)

	if err := run(ctx); err != nil {
		logger.Errorf("glove stopped: %v", err)
		return err
	}
	return nil
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	config := glove.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("unable to release resources: %v", err)
		}
	}()

	if err := metric.Register(); err != nil {
		return fmt.Errorf("metric.Register: %w", err)
	}

	cls, err := env.ProvideClassifier()(ctx)
	if err != nil {
		return fmt.Errorf("classifier provider function error: %w", err)
	}
	manager, err := env.ProvideCollector()(ctx)
	if err != nil {
		return fmt.Errorf("collector provider function error: %w", err)
	}

	probe := readiness(manager)

	mux := http.NewServeMux()
	predictHandler, err := predict.NewHandler(&config.Predict, cls, env.Vocabulary())
	if err != nil {
		return fmt.Errorf("predict.NewHandler: %w", err)
	}
	metricsHandler, err := metric.NewHandler()
	if err != nil {
		return fmt.Errorf("metric.NewHandler: %w", err)
	}
	mux.Handle("/predict", predictHandler)
	mux.Handle("/metrics", metricsHandler)
	mux.Handle("/health", server.HandleHealth(ctx, probe))

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	grpcSrv, err := server.New(config.GRPCAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	grpcServer, healthServer := server.NewGRPCHealth()

	// The endpoints live as long as the collector loop.
	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(srvCtx)
	g.Go(func() error {
		defer cancel()
		if err := manager.Run(gctx); err != nil {
			return fmt.Errorf("collector.Run: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.ServeHTTPHandler(gctx, mux)
	})
	g.Go(func() error {
		return grpcSrv.ServeGRPC(gctx, grpcServer)
	})
	g.Go(func() error {
		server.SyncHealth(gctx, healthServer, probe, healthSyncInterval)
		return nil
	})

	return g.Wait()
}

// readiness serves while the collector loop is RUNNING and reports its stats.
func readiness(m collector.Manager) server.Probe {
	return func() (bool, interface{}) {
		return m.State() == collector.StateRunning, m.Stats()
	}
}
