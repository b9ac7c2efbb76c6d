// Package main runs the UTXO ingester: it replays a height range from a node
// into the configured store with every input annotated.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/config"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/repository/bolt"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/repository/clickhouse"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/repository/memory"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/repository/mongo"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/service/ingester"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("utxo ingester failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer closeStore()

	rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return fmt.Errorf("init utxo rpc client: %w", err)
	}
	defer func() {
		rpcClient.Shutdown()
		rpcClient.WaitForShutdown()
	}()

	evaluator, err := bitcoin.NewScriptEvaluator(cfg.Network)
	if err != nil {
		return err
	}
	source, err := bitcoin.NewBlockSource(
		bitcoin.NewRPCClient(rpcClient, metrics.NewRPCClient(cfg.Coin, cfg.Network)),
		evaluator,
		cfg.SourceOptions(),
		logger.Named("block_source"),
	)
	if err != nil {
		return err
	}

	pipeline, err := ingester.NewPipeline(
		store,
		metrics.NewPipeline(cfg.Coin, cfg.Network),
		cfg.PipelineOptions(),
		logger.Named("pipeline").With(zap.String("network", string(cfg.Network))),
	)
	if err != nil {
		return err
	}

	return ingester.Replay(ctx, source, pipeline, cfg.Coin, cfg.ReplayRange(), logger.Named("replay"))
}

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config) (ingester.Store, func(), error) {
	repoMetrics := metrics.NewRepository(cfg.Store, cfg.Coin, cfg.Network)

	switch cfg.Store {
	case config.StoreMongo:
		repo, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, repoMetrics)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = repo.Disconnect(shutdownCtx)
		}, nil
	case config.StoreClickhouse:
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, cfg.Coin, cfg.Network, repoMetrics)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.StoreBolt:
		repo, err := bolt.Open(cfg.BoltPath, repoMetrics)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.StoreMemory:
		return memory.NewRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store %q", cfg.Store)
	}
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	return rpcclient.New(&rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   parsed.Scheme == "http",
	}, nil)
}
