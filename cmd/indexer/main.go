package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sui-amm-indexer/internal/api"
	"sui-amm-indexer/internal/bus"
	"sui-amm-indexer/internal/cointype"
	"sui-amm-indexer/internal/config"
	"sui-amm-indexer/internal/dedupe"
	"sui-amm-indexer/internal/ingestion"
	"sui-amm-indexer/internal/logging"
	"sui-amm-indexer/internal/observability"
	"sui-amm-indexer/internal/publish"
	"sui-amm-indexer/internal/storage"
	chstore "sui-amm-indexer/internal/storage/clickhouse"
	"sui-amm-indexer/internal/storage/memory"
	"sui-amm-indexer/internal/storage/migrations"
	pgstore "sui-amm-indexer/internal/storage/postgres"
	"sui-amm-indexer/internal/sui"
)

func main() {
	flags := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.LookupEnv)
	flags.Apply(cfg)
	cfg.Normalize()

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("indexer failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// run wires every component and blocks until ctx is cancelled or a
// component fails.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting indexer",
		zap.String("rpc", cfg.Sui.RPCURL),
		zap.String("ws", cfg.Sui.WSURL),
		zap.String("package_id", cfg.Sui.PackageID),
		zap.String("config_id", cfg.Sui.ConfigID),
		zap.Bool("use_memory", cfg.Storage.UseMemory),
	)

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	archive, archived, closeArchive, err := openArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	deduper, closeDeduper, err := openDeduper(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeduper()

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close publisher", zap.Error(err))
		}
	}()

	rpc := sui.NewHTTPClient(cfg.Sui.RPCURL,
		sui.WithTimeout(cfg.Sui.RPCTimeout),
		sui.WithMaxRetries(cfg.Sui.RPCMaxRetries),
	)
	ws := sui.NewWSClient(cfg.Sui.WSURL, nil, logger)

	resolver := cointype.New(rpc, cointype.Options{CacheSize: cfg.Sui.CoinCacheSize, Logger: logger})
	projectors := ingestion.NewProjectors(stores, cfg.Chart.CarryDayRollover, logger)

	eventBus := bus.New(cfg.Bus.Capacity)
	defer eventBus.Close()
	consumer, err := eventBus.Subscribe("dispatcher")
	if err != nil {
		return fmt.Errorf("subscribe dispatcher: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.Subscriber.InitialBackoff
	policy.MaxInterval = cfg.Subscriber.MaxBackoff
	policy.MaxElapsedTime = 0
	policy.Reset()

	subscriber := ingestion.NewSubscriber(ingestion.SubscriberOptions{
		Source:     ws,
		Bus:        eventBus,
		PackageID:  cfg.Sui.PackageID,
		Policy:     policy,
		MaxBackoff: cfg.Subscriber.MaxBackoff,
		Logger:     logger,
	})

	dispatcher := ingestion.NewDispatcher(ingestion.DispatcherOptions{
		PoolCreation: ingestion.NewPoolCreationHandler(resolver, rpc, projectors, publisher, logger),
		Swap:         ingestion.NewSwapHandler(resolver, rpc, projectors, archive, publisher, logger),
		Resolver:     resolver,
		Deduper:      deduper,
		StoreTimeout: cfg.Dispatcher.StoreTimeout,
		Workers:      cfg.Dispatcher.Workers,
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return subscriber.Run(gctx)
	})
	g.Go(func() error {
		return dispatcher.Run(gctx, consumer.Events())
	})
	if cfg.HTTP.Addr != "" {
		server := api.NewServer(api.Options{
			Stores:  stores,
			Archive: archived,
			Metrics: observability.Handler(),
			Logger:  logger,
		})
		g.Go(func() error {
			return runHTTPServer(gctx, cfg.HTTP, server.Router(), logger)
		})
	}

	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Stores, func(), error) {
	if cfg.Storage.UseMemory {
		logger.Info("using in-memory stores")
		return memory.NewStores(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return storage.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.Storage.RunMigrations {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return storage.Stores{}, nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}
	return pgstore.NewStores(pool), pool.Close, nil
}

// openArchive returns the buffered archive writer and the read side used by
// the API. Both are nil when no ClickHouse DSN is configured.
func openArchive(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.SwapArchive, api.SwapLister, func(), error) {
	if cfg.Archive.ClickHouseDSN == "" {
		return nil, nil, func() {}, nil
	}

	var (
		conn *chstore.Conn
		err  error
	)
	if cfg.Storage.RunMigrations {
		conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Archive.ClickHouseDSN)
	} else {
		conn, err = chstore.NewConn(ctx, cfg.Archive.ClickHouseDSN)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	swaps := chstore.NewSwapStore(conn)
	wc := cfg.Archive.Writer
	writer := chstore.NewWriter(swaps, chstore.WriterConfig{
		BatchMaxRows:     wc.BatchMaxRows,
		BatchMaxInterval: wc.BatchMaxInterval,
		MaxRetries:       wc.MaxRetries,
		RetryBackoff:     wc.RetryBackoff,
		Buffer:           wc.Buffer,
	}, logger)
	logger.Info("swap archive enabled")

	return writer, swaps, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := writer.Close(closeCtx); err != nil {
			logger.Warn("close swap archive writer", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			logger.Warn("close clickhouse", zap.Error(err))
		}
	}, nil
}

func openDeduper(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dedupe.Deduper, func(), error) {
	if !cfg.Dedupe.Enabled {
		return nil, func() {}, nil
	}

	switch cfg.Dedupe.Backend {
	case "redis":
		rc := cfg.Dedupe.Redis
		rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs:    []string{rc.Addr},
			Username: rc.Username,
			Password: rc.Password,
			DB:       rc.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		d, err := dedupe.NewRedisDeduper(rdb, cfg.Dedupe.TTL, rc.Prefix)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		logger.Info("redis dedupe enabled", zap.String("addr", rc.Addr), zap.Duration("ttl", cfg.Dedupe.TTL))
		return d, func() { _ = rdb.Close() }, nil
	default:
		d := dedupe.NewMemoryDeduper(cfg.Dedupe.TTL, time.Minute, logger)
		logger.Info("memory dedupe enabled", zap.Duration("ttl", cfg.Dedupe.TTL))
		return d, d.Close, nil
	}
}

func openPublisher(cfg *config.Config, logger *zap.Logger) (publish.Publisher, error) {
	nc := cfg.PubSub.NATS
	if nc.URL == "" {
		return publish.Noop{}, nil
	}
	p, err := publish.NewNATSPublisher(nc.URL, nc.SubjectPrefix, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("nats publishing enabled", zap.String("url", nc.URL), zap.String("prefix", nc.SubjectPrefix))
	return p, nil
}

func runHTTPServer(ctx context.Context, hc config.HTTPConfig, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:         hc.Addr,
		Handler:      handler,
		ReadTimeout:  hc.ReadTimeout,
		WriteTimeout: hc.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", hc.Addr))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), hc.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}
