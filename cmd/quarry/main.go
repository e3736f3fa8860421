package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/icecave/quarry/cmd"
	"github.com/icecave/quarry/frontend"
	"github.com/icecave/quarry/health"
	"github.com/icecave/quarry/logging"
	"github.com/icecave/quarry/proxy"
	"github.com/icecave/quarry/query"
	"github.com/icecave/quarry/store"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	config := cmd.GetConfigFromEnvironment()

	logger, err := logging.New(config.Env, config.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(config, logger); err != nil {
		logger.Fatal("quarry stopped", zap.Error(err))
	}

	logger.Info("quarry stopped gracefully")
}

func run(config *cmd.Config, logger *zap.Logger) (err error) {
	registry, err := loadRegistry(config, logger)
	if err != nil {
		return err
	}

	redisStore := &store.RedisStore{
		Client: redis.NewClient(&redis.Options{
			Addr:     config.Store.RedisAddress,
			Password: config.Store.RedisPassword,
			DB:       config.Store.RedisDB,
		}),
		Collection: config.Store.Collection,
	}

	asyncStore := store.NewAsyncStore(
		redisStore,
		config.Store.QueueSize,
		config.Store.Workers,
		config.Store.Timeout,
		logger,
	)

	// The queue is drained before the connection to the store is closed.
	defer func() {
		err = multierr.Combine(err, asyncStore.Close(), redisStore.Close())
	}()

	healthHandler := &health.HTTPHandler{
		Checker: &health.StoreChecker{
			Store:   redisStore,
			Timeout: config.CheckTimeout,
		},
		Logger: logger,
	}

	proxyHandler := proxy.NewHandler(
		&proxy.Recorder{
			Registry: registry,
			Store:    asyncStore,
			Logger:   logger,
		},
		&proxy.Forwarder{
			Transport: proxy.NewTransport(config.Upstream.MaxConnsPerHost, 0),
			Timeout:   config.Upstream.Timeout,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := []*frontend.Server{
		{
			Name:        "proxy",
			BindAddress: net.JoinHostPort("", config.Port),
			Handler: &frontend.Handler{
				Proxy:       proxyHandler,
				HealthCheck: healthHandler,
			},
			ProxyProtocol: config.ProxyProtocol,
			Logger:        logger,
		},
		{
			Name:        "admin",
			BindAddress: net.JoinHostPort("", config.AdminPort),
			Handler:     frontend.NewAdminRouter(healthHandler),
			Logger:      logger,
		},
	}

	return serve(ctx, servers)
}

// serve runs each server until ctx is canceled or any one of them fails, in
// which case the others are stopped too.
func serve(ctx context.Context, servers []*frontend.Server) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, len(servers))
	for _, svr := range servers {
		go func(svr *frontend.Server) {
			err := svr.Run(ctx)
			cancel()
			errs <- err
		}(svr)
	}

	var err error
	for range servers {
		err = multierr.Append(err, <-errs)
	}

	return err
}

func loadRegistry(config *cmd.Config, logger *zap.Logger) (query.Registry, error) {
	if config.DialectsFile == "" {
		logger.Info("using built-in dialect table", zap.Int("dialects", len(query.BuiltinDialects)))
		return query.NewRegistry(query.BuiltinDialects)
	}

	dialects, err := query.LoadDialects(config.DialectsFile)
	if err != nil {
		return nil, err
	}

	logger.Info(
		"loaded dialect table",
		zap.String("path", config.DialectsFile),
		zap.Int("dialects", len(dialects)),
	)

	return query.NewRegistry(dialects)
}
