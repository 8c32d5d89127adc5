package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetab/internal/amqp"
	"expensetab/internal/cli"
	"expensetab/internal/config"
	"expensetab/internal/log"
	"expensetab/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Error("Failed to load .env file", log.FieldError, err.Error())
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.ValidateWorker(); err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	logger.Info("Starting expensetab-worker",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend,
		"queue", cfg.AMQPQueue,
		"sync_interval", cfg.SyncInterval.String())

	svc, err := cli.OpenService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err.Error())
		}
	}()

	consumer, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	w := worker.NewSyncWorker(svc, worker.WithLogger(logger))
	w.StartupSync(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeWithReconnect(gctx, cfg.AMQPQueue, w.HandleStateChanged)
	})
	g.Go(func() error {
		return w.RunPeriodic(gctx, cfg.SyncInterval)
	})
	return g.Wait()
}
