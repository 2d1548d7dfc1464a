// Command finflow-notifier drains budget and streak notifications published
// by finflow and delivers them to the log sink.
package main

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"finflow/internal/amqp"
	"finflow/internal/cli"
	"finflow/internal/log"
	"finflow/internal/notify"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentNotifier)

	logger.Info("Starting finflow-notifier", log.FieldOperation, log.OpStartup)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	sink := notify.LogNotifier{Logger: logger}
	var delivered atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeNotifications(gctx, func(ctx context.Context, msg *amqp.NotificationMessage) error {
			delivered.Add(1)
			return sink.Notify(ctx, msg.Title, msg.Body)
		})
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				logger.Debug("Notifier heartbeat", "delivered", delivered.Load())
			}
		}
	})

	err = g.Wait()
	if cerr := client.Close(); cerr != nil {
		logger.Warn("AMQP close failed", log.FieldError, cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Notification consumer stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Notifier shutdown complete", log.FieldOperation, log.OpShutdown, "delivered", delivered.Load())
}
