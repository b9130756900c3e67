package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "WalletPnL/internal/middleware"
	"WalletPnL/internal/usecase"
	"WalletPnL/pkg/config"
	xhttp "WalletPnL/pkg/http"
	pkgkafka "WalletPnL/pkg/kafka"
	applogger "WalletPnL/pkg/logger"
	"WalletPnL/pkg/queue"
)

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	server    *xhttp.Server
	sink      *mid.SinkPipeline
	processor *usecase.SummaryProcessor
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	workers   *queue.RedisQueue
	closers   []closer
}

type AppOption func(*App)

// WithSink attaches the summary delivery pipeline and the processor behind it.
func WithSink(pipe *mid.SinkPipeline, proc *usecase.SummaryProcessor) AppOption {
	return func(a *App) {
		a.sink, a.processor = pipe, proc
	}
}

// WithKafkaConsumer consumes analysis requests from kafka.
func WithKafkaConsumer(consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler) AppOption {
	return func(a *App) {
		a.consumer, a.kh = consumer, kh
	}
}

// WithJobWorkers runs the redis job queue consumer.
func WithJobWorkers(q *queue.RedisQueue) AppOption {
	return func(a *App) {
		a.workers = q
	}
}

// WithCloser registers an infrastructure client to close last, in registration order.
func WithCloser(name string, fn func() error) AppOption {
	return func(a *App) {
		if fn != nil {
			a.closers = append(a.closers, closer{name: name, fn: fn})
		}
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, lgr *applogger.Logger, srv *xhttp.Server, opts ...AppOption) *App {
	a := &App{cfg: cfg, logger: lgr, server: srv}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.start(); err != nil {
		a.shutdown()
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	a.shutdown()
	return nil
}

func (a *App) start() error {
	if a.sink != nil {
		// Delivery outlives the signal so buffered summaries still drain.
		a.sink.Start(context.Background())
		a.logger.Info("summary sink started")
	}

	if a.workers != nil {
		if err := a.workers.Start(); err != nil {
			return fmt.Errorf("start job workers: %w", err)
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.server.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	return nil
}

// shutdown stops intake first, then drains delivery, then closes clients.
func (a *App) shutdown() {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.logger.Info("shutting down...")

	if err := a.server.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.workers != nil {
		if err := a.workers.Stop(ctx); err != nil {
			a.logger.Warn("job workers stop error", applogger.Error(err))
		}
	}

	if a.sink != nil {
		if err := a.sink.Stop(ctx); err != nil {
			a.logger.Warn("summary sink stop error", applogger.Error(err), applogger.Int("pending", a.sink.Pending()))
		}
	}
	if a.processor != nil {
		a.processor.Close()
	}

	// Flushes the last error digest while the producer is still open.
	a.logger.RemoveCollector()

	for _, c := range a.closers {
		if err := c.fn(); err != nil {
			a.logger.Warn("close error", applogger.String("client", c.name), applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
}
