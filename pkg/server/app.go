package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GeoPulse/internal/scheduler"
	"GeoPulse/internal/usecase"
	pkgch "GeoPulse/pkg/clickhouse"
	"GeoPulse/pkg/config"
	xhttp "GeoPulse/pkg/http"
	pkgkafka "GeoPulse/pkg/kafka"
	applogger "GeoPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle: the refresh
// scheduler, the live contract stream, the optional Kafka recorder and
// the HTTP API.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	builder   *usecase.SnapshotBuilder
	sched     *scheduler.Scheduler
	collector *usecase.ContractCollector
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	chClient  *pkgch.Client
	httpSrv   *xhttp.Server

	// Rec owns the observation sinks; closed last on shutdown.
	Rec *usecase.ObservationRecorder
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	builder *usecase.SnapshotBuilder,
	sched *scheduler.Scheduler,
	collector *usecase.ContractCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	httpSrv := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	return &App{
		cfg:       cfg,
		logger:    log,
		builder:   builder,
		sched:     sched,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		httpSrv:   httpSrv,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := a.logger

	// First snapshot before serving, so /api/scores has data at boot.
	// Failure is tolerated; the scheduler retries on its own cadence.
	bootCtx, bootCancel := context.WithTimeout(ctx, 2*time.Minute)
	if err := a.builder.Rebuild(bootCtx); err != nil {
		l.Warn("initial snapshot build failed, serving will warm up later",
			applogger.Error(err))
	}
	bootCancel()

	a.sched.Start(ctx)
	l.Info("scheduler started")

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("contract stream error", applogger.Error(err))
			}
		}()
		l.Info("contract stream collector started")
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpSrv.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("serving", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	a.sched.Stop()

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.Rec != nil {
		a.Rec.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
