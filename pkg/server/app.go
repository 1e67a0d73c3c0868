package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "SweepSim/internal/domain/repository"
	mid "SweepSim/internal/middleware"
	internalrepo "SweepSim/internal/repository"
	"SweepSim/internal/usecase"
	pkgch "SweepSim/pkg/clickhouse"
	"SweepSim/pkg/config"
	xhttp "SweepSim/pkg/http"
	pkgkafka "SweepSim/pkg/kafka"
	applogger "SweepSim/pkg/logger"
)

// App encapsulates the entire application lifecycle. In replay mode it drives
// a recorded candle file through the pipeline; in live mode it consumes the
// WebSocket stream and/or a Kafka topic. The HTTP API runs in both modes.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	guard      *mid.StreamGuard
	replay     *usecase.ReplayUseCase
	collector  *usecase.CandleCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	pub        domrepo.SignalPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	guard *mid.StreamGuard,
	replay *usecase.ReplayUseCase,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	pub domrepo.SignalPublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		guard:     guard,
		replay:    replay,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		pub:       pub,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.guard.Start(ctx)

	switch a.cfg.Mode {
	case "replay":
		if a.cfg.Replay.CSVPath != "" {
			go a.runReplayFromFile(ctx)
		} else {
			a.log.Info("replay mode idle; trigger runs via POST /api/replay/run")
		}
	case "live":
		if a.collector != nil {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("collector start error", applogger.Error(err))
				return err
			}
			a.log.Info("stream collector started", applogger.Strings("symbols", a.cfg.Stream.Symbols))
		}
		if a.consumer != nil && a.kh != nil {
			a.consumer.RegisterHandler(a.kh)
			go func() {
				if err := a.consumer.Start(); err != nil {
					a.log.Error("kafka consumer error", applogger.Error(err))
				}
			}()
			a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// runReplayFromFile replays the configured CSV file once at startup. The
// server stays up afterwards so the report and events can be queried.
func (a *App) runReplayFromFile(ctx context.Context) {
	source, err := internalrepo.NewCSVCandleSource(a.cfg.Replay.CSVPath, a.cfg.Replay.Symbol)
	if err != nil {
		a.log.Error("open replay file", applogger.Error(err))
		return
	}
	a.log.Info("replay starting",
		applogger.String("file", a.cfg.Replay.CSVPath),
		applogger.String("symbol", a.cfg.Replay.Symbol),
	)
	if _, err := a.replay.Run(ctx, source); err != nil {
		a.log.Error("replay failed", applogger.Error(err))
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	} else {
		a.guard.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
