package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/dig"

	"TokenBoard/internal/board"
	"TokenBoard/internal/collector"
	"TokenBoard/internal/events"
	"TokenBoard/internal/notifier"
	"TokenBoard/internal/recorder"
	"TokenBoard/internal/scheduler"
	"TokenBoard/internal/store"
)

// Application owns every long-running component of the server.
type Application struct {
	server    *http.Server
	board     *board.Manager
	scheduler *scheduler.Scheduler
	notifier  *notifier.TelegramNotifier
	sink      *events.KafkaSink
	broker    *events.Broker
	collector *collector.Collector
	repo      store.Repository
	recorder  recorder.Recorder
	logger    *slog.Logger
}

type appParams struct {
	dig.In

	Server    *http.Server
	Board     *board.Manager
	Scheduler *scheduler.Scheduler
	Notifier  *notifier.TelegramNotifier
	Sink      *events.KafkaSink
	Broker    *events.Broker
	Collector *collector.Collector
	Repo      store.Repository
	Recorder  recorder.Recorder
	Logger    *slog.Logger
}

func NewApplication(p appParams) *Application {
	return &Application{
		server:    p.Server,
		board:     p.Board,
		scheduler: p.Scheduler,
		notifier:  p.Notifier,
		sink:      p.Sink,
		broker:    p.Broker,
		collector: p.Collector,
		repo:      p.Repo,
		recorder:  p.Recorder,
		logger:    p.Logger,
	}
}

// Run starts all components and blocks until ctx is cancelled or the HTTP
// server fails.
func (a *Application) Run(ctx context.Context, refreshOnStart bool) error {
	defer a.close()

	a.scheduler.Start()
	defer a.scheduler.Stop()

	if a.notifier != nil {
		go a.notifier.StartPolling(ctx, a.scheduler.HandleCommand)
		a.logger.Info("telegram polling started")
	}

	sinkDone := make(chan struct{})
	if a.sink != nil {
		go func() {
			defer close(sinkDone)
			a.sink.Run(ctx, a.broker)
		}()
	} else {
		close(sinkDone)
	}

	if refreshOnStart {
		go a.scheduler.RunRefreshNow()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr, "docs", "http://"+a.server.Addr+"/docs")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, stopping...")
	case runErr = <-errCh:
		a.logger.Error("http server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown failed", "error", err)
	}
	a.broker.Close()
	<-sinkDone
	return runErr
}

func (a *Application) close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Warn("close kafka sink", "error", err)
		}
	}
	if err := a.collector.Close(); err != nil {
		a.logger.Warn("close collector", "error", err)
	}
	if err := a.recorder.Close(); err != nil {
		a.logger.Warn("close recorder", "error", err)
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("close repository", "error", err)
	}
}
