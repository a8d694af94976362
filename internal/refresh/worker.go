// Package refresh reloads the cached collections on a fixed interval.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Loader reloads everything the worker keeps fresh.
type Loader interface {
	LoadAll(ctx context.Context) error
}

type Observer interface {
	ObserveRefresh(err error)
}

type Worker struct {
	loader   Loader
	interval time.Duration
	timeout  time.Duration
	obs      Observer
	logger   *slog.Logger

	stopChan chan struct{}
	done     chan struct{}
	start    sync.Once
	stop     sync.Once
}

func NewWorker(loader Loader, interval time.Duration, obs Observer, logger *slog.Logger) *Worker {
	return &Worker{
		loader:   loader,
		interval: interval,
		timeout:  30 * time.Second,
		obs:      obs,
		logger:   logger.With("component", "refresh"),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one refresh immediately and then one per interval until Stop.
func (w *Worker) Start() {
	w.start.Do(func() {
		w.logger.Info("refresh worker started", "interval", w.interval)
		go w.run()
	})
}

// Stop ends the loop and waits for an in-flight refresh to finish. It is a
// no-op when the worker was never started.
func (w *Worker) Stop() {
	first := false
	w.start.Do(func() { close(w.done) })
	w.stop.Do(func() {
		close(w.stopChan)
		first = true
	})
	if first {
		<-w.done
		w.logger.Info("refresh worker stopped")
	}
}

func (w *Worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh()
	for {
		select {
		case <-ticker.C:
			w.refresh()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	err := w.loader.LoadAll(ctx)
	if w.obs != nil {
		w.obs.ObserveRefresh(err)
	}
	if err != nil {
		w.logger.Error("refresh failed", "error", err)
		return
	}
	w.logger.Debug("refresh complete")
}
