package engine

import (
	"context"
	"sync"
	"time"

	"github.com/MRamiBalles/QuietDepths/internal/platform/logger"
)

// Ticker drives the three session schedules: idle income at a variable
// period, event checks and persistence at fixed periods. All three start
// together and stop together; once Stop returns no callback is running or
// will run.
type Ticker struct {
	logger *logger.Logger

	onIdle    func()
	onEvent   func()
	onPersist func()

	idlePeriod    time.Duration
	eventInterval time.Duration
	saveInterval  time.Duration

	reschedule chan time.Duration
	stopChan   chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewTicker creates a ticker. Nothing runs until Start.
func NewTicker(log *logger.Logger, idlePeriod, eventInterval, saveInterval time.Duration,
	onIdle, onEvent, onPersist func()) *Ticker {
	return &Ticker{
		logger:        log,
		onIdle:        onIdle,
		onEvent:       onEvent,
		onPersist:     onPersist,
		idlePeriod:    idlePeriod,
		eventInterval: eventInterval,
		saveInterval:  saveInterval,
		reschedule:    make(chan time.Duration, 1),
		stopChan:      make(chan struct{}),
	}
}

// Start launches the schedules. Calling it again has no effect.
func (t *Ticker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		t.wg.Add(3)
		go t.runIdle(ctx)
		go t.runFixed(ctx, t.eventInterval, t.onEvent)
		go t.runFixed(ctx, t.saveInterval, t.onPersist)
		t.logger.Info("Ticker started. Lines are in the water.")
	})
}

// Stop cancels all schedules and waits for in-flight callbacks.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
		t.logger.Info("Ticker stopped.")
	})
}

// Reschedule replaces the idle period. The next idle fire is re-armed
// with d immediately instead of waiting out the old period. Only the
// latest pending value is kept.
func (t *Ticker) Reschedule(d time.Duration) {
	if d <= 0 {
		return
	}
	for {
		select {
		case t.reschedule <- d:
			return
		default:
		}
		select {
		case <-t.reschedule:
		default:
		}
	}
}

func (t *Ticker) runIdle(ctx context.Context) {
	defer t.wg.Done()

	period := t.idlePeriod
	timer := time.NewTimer(period)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		case d := <-t.reschedule:
			if d == period {
				continue
			}
			period = d
			timer.Reset(period)
		case <-timer.C:
			t.onIdle()
			timer.Reset(period)
		}
	}
}

func (t *Ticker) runFixed(ctx context.Context, interval time.Duration, fn func()) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		case <-ticker.C:
			fn()
		}
	}
}
