// Package metrics provides in-process counters for the simulation loop,
// persistence and the websocket transport.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Simulation
	IdleTicks      int64
	EventChecks    int64
	EventsStarted  int64
	Clicks         int64
	Purchases      int64
	Declined       int64
	ResourceGained int64
	LastTickTime   time.Time

	// Persistence
	SavesWritten int64
	SavesSkipped int64
	SaveLatSum   int64 // nanoseconds
	SaveLatMax   int64
	SaveErrors   int64

	// WebSocket
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = NewCollector()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{StartTime: time.Now()}
}

// RecordIdleTick records an idle-income tick and the fish it produced.
func (c *Collector) RecordIdleTick(gained int64) {
	atomic.AddInt64(&c.IdleTicks, 1)
	atomic.AddInt64(&c.ResourceGained, gained)

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordEventCheck records one event-engine check; started reports a new event.
func (c *Collector) RecordEventCheck(started bool) {
	atomic.AddInt64(&c.EventChecks, 1)
	if started {
		atomic.AddInt64(&c.EventsStarted, 1)
	}
}

// RecordClick records a click action and the fish it produced.
func (c *Collector) RecordClick(gained int64) {
	atomic.AddInt64(&c.Clicks, 1)
	atomic.AddInt64(&c.ResourceGained, gained)
}

// RecordPurchase records an upgrade purchase attempt.
func (c *Collector) RecordPurchase(accepted bool) {
	if accepted {
		atomic.AddInt64(&c.Purchases, 1)
	} else {
		atomic.AddInt64(&c.Declined, 1)
	}
}

// RecordSave records a snapshot write attempt. Only successful writes
// count toward SavesWritten and the latency figures.
func (c *Collector) RecordSave(latency time.Duration, err error) {
	if err != nil {
		atomic.AddInt64(&c.SaveErrors, 1)
		return
	}
	atomic.AddInt64(&c.SavesWritten, 1)
	atomic.AddInt64(&c.SaveLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.SaveLatMax) {
		atomic.StoreInt64(&c.SaveLatMax, int64(latency))
	}
}

// RecordSaveSkipped records a persistence tick with nothing new to write.
func (c *Collector) RecordSaveSkipped() {
	atomic.AddInt64(&c.SavesSkipped, 1)
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	saves := atomic.LoadInt64(&c.SavesWritten)
	var saveAvg float64
	if saves > 0 {
		saveAvg = float64(atomic.LoadInt64(&c.SaveLatSum)) / float64(saves) / 1e6 // ms
	}

	lastTick := ""
	if !c.LastTickTime.IsZero() {
		lastTick = c.LastTickTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"simulation": map[string]interface{}{
			"idle_ticks":      atomic.LoadInt64(&c.IdleTicks),
			"event_checks":    atomic.LoadInt64(&c.EventChecks),
			"events_started":  atomic.LoadInt64(&c.EventsStarted),
			"clicks":          atomic.LoadInt64(&c.Clicks),
			"purchases":       atomic.LoadInt64(&c.Purchases),
			"declined":        atomic.LoadInt64(&c.Declined),
			"resource_gained": atomic.LoadInt64(&c.ResourceGained),
			"last_tick":       lastTick,
		},

		"persistence": map[string]interface{}{
			"written":    saves,
			"skipped":    atomic.LoadInt64(&c.SavesSkipped),
			"avg_lat_ms": saveAvg,
			"max_lat_ms": float64(atomic.LoadInt64(&c.SaveLatMax)) / 1e6,
			"errors":     atomic.LoadInt64(&c.SaveErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(collector.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		writePrometheus(w, collector)
	}
}

func writePrometheus(w http.ResponseWriter, c *Collector) {
	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}

	counter("depths_idle_ticks_total", "Idle income ticks", atomic.LoadInt64(&c.IdleTicks))
	counter("depths_event_checks_total", "Event engine checks", atomic.LoadInt64(&c.EventChecks))
	counter("depths_events_started_total", "Timed events started", atomic.LoadInt64(&c.EventsStarted))
	counter("depths_clicks_total", "Click actions", atomic.LoadInt64(&c.Clicks))
	counter("depths_resource_gained_total", "Fish gained from clicks and idle ticks", atomic.LoadInt64(&c.ResourceGained))

	fmt.Fprintf(w, "# HELP depths_purchases_total Upgrade purchase attempts\n")
	fmt.Fprintf(w, "# TYPE depths_purchases_total counter\n")
	fmt.Fprintf(w, "depths_purchases_total{outcome=\"accepted\"} %d\n", atomic.LoadInt64(&c.Purchases))
	fmt.Fprintf(w, "depths_purchases_total{outcome=\"declined\"} %d\n\n", atomic.LoadInt64(&c.Declined))

	counter("depths_saves_total", "Snapshot writes", atomic.LoadInt64(&c.SavesWritten))
	counter("depths_save_errors_total", "Snapshot write errors", atomic.LoadInt64(&c.SaveErrors))

	fmt.Fprintf(w, "# HELP depths_save_latency_max_ms Maximum snapshot write latency\n")
	fmt.Fprintf(w, "# TYPE depths_save_latency_max_ms gauge\n")
	fmt.Fprintf(w, "depths_save_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.SaveLatMax))/1e6)

	fmt.Fprintf(w, "# HELP depths_ws_connections Active WebSocket connections\n")
	fmt.Fprintf(w, "# TYPE depths_ws_connections gauge\n")
	fmt.Fprintf(w, "depths_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

	fmt.Fprintf(w, "# HELP depths_ws_messages_total Total WebSocket messages\n")
	fmt.Fprintf(w, "# TYPE depths_ws_messages_total counter\n")
	fmt.Fprintf(w, "depths_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
	fmt.Fprintf(w, "depths_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
}
