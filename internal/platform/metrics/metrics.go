// Package metrics provides observability for the drill server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers runtime counters. All Record methods are safe for
// concurrent use.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	TickErrors     int64
	LastTickTime   time.Time

	// Simulation outcomes
	Deaths        int64
	HookFaults    int64
	Notifications int64
	ActionsOK     int64
	ActionsDenied int64

	// Persistence
	PersistWrites   int64
	PersistLatSum   int64
	PersistLatMax   int64
	PersistErrors   int64
	SnapshotsSaved  int64
	SnapshotsFailed int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Narrator metrics
	NarratorRequests int64
	NarratorTokens   int64
	NarratorCostUSD  float64
	NarratorLatSum   int64
	NarratorErrors   int64

	StartTime time.Time
	mu        sync.RWMutex
}

var collector = New()

// New returns an empty collector. Tests use it to avoid the global.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordTick records one simulation step.
func (c *Collector) RecordTick(latency time.Duration, err error) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))
	if err != nil {
		atomic.AddInt64(&c.TickErrors, 1)
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordOutcome records what a tick produced.
func (c *Collector) RecordOutcome(notifications, faults int, died bool) {
	atomic.AddInt64(&c.Notifications, int64(notifications))
	atomic.AddInt64(&c.HookFaults, int64(faults))
	if died {
		atomic.AddInt64(&c.Deaths, 1)
	}
}

// RecordAction records a player action accepted or rejected by the engine.
func (c *Collector) RecordAction(err error) {
	if err != nil {
		atomic.AddInt64(&c.ActionsDenied, 1)
		return
	}
	atomic.AddInt64(&c.ActionsOK, 1)
}

// RecordPersist records a notification write to storage.
func (c *Collector) RecordPersist(latency time.Duration, err error) {
	atomic.AddInt64(&c.PersistWrites, 1)
	atomic.AddInt64(&c.PersistLatSum, int64(latency))
	storeMax(&c.PersistLatMax, int64(latency))
	if err != nil {
		atomic.AddInt64(&c.PersistErrors, 1)
	}
}

// RecordSnapshot records a save slot write.
func (c *Collector) RecordSnapshot(err error) {
	if err != nil {
		atomic.AddInt64(&c.SnapshotsFailed, 1)
		return
	}
	atomic.AddInt64(&c.SnapshotsSaved, 1)
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

// RecordNarratorCall records one narrator request.
func (c *Collector) RecordNarratorCall(tokens int, cost float64, latency time.Duration, err error) {
	atomic.AddInt64(&c.NarratorRequests, 1)
	atomic.AddInt64(&c.NarratorTokens, int64(tokens))
	atomic.AddInt64(&c.NarratorLatSum, int64(latency))
	if err != nil {
		atomic.AddInt64(&c.NarratorErrors, 1)
	}

	c.mu.Lock()
	c.NarratorCostUSD += cost
	c.mu.Unlock()
}

// NarratorCost returns the accumulated narrator spend.
func (c *Collector) NarratorCost() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.NarratorCostUSD
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	writes := atomic.LoadInt64(&c.PersistWrites)
	narr := atomic.LoadInt64(&c.NarratorRequests)

	var tickAvg, persistAvg, narrAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if writes > 0 {
		persistAvg = float64(atomic.LoadInt64(&c.PersistLatSum)) / float64(writes) / 1e6
	}
	if narr > 0 {
		narrAvg = float64(atomic.LoadInt64(&c.NarratorLatSum)) / float64(narr) / 1e9 // seconds
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"errors":         atomic.LoadInt64(&c.TickErrors),
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"simulation": map[string]interface{}{
			"deaths":         atomic.LoadInt64(&c.Deaths),
			"hook_faults":    atomic.LoadInt64(&c.HookFaults),
			"notifications":  atomic.LoadInt64(&c.Notifications),
			"actions_ok":     atomic.LoadInt64(&c.ActionsOK),
			"actions_denied": atomic.LoadInt64(&c.ActionsDenied),
		},

		"storage": map[string]interface{}{
			"writes":           writes,
			"avg_write_lat_ms": persistAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.PersistLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.PersistErrors),
			"snapshots_saved":  atomic.LoadInt64(&c.SnapshotsSaved),
			"snapshots_failed": atomic.LoadInt64(&c.SnapshotsFailed),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"narrator": map[string]interface{}{
			"requests":        narr,
			"errors":          atomic.LoadInt64(&c.NarratorErrors),
			"tokens_used":     atomic.LoadInt64(&c.NarratorTokens),
			"cost_usd":        c.NarratorCostUSD,
			"avg_latency_sec": narrAvg,
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return collector.Handler()
}

// PrometheusHandler returns the global metrics in Prometheus text format.
func PrometheusHandler() http.HandlerFunc {
	return collector.PrometheusHandler()
}

// Handler serves c as JSON.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler serves c in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE %s counter\n", name)
			fmt.Fprintf(w, "%s %d\n\n", name, v)
		}

		counter("drill_tick_count", "Total simulation ticks", atomic.LoadInt64(&c.TickCount))
		counter("drill_tick_errors", "Ticks rejected by the engine", atomic.LoadInt64(&c.TickErrors))

		fmt.Fprintf(w, "# HELP drill_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE drill_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "drill_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		counter("drill_deaths", "Death transitions", atomic.LoadInt64(&c.Deaths))
		counter("drill_hook_faults", "Contained periodic hook failures", atomic.LoadInt64(&c.HookFaults))
		counter("drill_notifications", "Notifications emitted", atomic.LoadInt64(&c.Notifications))

		fmt.Fprintf(w, "# HELP drill_actions_total Player actions\n")
		fmt.Fprintf(w, "# TYPE drill_actions_total counter\n")
		fmt.Fprintf(w, "drill_actions_total{result=\"ok\"} %d\n", atomic.LoadInt64(&c.ActionsOK))
		fmt.Fprintf(w, "drill_actions_total{result=\"denied\"} %d\n\n", atomic.LoadInt64(&c.ActionsDenied))

		counter("drill_persist_writes", "Notification writes", atomic.LoadInt64(&c.PersistWrites))
		counter("drill_persist_errors", "Notification write errors", atomic.LoadInt64(&c.PersistErrors))
		counter("drill_snapshots_saved", "Save slot writes", atomic.LoadInt64(&c.SnapshotsSaved))

		fmt.Fprintf(w, "# HELP drill_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE drill_ws_connections gauge\n")
		fmt.Fprintf(w, "drill_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP drill_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE drill_ws_messages_total counter\n")
		fmt.Fprintf(w, "drill_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "drill_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		counter("drill_narrator_requests", "Narrator requests", atomic.LoadInt64(&c.NarratorRequests))
		counter("drill_narrator_tokens_used", "Narrator tokens consumed", atomic.LoadInt64(&c.NarratorTokens))

		c.mu.RLock()
		fmt.Fprintf(w, "# HELP drill_narrator_cost_usd Total narrator cost in USD\n")
		fmt.Fprintf(w, "# TYPE drill_narrator_cost_usd counter\n")
		fmt.Fprintf(w, "drill_narrator_cost_usd %.4f\n", c.NarratorCostUSD)
		c.mu.RUnlock()
	}
}
