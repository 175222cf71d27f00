package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/narrative"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/platform/metrics"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// TickRate is the default loop period (10 Hz).
const TickRate = 100 * time.Millisecond

// ErrStopped is returned by Submit once the loop has exited.
var ErrStopped = errors.New("engine: ticker stopped")

// Snapshotter persists the live state.
type Snapshotter interface {
	Save(ctx context.Context, gameID string, s *drill.GameState) error
}

// QuestRecorder consumes per-tick quest updates.
type QuestRecorder interface {
	Record(updates []quest.Update) []quest.Quest
}

// TickerConfig configures the runtime loop.
type TickerConfig struct {
	GameID        string
	TickRate      time.Duration // fixed step; dt is always TickRate in seconds
	SnapshotEvery time.Duration // 0 disables periodic snapshots
	ActionBuffer  int
}

// TickerDeps are the runtime collaborators. Only Engine and Log are required.
type TickerDeps struct {
	Engine   *GameEngine
	Log      *events.EventLog
	Logger   *logger.Logger
	Metrics  *metrics.Collector
	Tracer   trace.Tracer
	Saves    Snapshotter
	Narrator narrative.Narrator
	Quests   QuestRecorder
}

type actionRequest struct {
	action Action
	reply  chan error
}

// Ticker owns the single mutable GameState. Every mutation happens on the
// goroutine running Start; readers get clones through State.
type Ticker struct {
	cfg  TickerConfig
	deps TickerDeps

	actions    chan actionRequest
	narrations chan string
	stopChan   chan struct{}
	stopOnce   sync.Once
	done       chan struct{}

	mu       sync.RWMutex
	state    *drill.GameState
	lastSave time.Time

	listenMu  sync.RWMutex
	listeners []func([]events.Notification)
}

// NewTicker creates a runtime around an initial state.
func NewTicker(cfg TickerConfig, deps TickerDeps, initial *drill.GameState) *Ticker {
	if cfg.TickRate <= 0 {
		cfg.TickRate = TickRate
	}
	if cfg.ActionBuffer <= 0 {
		cfg.ActionBuffer = 64
	}
	if deps.Logger == nil {
		deps.Logger = deps.Engine.logger
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Get()
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Ticker{
		cfg:        cfg,
		deps:       deps,
		actions:    make(chan actionRequest, cfg.ActionBuffer),
		narrations: make(chan string, 8),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		state:      initial.Clone(),
		lastSave:   time.Now(),
	}
}

// OnNotify registers a callback for every stamped batch. Callbacks run on the
// loop goroutine and must not block.
func (t *Ticker) OnNotify(fn func([]events.Notification)) {
	t.listenMu.Lock()
	defer t.listenMu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// State returns a copy of the live state.
func (t *Ticker) State() *drill.GameState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

// Start runs the loop until ctx is cancelled or Stop is called. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	defer close(t.done)
	t.deps.Logger.Info("drill loop started for %s at %s", t.cfg.GameID, t.cfg.TickRate)

	ticker := time.NewTicker(t.cfg.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.deps.Logger.Info("drill loop stopped by context")
			t.flush()
			return
		case <-t.stopChan:
			t.deps.Logger.Info("drill loop stopped manually")
			t.flush()
			return
		case req := <-t.actions:
			req.reply <- t.apply(ctx, req.action)
		case line := <-t.narrations:
			t.publish(t.currentTick(), events.Log(line, events.ColorInfo))
		case <-ticker.C:
			t.Step(ctx)
		}
	}
}

// Stop ends the loop and waits for the final snapshot.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
	<-t.done
}

// Submit queues a player action and waits for the engine's verdict.
func (t *Ticker) Submit(ctx context.Context, a Action) error {
	req := actionRequest{action: a, reply: make(chan error, 1)}
	select {
	case t.actions <- req:
	case <-t.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-t.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Step advances the simulation by one fixed step. It must only be called from
// the loop goroutine, or from tests that do not run Start.
func (t *Ticker) Step(ctx context.Context) Result {
	dt := t.cfg.TickRate.Seconds()
	ctx, span := t.deps.Tracer.Start(ctx, "drill.tick")
	defer span.End()

	start := time.Now()
	t.mu.RLock()
	current := t.state
	t.mu.RUnlock()

	res, err := t.deps.Engine.Tick(current, dt)
	t.deps.Metrics.RecordTick(time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.deps.Logger.Error("tick failed: %v", err)
		return res
	}

	t.mu.Lock()
	t.state = res.Next
	t.mu.Unlock()

	span.SetAttributes(
		attribute.Int64("drill.tick", res.Next.TickCount),
		attribute.Float64("drill.depth", res.Next.Depth),
		attribute.Float64("drill.heat", res.Next.Heat),
		attribute.Int("drill.events", len(res.Events)),
		attribute.Bool("drill.died", res.Died),
	)
	for _, f := range res.Faults {
		span.AddEvent("hook_fault", trace.WithAttributes(attribute.String("hook", f.Hook)))
	}
	t.deps.Metrics.RecordOutcome(len(res.Events), len(res.Faults), res.Died)

	batch := res.Events
	if t.deps.Quests != nil && len(res.QuestUpdates) > 0 {
		for _, q := range t.deps.Quests.Record(res.QuestUpdates) {
			batch = append(batch, events.Log("Quest complete: "+q.Title, events.ColorSuccess), events.Sound("quest_complete"))
		}
	}
	t.publish(res.Next.TickCount, batch...)

	if res.Cues.Narrative != nil && t.deps.Narrator != nil {
		go t.narrate(ctx, *res.Cues.Narrative)
	}

	if t.cfg.SnapshotEvery > 0 && time.Since(t.lastSave) >= t.cfg.SnapshotEvery {
		t.snapshot(ctx, res.Next)
	}
	return res
}

func (t *Ticker) apply(ctx context.Context, a Action) error {
	_, span := t.deps.Tracer.Start(ctx, "drill.action", trace.WithAttributes(attribute.String("drill.action", string(a.Kind))))
	defer span.End()

	t.mu.Lock()
	out, err := t.deps.Engine.Apply(t.state, a)
	if err == nil {
		out.Patch.ApplyTo(t.state)
	}
	tick := t.state.TickCount
	t.mu.Unlock()

	t.deps.Metrics.RecordAction(err)
	if err != nil {
		span.RecordError(err)
		return err
	}
	t.publish(tick, out.Events...)
	return nil
}

func (t *Ticker) publish(tick int64, batch ...events.Notification) {
	stamped := t.deps.Log.Append(tick, batch...)
	if len(stamped) == 0 {
		return
	}
	t.listenMu.RLock()
	defer t.listenMu.RUnlock()
	for _, fn := range t.listeners {
		fn(stamped)
	}
}

// narrate runs off-loop; the line re-enters through the narrations channel.
func (t *Ticker) narrate(ctx context.Context, c narrative.Context) {
	line, err := t.deps.Narrator.Line(ctx, c)
	if err != nil || line == "" {
		return
	}
	select {
	case t.narrations <- line:
	default:
		t.deps.Logger.Warn("narration dropped, queue full")
	}
}

func (t *Ticker) snapshot(ctx context.Context, s *drill.GameState) {
	t.lastSave = time.Now()
	if t.deps.Saves == nil {
		return
	}
	err := t.deps.Saves.Save(ctx, t.cfg.GameID, s)
	t.deps.Metrics.RecordSnapshot(err)
	if err != nil {
		t.deps.Logger.Error("snapshot failed: %v", err)
	}
}

// flush writes a final snapshot on shutdown.
func (t *Ticker) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	t.snapshot(ctx, t.State())
}

func (t *Ticker) currentTick() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.TickCount
}
