// Command drill-server runs the authoritative drilling simulation and streams
// it to presentation clients. Only wiring lives here.
package main

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/base"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/engine"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/infra/ai"
	"github.com/MRamiBalles/DrillCore/internal/infra/storage"
	"github.com/MRamiBalles/DrillCore/internal/narrative"
	"github.com/MRamiBalles/DrillCore/internal/network"
	"github.com/MRamiBalles/DrillCore/internal/platform/config"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/platform/metrics"
	"github.com/MRamiBalles/DrillCore/internal/platform/otel"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// restoredHistory bounds how much of the stored log is loaded into memory.
const restoredHistory = 1000

// timedPersister records write latency for every stored notification.
type timedPersister struct {
	inner   events.Persister
	metrics *metrics.Collector
}

func (p timedPersister) Append(n events.Notification) error {
	start := time.Now()
	err := p.inner.Append(n)
	p.metrics.RecordPersist(time.Since(start), err)
	return err
}

func main() {
	log.Println("[DRILL-SERVER] starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[DRILL-SERVER] config: %v", err)
	}
	appLogger := logger.NewLogger()
	m := metrics.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := otel.Setup(ctx, "drill-server", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		appLogger.Warn("tracing disabled: %v", err)
	}
	defer shutdownTracing(context.Background())

	appLogger.Info("opening sqlite database %s", cfg.DBPath)
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("failed to initialize sqlite: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	saves := storage.NewSQLiteSaveRepository(db)
	notes := storage.NewSQLiteNotificationRepository(db)

	state, err := saves.Load(ctx, cfg.GameID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		appLogger.Info("no save for %s, starting a fresh rig", cfg.GameID)
		state = drill.NewGameState(cfg.MaxIntegrity)
	case err != nil:
		appLogger.Error("failed to load save: %v", err)
		os.Exit(1)
	default:
		appLogger.Info("resumed %s at tick %d, depth %.0fm", cfg.GameID, state.TickCount, state.Depth)
	}

	eventLog := events.NewEventLog(timedPersister{inner: notes.Persister(cfg.GameID, 2*time.Second), metrics: m})
	eventLog.OnPersistError(func(err error) { appLogger.Warn("notification not persisted: %v", err) })
	if history, err := notes.GetByGameID(ctx, cfg.GameID); err != nil {
		appLogger.Warn("could not restore notification history: %v", err)
	} else {
		if len(history) > restoredHistory {
			history = history[len(history)-restoredHistory:]
		}
		eventLog.Restore(history)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	appLogger.Info("simulation seed %d", seed)

	tracker := quest.NewTracker(quest.DefaultQuests()...)
	registry := content.NewStatic()
	eng := engine.NewGameEngine(engine.Deps{
		Content: registry,
		Bases:   base.Lifecycle{},
		Quests:  tracker,
		Logger:  appLogger,
		Rng:     rand.New(rand.NewPCG(seed, seed^0x5eed)),
	}, engine.Options{
		RaidCheckEvery: cfg.RaidCheckEvery,
		NarrativeEvery: cfg.NarrativeEvery,
	})

	var narrator narrative.Narrator = narrative.NewStatic(seed)
	if cfg.NarratorEnabled() {
		gate := ai.NewBudgetGate(cfg.NarratorBudget, cfg.NarratorBudget*30)
		provider, err := ai.NewProvider(cfg.NarratorProvider, ai.ProviderConfig{APIKey: cfg.NarratorKey(), Model: cfg.NarratorModel}, gate)
		if err != nil {
			appLogger.Warn("LLM narrator disabled: %v", err)
		} else {
			appLogger.Info("LLM narrator enabled (%s, budget %s)", provider.Name(), gate.GetStatus())
			narrator = ai.NewNarrator(provider, narrator, m, appLogger)
		}
	}

	ticker := engine.NewTicker(engine.TickerConfig{
		GameID:        cfg.GameID,
		TickRate:      cfg.TickRate,
		SnapshotEvery: cfg.SnapshotEvery,
		ActionBuffer:  cfg.ActionBuffer,
	}, engine.TickerDeps{
		Engine:   eng,
		Log:      eventLog,
		Logger:   appLogger,
		Metrics:  m,
		Tracer:   otel.Tracer(),
		Saves:    saves,
		Narrator: narrator,
		Quests:   tracker,
	}, state)

	hub := network.NewHub(network.HubConfig{MaxClients: cfg.MaxClients, SendBuffer: cfg.ClientSendBuffer}, ticker, appLogger, m)
	ticker.OnNotify(hub.BroadcastNotifications)
	go hub.Run(ctx)
	hub.StartStatePusher(ctx, ticker.State, time.Second)

	go ticker.Start(ctx)

	api := network.NewAPI(network.APIDeps{
		GameID: cfg.GameID,
		Log:    eventLog,
		State:  ticker.State,
		Recap:  storage.NewReconstructor(notes),
		Quests: tracker,
		Sink:   ticker,
		Logger: appLogger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS(eventLog))
	api.RegisterRoutes(mux)
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		appLogger.Info("HTTP API and websocket listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server failed: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	appLogger.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("http shutdown: %v", err)
	}
	ticker.Stop()
	cancel()
}
