package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/engine"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/infra/storage"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// Recapper builds the offline recap.
type Recapper interface {
	GenerateRecap(ctx context.Context, gameID string, sinceSeq int64, limit int) (*storage.Recap, error)
}

// QuestBook exposes quest progress.
type QuestBook interface {
	Snapshot() []quest.Quest
}

// API serves the HTTP side of the runtime: log replay, recap, state and actions.
type API struct {
	gameID   string
	eventLog *events.EventLog
	state    func() *drill.GameState
	recap    Recapper
	quests   QuestBook
	sink     ActionSink
	logger   *logger.Logger
}

// APIDeps are the API collaborators. Recap, Quests and Sink may be nil.
type APIDeps struct {
	GameID string
	Log    *events.EventLog
	State  func() *drill.GameState
	Recap  Recapper
	Quests QuestBook
	Sink   ActionSink
	Logger *logger.Logger
}

// NewAPI creates the HTTP handlers.
func NewAPI(d APIDeps) *API {
	return &API{
		gameID:   d.GameID,
		eventLog: d.Log,
		state:    d.State,
		recap:    d.Recap,
		quests:   d.Quests,
		sink:     d.Sink,
		logger:   d.Logger,
	}
}

// ReplayResponse is the /api/replay body.
type ReplayResponse struct {
	GameID        string                `json:"game_id"`
	Total         int                   `json:"total"`
	FilteredBy    string                `json:"filtered_by,omitempty"`
	GeneratedAt   string                `json:"generated_at"`
	Notifications []events.Notification `json:"notifications"`
}

// HandleReplay returns the notification history.
// GET /api/replay?since=N&type=LOG
func (a *API) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	since, err := queryInt(r, "since")
	if err != nil {
		jsonError(w, "invalid since", http.StatusBadRequest)
		return
	}
	typ := events.Type(r.URL.Query().Get("type"))

	var out []events.Notification
	for _, n := range a.eventLog.Since(since) {
		if typ != "" && n.Type != typ {
			continue
		}
		out = append(out, n)
	}

	writeJSON(w, ReplayResponse{
		GameID:        a.gameID,
		Total:         len(out),
		FilteredBy:    string(typ),
		GeneratedAt:   time.Now().Format(time.RFC3339),
		Notifications: out,
	})
}

// HandleRecap returns the offline recap.
// GET /api/recap?since=N&limit=M
func (a *API) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if a.recap == nil {
		jsonError(w, "recap unavailable", http.StatusNotFound)
		return
	}
	since, err := queryInt(r, "since")
	if err != nil {
		jsonError(w, "invalid since", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		jsonError(w, "invalid limit", http.StatusBadRequest)
		return
	}

	recap, err := a.recap.GenerateRecap(r.Context(), a.gameID, since, int(limit))
	if err != nil {
		a.logger.Error("recap failed: %v", err)
		jsonError(w, "recap failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, recap)
}

// HandleState returns the live state.
// GET /api/state
func (a *API) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.state())
}

// HandleStats returns headline numbers for dashboards.
// GET /api/stats
func (a *API) HandleStats(w http.ResponseWriter, r *http.Request) {
	s := a.state()
	counts := map[events.Type]int{}
	for _, n := range a.eventLog.Replay() {
		counts[n.Type]++
	}
	writeJSON(w, map[string]interface{}{
		"generated_at":  time.Now().Format(time.RFC3339),
		"tick":          s.TickCount,
		"depth":         humanize.Comma(int64(s.Depth)) + "m",
		"resources":     humanize.Comma(int64(s.Resources.Total())),
		"notifications": counts,
	})
}

// HandleQuests returns the quest book.
// GET /api/quests
func (a *API) HandleQuests(w http.ResponseWriter, r *http.Request) {
	if a.quests == nil {
		writeJSON(w, []quest.Quest{})
		return
	}
	writeJSON(w, a.quests.Snapshot())
}

// HandleAction submits a player action over REST.
// POST /api/action
func (a *API) HandleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if a.sink == nil {
		jsonError(w, "read-only server", http.StatusForbidden)
		return
	}

	var act engine.Action
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&act); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()
	if err := a.sink.Submit(ctx, act); err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// RegisterRoutes mounts the API on mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", a.HandleReplay)
	mux.HandleFunc("/api/recap", a.HandleRecap)
	mux.HandleFunc("/api/state", a.HandleState)
	mux.HandleFunc("/api/stats", a.HandleStats)
	mux.HandleFunc("/api/quests", a.HandleQuests)
	mux.HandleFunc("/api/action", a.HandleAction)
}

func queryInt(r *http.Request, key string) (int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
