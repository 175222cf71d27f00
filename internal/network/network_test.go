package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/engine"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/platform/metrics"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

type fakeSink struct {
	mu  sync.Mutex
	got []engine.Action
	err error
}

func (f *fakeSink) Submit(_ context.Context, a engine.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, a)
	return f.err
}

func startHub(t *testing.T, sink ActionSink, log *events.EventLog) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(HubConfig{MaxClients: 2, SendBuffer: 16}, sink, logger.NewWithWriter(io.Discard), metrics.New())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.ServeWS(log))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// Batched frames are newline-delimited; the first one is enough here.
	line := strings.SplitN(string(data), "\n", 2)[0]
	var env Envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return env
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	hub, srv := startHub(t, nil, nil)
	conn := dial(t, srv, "")
	waitClients(t, hub, 1)

	hub.BroadcastNotifications([]events.Notification{events.Log("Boss spawned", events.ColorDanger)})

	env := readEnvelope(t, conn)
	if env.Kind != KindNotifications || len(env.Notifications) != 1 || env.Notifications[0].Message != "Boss spawned" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestBacklogReplayOnConnect(t *testing.T) {
	log := events.NewEventLog(nil)
	log.Append(1, events.Log("one", events.ColorInfo), events.Log("two", events.ColorInfo))

	hub, srv := startHub(t, nil, log)
	conn := dial(t, srv, "?since=1")
	waitClients(t, hub, 1)

	env := readEnvelope(t, conn)
	if len(env.Notifications) != 1 || env.Notifications[0].Message != "two" {
		t.Errorf("backlog = %+v", env.Notifications)
	}
}

func TestActionsAreForwardedAndAcked(t *testing.T) {
	sink := &fakeSink{}
	hub, srv := startHub(t, sink, nil)
	conn := dial(t, srv, "")
	waitClients(t, hub, 1)

	msg := ClientMessage{RequestID: "r1", Action: engine.Action{Kind: engine.ActionToggleDrilling}}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatal(err)
	}
	env := readEnvelope(t, conn)
	if env.Kind != KindAck || env.RequestID != "r1" {
		t.Errorf("reply = %+v", env)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.got) != 1 || sink.got[0].Kind != engine.ActionToggleDrilling {
		t.Errorf("sink got %+v", sink.got)
	}
}

func TestRejectedActionReturnsError(t *testing.T) {
	sink := &fakeSink{err: errors.New("drill is locked while overheated or cooling")}
	hub, srv := startHub(t, sink, nil)
	conn := dial(t, srv, "")
	waitClients(t, hub, 1)

	conn.WriteJSON(ClientMessage{RequestID: "r2", Action: engine.Action{Kind: engine.ActionToggleDrilling}})
	env := readEnvelope(t, conn)
	if env.Kind != KindError || !strings.Contains(env.Error, "locked") {
		t.Errorf("reply = %+v", env)
	}
}

func TestClientLimit(t *testing.T) {
	hub, srv := startHub(t, nil, nil)
	dial(t, srv, "")
	dial(t, srv, "")
	waitClients(t, hub, 2)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("third client should be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("response = %+v", resp)
	}
}

func newTestAPI(sink ActionSink) (*API, *events.EventLog) {
	log := events.NewEventLog(nil)
	s := drill.NewGameState(100)
	s.Depth = 12345
	return NewAPI(APIDeps{
		GameID: "g1",
		Log:    log,
		State:  func() *drill.GameState { return s.Clone() },
		Quests: quest.NewTracker(quest.DefaultQuests()...),
		Sink:   sink,
		Logger: logger.NewWithWriter(io.Discard),
	}), log
}

func TestReplayFilters(t *testing.T) {
	api, log := newTestAPI(nil)
	log.Append(1, events.Log("a", events.ColorInfo), events.Sound("alarm"), events.Log("b", events.ColorInfo))

	rec := httptest.NewRecorder()
	api.HandleReplay(rec, httptest.NewRequest(http.MethodGet, "/api/replay?since=1&type=LOG", nil))

	var body ReplayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 1 || body.Notifications[0].Message != "b" {
		t.Errorf("replay = %+v", body)
	}

	rec = httptest.NewRecorder()
	api.HandleReplay(rec, httptest.NewRequest(http.MethodGet, "/api/replay?since=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad since: code = %d", rec.Code)
	}
}

func TestStatsAndState(t *testing.T) {
	api, _ := newTestAPI(nil)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if !strings.Contains(rec.Body.String(), `"depth":"12,345m"`) {
		t.Errorf("stats = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	var s drill.GameState
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil || s.Depth != 12345 {
		t.Errorf("state = %+v, %v", s, err)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recap", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("recap without backend: code = %d", rec.Code)
	}
}

func TestHandleAction(t *testing.T) {
	sink := &fakeSink{}
	api, _ := newTestAPI(sink)

	body := strings.NewReader(`{"kind":"toggle_shield"}`)
	rec := httptest.NewRecorder()
	api.HandleAction(rec, httptest.NewRequest(http.MethodPost, "/api/action", body))
	if rec.Code != http.StatusOK || len(sink.got) != 1 || sink.got[0].Kind != engine.ActionToggleShield {
		t.Errorf("code = %d, got = %+v", rec.Code, sink.got)
	}

	rec = httptest.NewRecorder()
	api.HandleAction(rec, httptest.NewRequest(http.MethodGet, "/api/action", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET code = %d", rec.Code)
	}

	readOnly, _ := newTestAPI(nil)
	rec = httptest.NewRecorder()
	readOnly.HandleAction(rec, httptest.NewRequest(http.MethodPost, "/api/action", strings.NewReader(`{}`)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("read-only code = %d", rec.Code)
	}
}
