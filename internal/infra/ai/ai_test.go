package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MRamiBalles/DrillCore/internal/narrative"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/platform/metrics"
)

func openAIServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.WriteHeader(status)
		io.WriteString(w, `{"model":"gpt-4o-mini","choices":[{"message":{"content":`+
			strconvQuote(content)+`},"finish_reason":"stop"}],"usage":{"prompt_tokens":80,"completion_tokens":20,"total_tokens":100}}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func strconvQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func testContext() narrative.Context {
	return narrative.Context{Reason: narrative.ReasonPeriodic, Depth: 1500, Heat: 40, Integrity: 80, MaxIntegrity: 100, Biome: "Crystal Caves"}
}

func TestNarratorUsesProvider(t *testing.T) {
	srv := openAIServer(t, http.StatusOK, "  \"The crystals hum back at the bit.\"\nextra")
	gate := NewBudgetGate(1, 10)
	p := NewOpenAIProvider(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL}, gate)
	m := metrics.New()
	n := NewNarrator(p, narrative.NewStatic(1), m, logger.NewWithWriter(io.Discard))

	line, err := n.Line(context.Background(), testContext())
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if line != "[Crystal Caves, 1500m] The crystals hum back at the bit." {
		t.Errorf("line = %q", line)
	}
	if m.NarratorRequests != 1 || m.NarratorTokens != 100 {
		t.Errorf("metrics = %d requests, %d tokens", m.NarratorRequests, m.NarratorTokens)
	}
	if gate.MonthRemaining() >= 10 {
		t.Error("the call should be charged to the budget")
	}
}

func TestNarratorFallsBack(t *testing.T) {
	srv := openAIServer(t, http.StatusInternalServerError, "")
	p := NewOpenAIProvider(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL}, NewBudgetGate(1, 10))
	m := metrics.New()
	n := NewNarrator(p, narrative.NewStatic(1), m, logger.NewWithWriter(io.Discard))

	line, err := n.Line(context.Background(), testContext())
	if err != nil {
		t.Fatalf("fallback should not fail: %v", err)
	}
	if !strings.HasPrefix(line, "[Crystal Caves, 1500m] ") {
		t.Errorf("fallback line = %q", line)
	}
	if m.NarratorErrors != 1 {
		t.Errorf("errors = %d, want 1", m.NarratorErrors)
	}
}

func TestNarratorWithoutKeySkipsProvider(t *testing.T) {
	p := NewOpenAIProvider(ProviderConfig{}, NewBudgetGate(1, 10))
	m := metrics.New()
	n := NewNarrator(p, narrative.NewStatic(1), m, logger.NewWithWriter(io.Discard))
	if _, err := n.Line(context.Background(), testContext()); err != nil {
		t.Fatal(err)
	}
	if m.NarratorRequests != 0 {
		t.Error("provider without key must not be called")
	}
}

func TestBudgetGate(t *testing.T) {
	gate := NewBudgetGate(0.01, 1)
	if !gate.CanSpend(0.005) {
		t.Fatal("fresh gate should allow spend")
	}
	gate.RecordSpend(0.009)
	if gate.CanSpend(0.005) {
		t.Error("daily limit should block")
	}

	day := gate.LastDayReset
	gate.now = func() time.Time { return day.AddDate(0, 0, 1) }
	if !gate.CanSpend(0.005) {
		t.Error("next day should reset the daily spend")
	}
	if !strings.Contains(gate.GetStatus(), "Day: $") {
		t.Errorf("status = %q", gate.GetStatus())
	}
}

func TestBudgetBlocksRequest(t *testing.T) {
	p := NewOpenAIProvider(ProviderConfig{APIKey: "k", BaseURL: "http://127.0.0.1:0"}, NewBudgetGate(0, 0))
	_, err := p.Complete(context.Background(), CompletionRequest{MaxTokens: 10})
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}
}

func TestAnthropicMovesSystemPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.System != NarratorSystemPrompt || len(req.Messages) != 1 {
			t.Errorf("request = %+v", req)
		}
		io.WriteString(w, `{"model":"claude","content":[{"type":"text","text":"Quiet down here."}],"stop_reason":"end_turn","usage":{"input_tokens":50,"output_tokens":5}}`)
	}))
	defer srv.Close()

	p, err := NewProvider("anthropic", ProviderConfig{APIKey: "k", BaseURL: srv.URL}, NewBudgetGate(1, 10))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:  []Message{{Role: "system", Content: NarratorSystemPrompt}, {Role: "user", Content: "go"}},
		MaxTokens: 60,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "Quiet down here." || resp.TotalTokens != 55 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestValidateLine(t *testing.T) {
	if _, err := ValidateLine("   "); err == nil {
		t.Error("blank reply should be rejected")
	}
	long := strings.Repeat("a", 400)
	got, err := ValidateLine(long)
	if err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(got)); n != maxLineRunes {
		t.Errorf("truncated to %d runes", n)
	}
}

func TestBuildContextPromptAFK(t *testing.T) {
	c := testContext()
	c.Reason = narrative.ReasonAFK
	c.AFKSeconds = 90
	c.BossName = "Magma Wyrm"
	p := BuildContextPrompt(c)
	for _, want := range []string{"Crystal Caves", "1500 m", "Magma Wyrm", "away for 90 seconds"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}
