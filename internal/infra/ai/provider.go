// Package ai provides the LLM backends used for optional flavour narration.
// The simulation never waits on it; the runtime calls it off the tick loop.
package ai

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Message is one chat turn sent to the LLM.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// CompletionRequest is the input for LLM inference.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Model       string    `json:"model,omitempty"` // overrides the provider default
}

// CompletionResponse is the output from LLM inference. Tokens and cost feed
// the narrator metrics.
type CompletionResponse struct {
	Content     string  `json:"content"`
	TotalTokens int     `json:"total_tokens"`
	CostUSD     float64 `json:"cost_usd"`
}

// LLMProvider is the backend-agnostic completion interface.
type LLMProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
	IsAvailable() bool
}

// ProviderConfig configures an HTTP provider. Empty fields take the provider
// defaults.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// BudgetGate caps LLM spending per day and per month.
type BudgetGate struct {
	mu                sync.Mutex
	DailyLimitUSD     float64
	MonthlyLimitUSD   float64
	CurrentDaySpend   float64
	CurrentMonthSpend float64
	LastDayReset      time.Time
	LastMonthReset    time.Time
	now               func() time.Time
}

// NewBudgetGate creates a new budget controller.
func NewBudgetGate(dailyLimit, monthlyLimit float64) *BudgetGate {
	now := time.Now()
	return &BudgetGate{
		DailyLimitUSD:   dailyLimit,
		MonthlyLimitUSD: monthlyLimit,
		LastDayReset:    now,
		LastMonthReset:  now,
		now:             time.Now,
	}
}

// CanSpend checks if a cost is within budget.
func (bg *BudgetGate) CanSpend(costUSD float64) bool {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	bg.maybeReset()
	return bg.CurrentDaySpend+costUSD <= bg.DailyLimitUSD &&
		bg.CurrentMonthSpend+costUSD <= bg.MonthlyLimitUSD
}

// RecordSpend logs a cost.
func (bg *BudgetGate) RecordSpend(costUSD float64) {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	bg.maybeReset()
	bg.CurrentDaySpend += costUSD
	bg.CurrentMonthSpend += costUSD
}

// MonthRemaining returns what is left of the monthly allowance.
func (bg *BudgetGate) MonthRemaining() float64 {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	return bg.MonthlyLimitUSD - bg.CurrentMonthSpend
}

func (bg *BudgetGate) maybeReset() {
	now := bg.now()

	if now.YearDay() != bg.LastDayReset.YearDay() || now.Year() != bg.LastDayReset.Year() {
		bg.CurrentDaySpend = 0
		bg.LastDayReset = now
	}

	if now.Month() != bg.LastMonthReset.Month() || now.Year() != bg.LastMonthReset.Year() {
		bg.CurrentMonthSpend = 0
		bg.LastMonthReset = now
	}
}

// GetStatus returns a human-readable budget status.
func (bg *BudgetGate) GetStatus() string {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	return "Day: $" + money(bg.CurrentDaySpend) + "/" + money(bg.DailyLimitUSD) +
		" | Month: $" + money(bg.CurrentMonthSpend) + "/" + money(bg.MonthlyLimitUSD)
}

func money(f float64) string {
	return humanize.FormatFloat("#,###.####", f)
}
