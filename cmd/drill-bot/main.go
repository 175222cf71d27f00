// Command drill-bot is a websocket load generator. Each bot connects to the
// drill server and sends random player actions, counting acks and rejections.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/DrillCore/internal/engine"
	"github.com/MRamiBalles/DrillCore/internal/network"
)

// Config for the bot run.
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Output         string
}

// Stats tracks what the bots saw.
type Stats struct {
	ActionsSent   int64
	Acks          int64
	Rejections    int64
	Notifications int64
	States        int64
	Errors        int64
	Latencies     []time.Duration
	mu            sync.Mutex
}

// Actions a bot may try. Most will be rejected in some states; that is the point.
var actionKinds = []engine.ActionKind{
	engine.ActionToggleDrilling,
	engine.ActionToggleDrilling,
	engine.ActionToggleShield,
	engine.ActionResolveEvent,
	engine.ActionCompleteMinigame,
	engine.ActionCompleteCooling,
	engine.ActionStrikeBoss,
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 4, "Number of concurrent bots")
	interval := flag.Duration("interval", 250*time.Millisecond, "Action interval per bot")
	duration := flag.Duration("duration", 30*time.Second, "Run duration")
	output := flag.String("out", "", "Write JSON results to this file")
	flag.Parse()

	cfg := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("DRILL BOT")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", cfg.ServerURL)
	fmt.Printf("Bots:     %d\n", cfg.NumClients)
	fmt.Printf("Interval: %v\n", cfg.ActionInterval)
	fmt.Printf("Duration: %v\n", cfg.TestDuration)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\ninterrupt received, stopping...")
		cancel()
	}()

	stats := run(ctx, cfg)
	printResults(stats, cfg)
}

func run(ctx context.Context, cfg Config) *Stats {
	stats := &Stats{Latencies: make([]time.Duration, 0, 1024)}
	var wg sync.WaitGroup

	for i := 0; i < cfg.NumClients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runBot(ctx, id, cfg, stats)
		}(i)
		// Stagger starts to avoid a thundering herd.
		time.Sleep(10 * time.Millisecond)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("progress: sent=%d acks=%d rejected=%d notes=%d errors=%d\n",
					atomic.LoadInt64(&stats.ActionsSent), atomic.LoadInt64(&stats.Acks),
					atomic.LoadInt64(&stats.Rejections), atomic.LoadInt64(&stats.Notifications),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runBot(ctx context.Context, id int, cfg Config, stats *Stats) {
	rng := rand.New(rand.NewPCG(uint64(id), uint64(time.Now().UnixNano())))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.ServerURL, nil)
	if err != nil {
		log.Printf("bot %d: connection failed: %v", id, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	var pending sync.Map // request id -> send time

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			for _, line := range strings.Split(string(data), "\n") {
				var env network.Envelope
				if err := json.Unmarshal([]byte(line), &env); err != nil {
					atomic.AddInt64(&stats.Errors, 1)
					continue
				}
				switch env.Kind {
				case network.KindAck, network.KindError:
					if env.Kind == network.KindAck {
						atomic.AddInt64(&stats.Acks, 1)
					} else {
						atomic.AddInt64(&stats.Rejections, 1)
					}
					if sent, ok := pending.LoadAndDelete(env.RequestID); ok {
						stats.mu.Lock()
						stats.Latencies = append(stats.Latencies, time.Since(sent.(time.Time)))
						stats.mu.Unlock()
					}
				case network.KindNotifications:
					atomic.AddInt64(&stats.Notifications, int64(len(env.Notifications)))
				case network.KindState:
					atomic.AddInt64(&stats.States, 1)
				}
			}
		}
	}()

	ticker := time.NewTicker(cfg.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := network.ClientMessage{RequestID: uuid.NewString(), Action: randomAction(rng)}
			pending.Store(msg.RequestID, time.Now())
			if err := conn.WriteJSON(msg); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.ActionsSent, 1)
		}
	}
}

func randomAction(rng *rand.Rand) engine.Action {
	a := engine.Action{Kind: actionKinds[rng.IntN(len(actionKinds))]}
	switch a.Kind {
	case engine.ActionCompleteMinigame, engine.ActionCompleteCooling:
		a.Success = rng.IntN(2) == 0
	case engine.ActionStrikeBoss:
		a.Damage = 5 + rng.Float64()*20
		if rng.IntN(3) == 0 {
			wp := rng.IntN(3)
			a.WeakPoint = &wp
		}
	}
	return a
}

func printResults(stats *Stats, cfg Config) {
	sent := atomic.LoadInt64(&stats.ActionsSent)
	acks := atomic.LoadInt64(&stats.Acks)
	rejected := atomic.LoadInt64(&stats.Rejections)
	notes := atomic.LoadInt64(&stats.Notifications)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Println("\n=========================================")
	fmt.Println("RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Actions sent:   %s\n", humanize.Comma(sent))
	fmt.Printf("Acks:           %s\n", humanize.Comma(acks))
	fmt.Printf("Rejected:       %s\n", humanize.Comma(rejected))
	fmt.Printf("Notifications:  %s\n", humanize.Comma(notes))
	fmt.Printf("State pushes:   %s\n", humanize.Comma(atomic.LoadInt64(&stats.States)))
	fmt.Printf("Errors:         %d\n", errs)

	throughput := float64(sent) / cfg.TestDuration.Seconds()
	fmt.Printf("Throughput:     %.2f actions/sec\n", throughput)

	stats.mu.Lock()
	lat := append([]time.Duration(nil), stats.Latencies...)
	stats.mu.Unlock()
	if len(lat) > 0 {
		var total time.Duration
		lo, hi := lat[0], lat[0]
		for _, l := range lat {
			total += l
			lo = min(lo, l)
			hi = max(hi, l)
		}
		fmt.Printf("\nRound trip:\n  Min: %v\n  Avg: %v\n  Max: %v\n", lo, total/time.Duration(len(lat)), hi)
	}

	if cfg.Output == "" {
		return
	}
	results := map[string]interface{}{
		"actions_sent":       sent,
		"acks":               acks,
		"rejections":         rejected,
		"notifications":      notes,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":  cfg.NumClients,
			"interval": cfg.ActionInterval.String(),
			"duration": cfg.TestDuration.String(),
		},
	}
	data, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(cfg.Output, data, 0644); err != nil {
		log.Printf("write results: %v", err)
		return
	}
	fmt.Printf("\nresults saved to %s\n", cfg.Output)
}
