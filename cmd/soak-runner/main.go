// Command soak-runner plays the soak suite headlessly and exits non-zero when
// any invariant breaks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/soak"
)

func main() {
	ticks := flag.Int("ticks", 36000, "ticks per scenario (36000 = one simulated hour)")
	seed := flag.Uint64("seed", 0, "rng seed, 0 uses the clock")
	only := flag.String("scenario", "", "run a single scenario by name")
	verbose := flag.Bool("v", false, "log engine output")
	out := flag.String("out", "", "write results as JSON to this file")
	flag.Parse()

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	log := logger.NewWithWriter(io.Discard)
	if *verbose {
		log = logger.NewLogger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("DRILL SOAK SUITE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("seed %d, %s ticks per scenario\n", *seed, humanize.Comma(int64(*ticks)))

	h := soak.NewHarness(*seed, log)
	var results []soak.Result
	failed := 0
	for _, sc := range soak.DefaultScenarios(*ticks) {
		if *only != "" && sc.Name != *only {
			continue
		}
		fmt.Printf("\n> %s\n", sc.Name)
		r := h.Run(ctx, sc)
		results = append(results, r)

		fmt.Printf("  ticks:         %s in %s\n", humanize.Comma(r.Ticks), r.Elapsed.Round(time.Millisecond))
		fmt.Printf("  final depth:   %sm\n", humanize.Comma(int64(r.FinalDepth)))
		fmt.Printf("  deaths:        %d\n", r.Deaths)
		fmt.Printf("  notifications: %s\n", humanize.Comma(int64(r.Notifications)))
		fmt.Printf("  actions:       %s ok, %s denied\n", humanize.Comma(int64(r.ActionsOK)), humanize.Comma(int64(r.ActionsDenied)))
		fmt.Printf("  hook faults:   %d\n", r.Faults)
		fmt.Printf("  quests done:   %d\n", r.QuestsDone)
		if r.Passed {
			fmt.Println("  PASS")
			continue
		}
		failed++
		fmt.Printf("  FAIL (%d violations)\n", len(r.Violations))
		for i, v := range r.Violations {
			if i == 10 {
				fmt.Printf("    ... %d more\n", len(r.Violations)-i)
				break
			}
			fmt.Printf("    tick %d %s: %s\n", v.Tick, v.Invariant, v.Detail)
		}
	}

	if *out != "" {
		data, _ := json.MarshalIndent(results, "", "  ")
		if err := os.WriteFile(*out, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write results: %v\n", err)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("passed: %d  failed: %d\n", len(results)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
