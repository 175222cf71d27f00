package rules

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestHeatGainPerSec(t *testing.T) {
	if got := HeatGainPerSec(0, 1); got != BaseHeatGain {
		t.Errorf("no reduction should give base gain, got %f", got)
	}
	if got := HeatGainPerSec(50, 1); !almost(got, 4.25) {
		t.Errorf("50%% reduction should halve gain, got %f", got)
	}
	if got := HeatGainPerSec(150, 1); got != 0 {
		t.Errorf("reduction should clamp at 100%%, got %f", got)
	}
}

func TestSpeedPenalty(t *testing.T) {
	cases := []struct {
		name          string
		depth, torque float64
		want          float64
	}{
		{"surface", 0, 0, 1},
		{"half hardness", 5000, 0, 0.5},
		{"saturated floors at ten percent", 20000, 0, MinSpeedPenalty},
		{"torque offsets hardness", 5000, 30, 0.8},
		{"torque beyond hardness", 1000, 50, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SpeedPenalty(tc.depth, tc.torque); !almost(got, tc.want) {
				t.Errorf("SpeedPenalty(%f, %f) = %f, want %f", tc.depth, tc.torque, got, tc.want)
			}
		})
	}
}

func TestHazardChanceRamp(t *testing.T) {
	if HazardChancePerSec(1999, false) != 0 {
		t.Error("no hazards above the minimum depth")
	}
	if got := HazardChancePerSec(2000, false); !almost(got, 0.005) {
		t.Errorf("expected 0.5%%/s at threshold, got %f", got)
	}
	if got := HazardChancePerSec(1e6, false); got != 0.02 {
		t.Errorf("expected ceiling 2%%/s, got %f", got)
	}
	if got := HazardChancePerSec(1e6, true); got != 0.01 {
		t.Errorf("stability should halve chance, got %f", got)
	}
}

func TestMitigatedBossDamage(t *testing.T) {
	if got := MitigatedBossDamage(20, 50, false); got != 10 {
		t.Errorf("expected 10, got %f", got)
	}
	if got := MitigatedBossDamage(20, 100, false); got != MinBossDamage {
		t.Errorf("damage should floor at 1, got %f", got)
	}
	if got := MitigatedBossDamage(20, 50, true); !almost(got, 2) {
		t.Errorf("blocking should cut 80%%, got %f", got)
	}
}

func TestRaidChance(t *testing.T) {
	if RaidChance(0) != 0 {
		t.Error("no threat, no raid")
	}
	if got := RaidChance(1); !almost(got, 0.1) {
		t.Errorf("expected 10%%, got %f", got)
	}
	if got := RaidChance(100); got != RaidMaxChance {
		t.Errorf("expected cap, got %f", got)
	}
}
