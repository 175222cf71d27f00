package drill

import (
	"reflect"
	"testing"

	"github.com/MRamiBalles/DrillCore/internal/domain/base"
	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
)

func TestCombineEffectsCompoundsMultipliers(t *testing.T) {
	effects := []ActiveEffect{
		{ID: "a", Remaining: 5, Modifiers: []Modifier{{Kind: ModDrillSpeed, Value: 2}, {Kind: ModBarrier}}},
		{ID: "b", Remaining: 5, Modifiers: []Modifier{{Kind: ModDrillSpeed, Value: 1.5}}},
		{ID: "expired", Remaining: 0, Modifiers: []Modifier{{Kind: ModStability}}},
	}
	fx := CombineEffects(effects)

	if fx.DrillSpeed != 3 {
		t.Errorf("expected drill speed 3, got %f", fx.DrillSpeed)
	}
	if !fx.Barrier {
		t.Error("barrier should be set")
	}
	if fx.Stability {
		t.Error("expired effect must not contribute")
	}
	if fx.HeatGain != 1 || fx.Cooling != 1 || fx.ResourceYield != 1 {
		t.Errorf("untouched multipliers should stay neutral: %+v", fx)
	}
}

func TestAmbientFloorOverrides(t *testing.T) {
	st := Stats{AmbientHeat: 20}
	if got := AmbientFloor(st, Settings{}, NeutralTotals()); got != 20 {
		t.Errorf("expected 20, got %f", got)
	}
	if got := AmbientFloor(st, Settings{InfiniteCoolant: true}, NeutralTotals()); got != 0 {
		t.Errorf("infinite coolant should force floor to 0, got %f", got)
	}
	fx := NeutralTotals()
	fx.HeatImmune = true
	if got := AmbientFloor(st, Settings{}, fx); got != 0 {
		t.Errorf("heat immunity should force floor to 0, got %f", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewGameState(100)
	s.Resources[resource.Coal] = 10
	s.CurrentBoss = &boss.Boss{HP: 50, WeakPoints: []boss.WeakPoint{{ID: "wp", HP: 5}}}
	s.SideTunnel = &SideTunnel{Rewards: resource.Bag{resource.Gold: 1}}

	c := s.Clone()
	c.Resources[resource.Coal] = 0
	c.CurrentBoss.WeakPoints[0].HP = 0
	c.SideTunnel.Rewards[resource.Gold] = 0

	if s.Resources[resource.Coal] != 10 {
		t.Error("resources leaked through clone")
	}
	if s.CurrentBoss.WeakPoints[0].HP != 5 {
		t.Error("boss weak points leaked through clone")
	}
	if s.SideTunnel.Rewards[resource.Gold] != 1 {
		t.Error("tunnel rewards leaked through clone")
	}
}

func TestCloneKeepsNilAndEmptyApart(t *testing.T) {
	s := NewGameState(100)
	s.EventQueue = []EventInstance{}
	s.CurrentBoss = &boss.Boss{HP: 10}
	s.PlayerBases = []base.Base{{ID: "b1", Name: "Outpost"}}

	c := s.Clone()
	if !reflect.DeepEqual(s, c) {
		t.Fatalf("clone differs from source:\n got %+v\nwant %+v", c, s)
	}
	if c.ActiveEffects != nil || c.FlyingObjects != nil || c.Inventory != nil {
		t.Error("nil slices must stay nil")
	}
	if c.EventQueue == nil {
		t.Error("empty slice must stay non-nil")
	}
	if c.CurrentBoss.WeakPoints != nil || c.PlayerBases[0].Storage != nil {
		t.Error("nested nil fields must stay nil")
	}
}

func TestPushRecentEventKeepsLastFive(t *testing.T) {
	var recent []string
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		recent = PushRecentEvent(recent, id)
	}
	if len(recent) != RecentEventsCap || recent[0] != "b" || recent[4] != "f" {
		t.Errorf("unexpected ring buffer contents: %v", recent)
	}
}
