package engine

import (
	"reflect"
	"testing"

	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
)

func TestDiffApplyRoundTrip(t *testing.T) {
	before := drill.NewGameState(100)
	before.Resources = resource.Bag{resource.Iron: 10}
	after := before.Clone()
	after.Depth = 250
	after.Heat = 42
	after.Resources = resource.Bag{resource.Iron: 12, resource.Gold: 1}
	after.CurrentBoss = &boss.Boss{Name: "Rock Worm", HP: 10, MaxHP: 10}
	after.Unlocks["bedrock"] = true

	p := Diff(before, after)
	if p.Integrity.Set || p.IsDrilling.Set {
		t.Error("unchanged fields must stay unset")
	}
	if !p.Depth.Set || !p.CurrentBoss.Set || !p.Unlocks.Set {
		t.Error("changed fields must be set")
	}

	got := before.Clone()
	p.ApplyTo(got)
	if !reflect.DeepEqual(got, after) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, after)
	}
}

func TestDiffOfUnchangedStateIsEmpty(t *testing.T) {
	s := drill.NewGameState(100)
	s.Depth = 1200
	s.CurrentBoss = &boss.Boss{Name: "Rock Worm", HP: 10, MaxHP: 10}

	if p := Diff(s, s.Clone()); !reflect.DeepEqual(p, Patch{}) {
		t.Errorf("expected empty patch, got %+v", p)
	}
}

func TestPatchSetZeroValueClears(t *testing.T) {
	s := drill.NewGameState(100)
	s.CurrentBoss = &boss.Boss{Name: "Rock Worm"}
	s.SideTunnel = &drill.SideTunnel{Name: "Cave"}

	var p Patch
	p.CurrentBoss = Some[*boss.Boss](nil)
	p.ApplyTo(s)
	if s.CurrentBoss != nil {
		t.Error("Some(nil) must clear the boss")
	}
	if s.SideTunnel == nil {
		t.Error("unset field must be left alone")
	}
}

func TestPatchDeltasMerge(t *testing.T) {
	s := drill.NewGameState(100)
	s.Resources = resource.Bag{resource.Coal: 3}
	s.XP = 5

	var p Patch
	p.Credit(resource.Coal, 2)
	p.CreditBag(resource.Bag{resource.Coal: -10, resource.Iron: 4})
	p.XPDelta = -20
	p.ApplyTo(s)

	if s.Resources[resource.Coal] != 0 || s.Resources[resource.Iron] != 4 {
		t.Errorf("resources = %v", s.Resources)
	}
	if s.XP != 0 {
		t.Errorf("xp = %f, want clamp at 0", s.XP)
	}
}
