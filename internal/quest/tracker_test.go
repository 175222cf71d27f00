package quest

import (
	"testing"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
)

func TestRecordCompletesMatchingQuest(t *testing.T) {
	tr := NewTracker(DefaultQuests()...)

	done := tr.Record([]Update{{Target: "rock_worm", Type: TypeKill}, {Target: "crystal_golem", Type: TypeKill}})
	if len(done) != 1 || done[0].ID != "worm_hunter" {
		t.Fatalf("expected worm_hunter to complete, got %+v", done)
	}

	if again := tr.Record([]Update{{Target: "rock_worm", Type: TypeKill}}); len(again) != 0 {
		t.Error("completed quests must not complete twice")
	}
}

func TestMaintainNeedsRepeats(t *testing.T) {
	tr := NewTracker(DefaultQuests()...)
	u := Update{Target: "heat_stability", Type: TypeMaintain}

	tr.Record([]Update{u, u})
	for _, q := range tr.Snapshot() {
		if q.ID == "steady_hands" && (q.Done || q.Progress != 2) {
			t.Errorf("expected progress 2 and not done, got %+v", q)
		}
	}
	if done := tr.Record([]Update{u}); len(done) != 1 {
		t.Error("third update should complete steady_hands")
	}
}

func TestCheckProgressDepth(t *testing.T) {
	tr := NewTracker(DefaultQuests()...)
	s := drill.NewGameState(100)
	s.Depth = 900

	updates, err := tr.CheckProgress(s)
	if err != nil || len(updates) != 0 {
		t.Fatalf("no milestone at 900m: %v %v", updates, err)
	}

	s.Depth = 1200
	updates, err = tr.CheckProgress(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 1 || updates[0].Type != TypeReachDepth {
		t.Fatalf("expected one REACH_DEPTH update, got %+v", updates)
	}

	done := tr.Record(updates)
	if len(done) != 1 || done[0].ID != "first_kilometre" {
		t.Fatalf("depth quest should complete through Record, got %+v", done)
	}
	if again, _ := tr.CheckProgress(s); len(again) != 0 {
		t.Errorf("completed depth quest reported again: %+v", again)
	}
}
