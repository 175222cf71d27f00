package events

import (
	"errors"
	"testing"
)

type failingPersister struct{ calls int }

func (f *failingPersister) Append(Notification) error {
	f.calls++
	return errors.New("disk full")
}

func TestAppendStampsSequence(t *testing.T) {
	el := NewEventLog(nil)
	stamped := el.Append(7, Log("a", ColorInfo), Sound("alarm"))
	if len(stamped) != 2 {
		t.Fatalf("expected 2 stamped entries, got %d", len(stamped))
	}
	if stamped[0].Seq != 1 || stamped[1].Seq != 2 {
		t.Errorf("unexpected sequence numbers: %d %d", stamped[0].Seq, stamped[1].Seq)
	}
	if stamped[0].ID == "" || stamped[0].ID == stamped[1].ID {
		t.Error("each entry needs a unique id")
	}
	if stamped[1].Tick != 7 {
		t.Errorf("expected tick 7, got %d", stamped[1].Tick)
	}

	if got := el.Since(1); len(got) != 1 || got[0].Type != TypeSound {
		t.Errorf("Since(1) should return only the sound, got %+v", got)
	}
}

func TestPersistErrorsReported(t *testing.T) {
	p := &failingPersister{}
	el := NewEventLog(p)
	var reported int
	el.OnPersistError(func(error) { reported++ })

	el.Append(1, Log("x", ColorInfo))
	if p.calls != 1 || reported != 1 {
		t.Errorf("expected one write and one report, got %d/%d", p.calls, reported)
	}
	if el.Len() != 1 {
		t.Error("entry should still be kept in memory after a persist failure")
	}
}

func TestRestoreContinuesNumbering(t *testing.T) {
	el := NewEventLog(nil)
	el.Restore([]Notification{{Seq: 41, Type: TypeLog}})
	stamped := el.Append(1, Log("next", ColorInfo))
	if stamped[0].Seq != 42 {
		t.Errorf("expected seq 42 after restore, got %d", stamped[0].Seq)
	}
	if len(el.ByType(TypeLog)) != 2 {
		t.Error("restored and new entries should both be present")
	}
}
