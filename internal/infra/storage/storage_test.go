package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
	"github.com/MRamiBalles/DrillCore/internal/events"
)

func openTestDB(t *testing.T) *SQLiteNotificationRepository {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "nested", "drill.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteNotificationRepository(db)
}

func TestSaveRoundTrip(t *testing.T) {
	notes := openTestDB(t)
	repo := NewSQLiteSaveRepository(notes.db)
	ctx := context.Background()

	if _, err := repo.Load(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on empty db: err = %v, want ErrNotFound", err)
	}

	s := drill.NewGameState(100)
	s.Depth = 1234.5
	s.Heat = 42
	s.TickCount = 77
	s.Resources = resource.Bag{resource.Stone: 10, resource.Gold: 2.5}
	s.CurrentBoss = &boss.Boss{ID: "b1", Name: "Magma Wyrm", HP: 50, MaxHP: 100}

	if err := repo.Save(ctx, "g1", s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Depth = 2000
	if err := repo.Save(ctx, "g1", s); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := repo.Load(ctx, "g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Depth != 2000 || got.Heat != 42 || got.TickCount != 77 {
		t.Errorf("scalar fields lost: %+v", got)
	}
	if got.Resources[resource.Gold] != 2.5 || got.Resources[resource.Stone] != 10 {
		t.Errorf("resources = %v", got.Resources)
	}
	if got.CurrentBoss == nil || got.CurrentBoss.Name != "Magma Wyrm" || got.CurrentBoss.HP != 50 {
		t.Errorf("boss = %+v", got.CurrentBoss)
	}

	info, err := repo.Info(ctx, "g1")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Tick != 77 || info.Depth != 2000 {
		t.Errorf("info = %+v", info)
	}
}

func TestNotificationsAndPersister(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	log := events.NewEventLog(repo.Persister("g1", time.Second))
	log.Append(1, events.Log("Boss spawned", events.ColorDanger), events.Sound("boss_spawn"))
	log.Append(2, events.Log("Tunnel complete", events.ColorSuccess))

	all, err := repo.GetByGameID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetByGameID: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d notifications, want 3", len(all))
	}
	for i, n := range all {
		if n.Seq != int64(i+1) {
			t.Errorf("entry %d seq = %d", i, n.Seq)
		}
	}

	since, err := repo.GetSince(ctx, "g1", 2)
	if err != nil || len(since) != 1 || since[0].Message != "Tunnel complete" {
		t.Errorf("GetSince = %+v, %v", since, err)
	}

	sounds, err := repo.GetByType(ctx, "g1", events.TypeSound)
	if err != nil || len(sounds) != 1 || sounds[0].Cue != "boss_spawn" {
		t.Errorf("GetByType = %+v, %v", sounds, err)
	}

	other, err := repo.GetByGameID(ctx, "g2")
	if err != nil || len(other) != 0 {
		t.Errorf("other game leaked: %+v, %v", other, err)
	}
}

func TestGenerateRecap(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	log := events.NewEventLog(repo.Persister("g1", 0))
	log.Append(1, events.Log("old news", events.ColorInfo))
	log.Append(5,
		events.Log("HULL BREACH!", events.ColorDanger),
		events.Sound("death"),
		events.Log("Boss defeated", events.ColorSuccess),
		events.Sound("boss_death"),
		events.Shake(3),
	)

	rec, err := NewReconstructor(repo).GenerateRecap(ctx, "g1", 1, 0)
	if err != nil {
		t.Fatalf("GenerateRecap: %v", err)
	}
	if rec.Deaths != 1 || rec.BossKills != 1 {
		t.Errorf("counts = deaths %d kills %d", rec.Deaths, rec.BossKills)
	}
	if len(rec.Entries) != 2 {
		t.Fatalf("entries = %+v", rec.Entries)
	}
	if rec.Entries[0].Impact != ImpactNegative || rec.Entries[1].Impact != ImpactPositive {
		t.Errorf("impacts = %s, %s", rec.Entries[0].Impact, rec.Entries[1].Impact)
	}
	if rec.LastSeq != 6 {
		t.Errorf("last seq = %d, want 6", rec.LastSeq)
	}

	limited, err := NewReconstructor(repo).GenerateRecap(ctx, "g1", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited.Entries) != 1 || limited.Entries[0].Summary != "Boss defeated" {
		t.Errorf("limit kept %+v", limited.Entries)
	}
}
