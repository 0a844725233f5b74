package persistence

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/wfunc/killzone/config"
	"github.com/wfunc/killzone/models"
)

func event(session string, i int) models.SessionEvent {
	return models.SessionEvent{
		ID:        "ev" + strconv.Itoa(i),
		SessionID: session,
		Kind:      models.EventJoin,
		PlayerID:  "p1",
		Ticks:     uint32(i),
		CreatedAt: time.Unix(int64(i), 0),
	}
}

func TestMemoryJournal_Recent(t *testing.T) {
	j := NewMemoryJournal(0)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		session := "a"
		if i%2 == 1 {
			session = "b"
		}
		if err := j.Record(ctx, event(session, i)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := j.Recent(ctx, "a", 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "ev4" || got[1].ID != "ev2" {
		t.Fatalf("Expected newest two of session a, got %+v", got)
	}

	all, _ := j.Recent(ctx, "", 0)
	if len(all) != 5 {
		t.Fatalf("Expected 5 events, got %d", len(all))
	}
}

func TestMemoryJournal_Capacity(t *testing.T) {
	j := NewMemoryJournal(3)
	for i := 0; i < 10; i++ {
		_ = j.Record(context.Background(), event("a", i))
	}
	got, _ := j.Recent(context.Background(), "a", 0)
	if len(got) != 3 || got[2].ID != "ev7" {
		t.Fatalf("Expected the newest 3 events, got %+v", got)
	}
}

func TestOpen(t *testing.T) {
	j, err := Open(config.JournalConfig{Driver: DriverNone})
	if err != nil {
		t.Fatalf("Open none failed: %v", err)
	}
	if _, ok := j.(NopJournal); !ok {
		t.Fatalf("Expected NopJournal, got %T", j)
	}

	j, err = Open(config.JournalConfig{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("Open memory failed: %v", err)
	}
	if _, ok := j.(*MemoryJournal); !ok {
		t.Fatalf("Expected *MemoryJournal, got %T", j)
	}

	if _, err := Open(config.JournalConfig{Driver: "mongo"}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("Expected ErrUnknownDriver, got %v", err)
	}
}

func TestGormRowConversion(t *testing.T) {
	ev := event("s1", 42)
	ev.Kind = models.EventDeath
	ev.PlayerName = "alice"
	ev.Detail = "killed in combat"

	row := toGorm(ev)
	if row.EventID != "ev42" || row.Kind != "death" || row.Ticks != 42 {
		t.Fatalf("unexpected row %+v", row)
	}
	if back := fromGorm(row); back != ev {
		t.Fatalf("conversion lost data: %+v vs %+v", back, ev)
	}
}

func TestDSN(t *testing.T) {
	got := dsn("db", 5432, "u", "p", "killzone")
	want := "host=db port=5432 user=u password=p dbname=killzone sslmode=disable"
	if got != want {
		t.Fatalf("dsn = %q", got)
	}
}
