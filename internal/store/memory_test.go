package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/sketchguess/apps/go-server/internal/game"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/predict"
)

func newSession() *game.Session {
	return game.New(game.Options{
		Width: 32, Height: 32,
		Predictor: predict.NewClient(predict.Config{Endpoint: "http://127.0.0.1:1/predict"}),
		PickWord:  func() string { return "cat" },
	})
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession()

	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Get(ctx, s.ID)
	if err != nil || got != s {
		t.Fatalf("Get: %v %v", got, err)
	}
	if st.Len() != 1 {
		t.Errorf("Len: %d", st.Len())
	}

	if err := st.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := st.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of a missing id should be a no-op, got %v", err)
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	old, fresh := newSession(), newSession()
	st.Save(ctx, old)

	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	st.Save(ctx, fresh)
	fresh.PointerLeave() // touch after the cutoff

	n, err := st.Sweep(ctx, cutoff)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := st.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("idle session should be gone")
	}
	if _, err := st.Get(ctx, fresh.ID); err != nil {
		t.Error("active session should remain")
	}
}
