package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/inamate/motion/internal/typeid"
)

// exercise runs the behavior every Store must share.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &Record{ID: typeid.NewCompositionID(), Name: "a", Format: FormatJSON, Width: 100, Height: 50, FrameRate: 30, Frames: 60, CreatedAt: base, Data: []byte(`{"v":"5"}`)}
	b := &Record{ID: typeid.NewCompositionID(), Name: "b", Format: FormatZip, CreatedAt: base.Add(time.Minute), Data: []byte("PK")}

	for _, rec := range []*Record{a, b} {
		if err := s.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Get(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "a" || string(got.Data) != `{"v":"5"}` || got.Format != FormatJSON || got.Frames != 60 {
		t.Fatalf("got %+v", got)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, rec := range list {
		if rec.ID == a.ID || rec.ID == b.ID {
			ids = append(ids, rec.ID)
			if rec.Data != nil {
				t.Fatalf("list returned data for %s", rec.ID)
			}
		}
	}
	if len(ids) != 2 || ids[0] != b.ID {
		t.Fatalf("list order = %v, want newest first", ids)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted: err = %v", err)
	}
	if err := s.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete twice: err = %v", err)
	}
	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemoryCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rec := &Record{ID: "comp_x", Data: []byte("abc")}
	if err := m.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Data[0] = 'z'
	got, err := m.Get(ctx, "comp_x")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Data) != "abc" {
		t.Fatalf("stored data aliased caller slice: %q", got.Data)
	}
}

func TestMemoryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Get(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("MOTION_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MOTION_TEST_DATABASE_URL not set")
	}
	p, err := NewPostgres(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	exercise(t, p)
}
