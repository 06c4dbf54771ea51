package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/store"
)

type item struct {
	Name string `json:"name"`
}

func newFileStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := store.NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	return store.New(backend, store.WithLogger(logger.Nop())), dir
}

func TestLoadMissingDocumentIsEmpty(t *testing.T) {
	s, dir := newFileStore(t)
	h, err := s.Load(context.Background(), store.NamespacePrompts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var v []item
	found, err := h.Get("prompts", &v)
	if err != nil || found {
		t.Fatalf("expected absent key, got found=%v err=%v", found, err)
	}
	if _, err := os.Stat(filepath.Join(dir, store.NamespacePrompts)); !os.IsNotExist(err) {
		t.Errorf("Load must not create the file before Save")
	}
}

func TestSetIsNotDurableUntilSave(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	a, _ := s.Load(ctx, "doc.json")
	if err := a.Set("k", item{Name: "one"}); err != nil {
		t.Fatal(err)
	}
	if !a.Dirty() {
		t.Error("handle should be dirty after Set")
	}

	b, _ := s.Load(ctx, "doc.json")
	if b.Has("k") {
		t.Fatal("unsaved value leaked to another handle")
	}

	if err := a.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c, _ := s.Load(ctx, "doc.json")
	var got item
	if found, err := c.Get("k", &got); !found || err != nil || got.Name != "one" {
		t.Fatalf("after save got %+v found=%v err=%v", got, found, err)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	h, _ := s.Load(ctx, "doc.json")
	_ = h.Set("license", item{Name: "pro"})
	_ = h.Save(ctx)

	h, _ = s.Load(ctx, "doc.json")
	h.Delete("license")
	if err := h.Save(ctx); err != nil {
		t.Fatal(err)
	}

	h, _ = s.Load(ctx, "doc.json")
	var v item
	if found, _ := h.Get("license", &v); found {
		t.Fatal("deleted key still present")
	}
}

func TestLastSaveWins(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	a, _ := s.Load(ctx, "doc.json")
	b, _ := s.Load(ctx, "doc.json")

	_ = a.Set("x", "from-a")
	_ = b.Set("y", "from-b")
	if err := a.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Save(ctx); err != nil {
		t.Fatal(err)
	}

	h, _ := s.Load(ctx, "doc.json")
	if h.Has("x") {
		t.Error("b's save should clobber a's write")
	}
	var y string
	if found, _ := h.Get("y", &y); !found || y != "from-b" {
		t.Errorf("y = %q found=%v", y, found)
	}
}

func TestCorruptDocument(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()
	path := filepath.Join(dir, store.NamespacePrompts)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(ctx, store.NamespacePrompts)
	if !errors.Is(err, store.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	dest, err := s.Quarantine(ctx, store.NamespacePrompts)
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("quarantined file missing: %v", err)
	}
	if _, err := s.Load(ctx, store.NamespacePrompts); err != nil {
		t.Errorf("load after quarantine: %v", err)
	}
}

func TestSaveFailureIsSurfaced(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()

	h, _ := s.Load(ctx, "doc.json")
	_ = h.Set("k", 1)

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := h.Save(ctx); err == nil {
		t.Fatal("expected save error when the directory is gone")
	}
}

func TestCancelledContext(t *testing.T) {
	s, _ := newFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Load(ctx, "doc.json"); !errors.Is(err, context.Canceled) {
		t.Errorf("Load with cancelled ctx: %v", err)
	}
}
