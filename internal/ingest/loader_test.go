package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devashish-g/titleseek/internal/index"
)

func writeCorpus(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCorpus(t *testing.T) {
	path := writeCorpus(t, "The Matrix\nSpirited Away\nThe Lord of the Rings\n")
	store := index.NewStore()
	inv := index.NewInverted()

	count, err := LoadCorpus(path, store, inv, nil)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	// Ids follow file order, starting at 0.
	text, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if text != "Spirited Away" {
		t.Fatalf("document 1 = %q, want %q", text, "Spirited Away")
	}

	if _, err := inv.Lookup("matrix"); err != nil {
		t.Fatalf("expected matrix to be indexed: %v", err)
	}
	if _, err := inv.Lookup("spirited"); err != nil {
		t.Fatalf("expected spirited to be indexed: %v", err)
	}
}

func TestLoadCorpusMissingFile(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "missing.txt"), index.NewStore(), index.NewInverted(), nil)
	if err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}

func TestBuildOrLoadWritesAndReusesSnapshot(t *testing.T) {
	corpus := writeCorpus(t, "The Matrix\nSpirited Away\n")
	snapshot := filepath.Join(t.TempDir(), "data", "index.tseg")

	store := index.NewStore()
	inv := index.NewInverted()
	if err := BuildOrLoad(corpus, snapshot, store, inv, nil); err != nil {
		t.Fatalf("BuildOrLoad (build): %v", err)
	}
	if _, err := os.Stat(snapshot); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	// Second run must load the snapshot, not re-ingest; removing the
	// corpus file proves it.
	if err := os.Remove(corpus); err != nil {
		t.Fatal(err)
	}
	store2 := index.NewStore()
	inv2 := index.NewInverted()
	if err := BuildOrLoad(corpus, snapshot, store2, inv2, nil); err != nil {
		t.Fatalf("BuildOrLoad (load): %v", err)
	}
	if store2.Len() != store.Len() || inv2.Len() != inv.Len() {
		t.Fatalf("loaded index differs: %d/%d docs, %d/%d terms",
			store2.Len(), store.Len(), inv2.Len(), inv.Len())
	}
}

func TestBuildOrLoadRejectsCorruptSnapshot(t *testing.T) {
	corpus := writeCorpus(t, "The Matrix\n")
	snapshot := filepath.Join(t.TempDir(), "index.tseg")
	if err := os.WriteFile(snapshot, []byte("not a snapshot"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := BuildOrLoad(corpus, snapshot, index.NewStore(), index.NewInverted(), nil); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}
