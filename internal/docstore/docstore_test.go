package docstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStore_AddGet(t *testing.T) {
	s := NewStore()
	s.Add("permits.md", "permit review takes 90 days")

	text, ok := s.Get("permits.md")
	if !ok {
		t.Fatal("expected document to be present")
	}
	if text != "permit review takes 90 days" {
		t.Errorf("unexpected text: %q", text)
	}

	if _, ok := s.Get("missing.md"); ok {
		t.Error("expected miss for unknown document")
	}
}

func TestStore_NamesSorted(t *testing.T) {
	s := NewStore()
	s.Add("zoning.txt", "z")
	s.Add("access.txt", "a")
	s.Add("permits.md", "p")

	names := s.Names()
	want := []string{"access.txt", "permits.md", "zoning.txt"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.Add("a.txt", "alpha")

	snap := s.Snapshot()
	snap["a.txt"] = "mutated"
	snap["b.txt"] = "new"

	if text, _ := s.Get("a.txt"); text != "alpha" {
		t.Errorf("store mutated through snapshot: %q", text)
	}
	if s.Len() != 1 {
		t.Errorf("store grew through snapshot: %d docs", s.Len())
	}
}

func TestLoadDir_MixedFormats(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("permits.md", "permit review takes 90 days")
	write("zoning.html", "<html><head><title>x</title><style>p{}</style></head><body><p>zoning approval is required</p><script>var a=1;</script></body></html>")
	write("notes.pdf", "binary junk")

	s := NewStore()
	n, err := s.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 2 {
		t.Errorf("loaded %d documents, want 2", n)
	}

	text, ok := s.Get("zoning.html")
	if !ok {
		t.Fatal("html document not loaded")
	}
	if !strings.Contains(text, "zoning approval is required") {
		t.Errorf("visible text missing from %q", text)
	}
	if strings.Contains(text, "var a=1") || strings.Contains(text, "p{}") {
		t.Errorf("script/style content leaked into %q", text)
	}

	if _, ok := s.Get("notes.pdf"); ok {
		t.Error("unsupported extension should be skipped")
	}
}

func TestLoadFile_CachesByModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore()
	if err := s.LoadFile(path); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := s.LoadFile(path); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if text, _ := s.Get("doc.txt"); text != "first" {
		t.Errorf("unexpected text after cached load: %q", text)
	}
}

func TestLoadDir_MissingDir(t *testing.T) {
	s := NewStore()
	if _, err := s.LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
