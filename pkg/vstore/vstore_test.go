package vstore

import (
	"os"
	"path/filepath"
	"testing"
)

func writePayload(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "skills", "fetch-web"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skills", "fetch-web", "SKILL.md"), []byte("# fetch web\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestEntryPathFlattensScopedSlash(t *testing.T) {
	s := New(t.TempDir())
	got := s.EntryPath("@acme/mcp-pack@0.3.0")
	if filepath.Base(got) != "@acme+mcp-pack@0.3.0" {
		t.Errorf("expected flattened single path segment, got %s", got)
	}
}

func TestLinkSymlinkMode(t *testing.T) {
	payload := writePayload(t)
	s := New(t.TempDir())

	if err := s.Link("fetch-web@1.0.0", payload, LinkSymlink); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	entry := s.EntryPath("fetch-web@1.0.0")
	info, err := os.Lstat(entry)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("expected entry to be a symlink")
	}
	if _, err := os.Stat(filepath.Join(entry, "skills", "fetch-web", "SKILL.md")); err != nil {
		t.Errorf("expected payload content reachable through the link: %v", err)
	}
}

func TestLinkCopyMode(t *testing.T) {
	payload := writePayload(t)
	s := New(t.TempDir())

	if err := s.Link("fetch-web@1.0.0", payload, LinkCopy); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	entry := s.EntryPath("fetch-web@1.0.0")
	info, err := os.Lstat(entry)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		t.Error("expected a real directory, not a symlink, under copy mode")
	}
	if _, err := os.Stat(filepath.Join(entry, "skills", "fetch-web", "SKILL.md")); err != nil {
		t.Errorf("expected copied payload content: %v", err)
	}
}

func TestLinkReplacesExistingEntryAtomically(t *testing.T) {
	payload1 := writePayload(t)
	payload2 := writePayload(t)
	if err := os.WriteFile(filepath.Join(payload2, "skills", "fetch-web", "SKILL.md"), []byte("# v2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(t.TempDir())
	if err := s.Link("fetch-web@1.0.0", payload1, LinkCopy); err != nil {
		t.Fatal(err)
	}
	if err := s.Link("fetch-web@1.0.0", payload2, LinkCopy); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(filepath.Join(s.EntryPath("fetch-web@1.0.0"), "skills", "fetch-web", "SKILL.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "# v2\n" {
		t.Errorf("expected entry replaced with second payload's content, got %q", content)
	}
}

func TestRemove(t *testing.T) {
	payload := writePayload(t)
	s := New(t.TempDir())
	if err := s.Link("fetch-web@1.0.0", payload, LinkCopy); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("fetch-web@1.0.0"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(s.EntryPath("fetch-web@1.0.0")); !os.IsNotExist(err) {
		t.Error("expected entry to be gone after Remove")
	}
}
