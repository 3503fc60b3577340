// Package digest computes the content-addressed digest of a normalized
// package tree: the store key and the lockfile integrity field (spec §3,
// §4.2, §4.3). Grounded on distribution-distribution's digest-keyed blob
// store (registry/storage, digest/), adapted to hash a whole directory tree
// instead of a single blob.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ocidigest "github.com/opencontainers/go-digest"
)

// Digest is a keyed content hash, e.g. "sha256:e3b0c4...". BLAKE3 is named
// as preferred in the original spec, but no BLAKE3 implementation is
// present anywhere in the retrieved dependency corpus (see DESIGN.md); the
// sha256 algorithm accepted as a fallback there is used throughout.
type Digest = ocidigest.Digest

// Algorithm is the single digest algorithm this implementation uses.
const Algorithm = ocidigest.SHA256

// Kind classifies a normalized tree entry: one of the two file-mode buckets
// the normalization contract allows (spec §4.2), or a symlink.
type Kind string

const (
	KindRegular           Kind = "f"
	KindRegularExecutable Kind = "x"
	KindSymlink           Kind = "l"
)

// vcsDirNames are excluded from normalization regardless of depth.
var vcsDirNames = map[string]bool{".git": true, ".hg": true, ".svn": true}

// entry is one normalized tree record: a relative path, its kind, and a
// payload (content hash for regular files, link target for symlinks).
type entry struct {
	path    string
	kind    Kind
	payload string
}

// Tree computes the content digest of the normalized package tree rooted at
// dir. Two trees with identical contents, paths, mode bits, and symlink
// targets produce identical digests on any platform (spec invariant #2).
func Tree(dir string) (Digest, error) {
	entries, err := collect(dir)
	if err != nil {
		return "", fmt.Errorf("normalizing tree at %s: %w", dir, err)
	}
	return digestEntries(entries), nil
}

func collect(root string) ([]entry, error) {
	var entries []entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if vcsDirNames[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("reading symlink %s: %w", rel, err)
			}
			entries = append(entries, entry{path: rel, kind: KindSymlink, payload: filepath.ToSlash(target)})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			// Non-regular, non-symlink entries (sockets, devices, ...) have
			// no meaningful content to address; they are never produced by
			// a fetcher and are skipped rather than rejected.
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", rel, err)
		}
		kind := KindRegular
		if info.Mode().Perm()&0o111 != 0 {
			kind = KindRegularExecutable
		}
		entries = append(entries, entry{path: rel, kind: kind, payload: hash})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })
	return entries, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func digestEntries(entries []entry) Digest {
	digester := Algorithm.Digester()
	w := digester.Hash()
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.kind, e.path, e.payload)
	}
	return digester.Digest()
}

// FormatMismatch renders a human-readable "expected vs actual" message for
// store verification failures (spec §4.3 "Verification").
func FormatMismatch(name string, want, got Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: digest mismatch\n  expected: %s\n  actual:   %s", name, want, got)
	return b.String()
}

// File computes a single regular file's content digest, for the sync
// engine's drift detection (spec §4.7 "compare stored checksum to on-disk
// checksum") where the unit of comparison is one materialized file rather
// than a whole tree.
func File(path string) (Digest, error) {
	hash, err := hashFile(path)
	if err != nil {
		return "", err
	}
	digester := Algorithm.Digester()
	w := digester.Hash()
	fmt.Fprintf(w, "%s\t%s\n", KindRegular, hash)
	return digester.Digest(), nil
}
