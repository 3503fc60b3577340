// Package store implements the global content-addressed store (spec §4.3):
// a flat, digest-keyed directory of package payloads shared across every
// workspace on the machine, populated through a crash-safe stage-then-rename
// protocol and guarded by per-digest advisory locks.
//
// Grounded on gh-aw's cache-directory conventions (pkg/workflow download
// cache: stage into a temp dir, fsync, rename) generalized to a full CAS, and
// on pnpm's global content-addressable store model (spec §2 prior art) for
// the overall directory shape. otiai10/copy stages the normalized tree;
// gofrs/flock serializes concurrent populators of the same digest.
package store

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/otiai10/copy"

	"github.com/botpack/botpack/pkg/digest"
	"github.com/botpack/botpack/pkg/fsutil"
	"github.com/botpack/botpack/pkg/logger"
)

var storeLog = logger.New("store")

// Store is a handle onto a global store rooted at a single directory,
// typically $BOTPACK_STORE or a platform cache-dir default.
type Store struct {
	root string
}

// New returns a Store rooted at root. root is created on first Put; it need
// not exist yet.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Meta is the sidecar record written next to every populated payload.
// Source and Manifest are kept as raw JSON rather than typed resolver or
// manifest structs so this package never has to import pkg/resolver or
// pkg/manifest — it only needs to persist and return whatever callers give
// it (store imports neither; pkg/cli, which calls Put, wires them together).
type Meta struct {
	Digest    digest.Digest   `json:"digest"`
	Source    json.RawMessage `json:"source"`
	Manifest  json.RawMessage `json:"manifest,omitempty"`
	Files     []string        `json:"files"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (s *Store) digestDir(d digest.Digest) string {
	return filepath.Join(s.root, string(d.Algorithm()), d.Encoded())
}

// PayloadPath returns where the populated tree for d lives. It is kept as a
// "payload" subdirectory, separate from meta.json, so that re-hashing the
// payload during Verify never sees the sidecar file as part of the tree.
func (s *Store) PayloadPath(d digest.Digest) string {
	return filepath.Join(s.digestDir(d), "payload")
}

func (s *Store) metaPath(d digest.Digest) string {
	return filepath.Join(s.digestDir(d), "meta.json")
}

func (s *Store) lockPath(d digest.Digest) string {
	return filepath.Join(s.root, "locks", string(d.Algorithm())+"-"+d.Encoded()+".lock")
}

// Has reports whether d is already populated, without taking a lock.
func (s *Store) Has(d digest.Digest) bool {
	_, err := os.Stat(s.metaPath(d))
	return err == nil
}

// Put populates the store with the tree at srcDir under digest d, if it
// isn't already present. It follows the population protocol required by
// spec §4.3:
//
//  1. acquire an exclusive advisory lock keyed on d
//  2. if meta.json already exists and is well-formed, treat as success
//     (idempotent: a concurrent or prior populator already finished)
//  3. otherwise stage the tree at a uniquely-named temp directory beside
//     the final path
//  4. fsync every staged file and directory
//  5. atomically rename the temp directory into place, then fsync the
//     parent directory
//  6. release the lock
//
// source and manifest are stored verbatim as the Meta sidecar so callers
// (pkg/cli's resolve step) can recover what produced this entry without the store
// needing to understand resolver types.
func (s *Store) Put(d digest.Digest, srcDir string, source, manifest json.RawMessage) error {
	if err := os.MkdirAll(filepath.Join(s.root, "locks"), 0o755); err != nil {
		return fmt.Errorf("store: creating lock dir: %w", err)
	}

	lock := flock.New(s.lockPath(d))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("store: locking %s: %w", d, err)
	}
	defer lock.Unlock()

	if s.Has(d) {
		if _, err := s.LoadMeta(d); err == nil {
			storeLog.Printf("%s already populated, skipping", d)
			return nil
		}
		storeLog.Printf("%s has a malformed meta.json, repopulating", d)
		if err := os.RemoveAll(s.digestDir(d)); err != nil {
			return fmt.Errorf("store: clearing malformed entry %s: %w", d, err)
		}
	}

	dir := s.digestDir(d)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: creating %s: %w", dir, err)
	}

	tmpDir := dir + ".tmp-" + uuid.NewString()
	defer os.RemoveAll(tmpDir)

	payloadTmp := filepath.Join(tmpDir, "payload")
	if err := copy.Copy(srcDir, payloadTmp); err != nil {
		return fmt.Errorf("store: staging %s: %w", d, err)
	}

	files, err := listFiles(payloadTmp)
	if err != nil {
		return fmt.Errorf("store: listing staged files: %w", err)
	}

	meta := Meta{Digest: d, Source: source, Manifest: manifest, Files: files, CreatedAt: time.Now().UTC()}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encoding meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "meta.json"), metaBytes, 0o644); err != nil {
		return fmt.Errorf("store: writing meta: %w", err)
	}

	if err := fsutil.SyncTree(tmpDir); err != nil {
		return fmt.Errorf("store: syncing staged tree: %w", err)
	}

	// The final directory was created above as a placeholder for the lock
	// file's sibling path; remove it so rename can take an empty target.
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: clearing placeholder %s: %w", dir, err)
	}
	if err := os.Rename(tmpDir, dir); err != nil {
		return fmt.Errorf("store: renaming into place %s: %w", dir, err)
	}
	if err := fsutil.SyncParent(dir); err != nil {
		return fmt.Errorf("store: syncing parent of %s: %w", dir, err)
	}

	storeLog.Printf("populated %s (%d files)", d, len(files))
	return nil
}

// Verify re-hashes the payload stored under d and compares it against d
// itself, catching bitrot or out-of-band tampering (spec §4.3
// "Verification").
func (s *Store) Verify(d digest.Digest) error {
	got, err := digest.Tree(s.PayloadPath(d))
	if err != nil {
		return fmt.Errorf("store: verifying %s: %w", d, err)
	}
	if got != d {
		return fmt.Errorf("%s", digest.FormatMismatch(string(d), d, got))
	}
	return nil
}

// LoadMeta reads back the sidecar record for d.
func (s *Store) LoadMeta(d digest.Digest) (*Meta, error) {
	raw, err := os.ReadFile(s.metaPath(d))
	if err != nil {
		return nil, fmt.Errorf("store: reading meta for %s: %w", d, err)
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("store: decoding meta for %s: %w", d, err)
	}
	return &m, nil
}

// PruneReport summarizes a Prune call (SPEC_FULL.md §4.3.1).
type PruneReport struct {
	RemovedDigests []digest.Digest
	ReclaimedBytes int64
}

// Prune removes every populated entry whose digest is not in keep, and any
// abandoned .tmp-* staging directories left behind by a populator that
// crashed mid-Put (those are never referenced by a lockfile and are always
// safe to delete).
func (s *Store) Prune(keep map[digest.Digest]bool) (*PruneReport, error) {
	report := &PruneReport{}

	algDirs, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return nil, fmt.Errorf("store: reading root: %w", err)
	}

	for _, algEntry := range algDirs {
		if !algEntry.IsDir() || algEntry.Name() == "locks" {
			continue
		}
		algDir := filepath.Join(s.root, algEntry.Name())
		entries, err := os.ReadDir(algDir)
		if err != nil {
			return nil, fmt.Errorf("store: reading %s: %w", algDir, err)
		}

		for _, entry := range entries {
			name := entry.Name()
			path := filepath.Join(algDir, name)

			if strings.Contains(name, ".tmp-") {
				size, _ := dirSize(path)
				if err := os.RemoveAll(path); err != nil {
					return nil, fmt.Errorf("store: removing stale staging dir %s: %w", path, err)
				}
				report.ReclaimedBytes += size
				continue
			}

			d := digest.Digest(algEntry.Name() + ":" + name)
			if keep[d] {
				continue
			}
			size, _ := dirSize(path)
			if err := os.RemoveAll(path); err != nil {
				return nil, fmt.Errorf("store: removing %s: %w", path, err)
			}
			report.RemovedDigests = append(report.RemovedDigests, d)
			report.ReclaimedBytes += size
		}
	}

	storeLog.Printf("pruned %d entries, reclaimed %d bytes", len(report.RemovedDigests), report.ReclaimedBytes)
	return report, nil
}

func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
