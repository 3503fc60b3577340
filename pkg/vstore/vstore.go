// Package vstore implements the per-workspace virtual store (spec §4.4): a
// directory of stable pointers, one per resolved package, into the global
// store's payloads. Replacement of an existing pointer is atomic (stage
// adjacent, swap via rename).
//
// Grounded on pnpm's node_modules/.pnpm virtual store model named in spec §2
// prior art; the link-mode fallback chain mirrors gh-aw's own
// defensive-fallback style (try the preferred mechanism, degrade on
// platform failure) seen in its download/extract helpers, generalized from
// "retry download" to "retry link type".
package vstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/otiai10/copy"

	"github.com/botpack/botpack/pkg/logger"
)

var vstoreLog = logger.New("vstore")

// LinkMode selects how a virtual store entry is materialized from its store
// payload.
type LinkMode string

const (
	LinkAuto     LinkMode = "auto"
	LinkSymlink  LinkMode = "symlink"
	LinkHardlink LinkMode = "hardlink"
	LinkCopy     LinkMode = "copy"
)

// Store manages the virtual store rooted at <workspace>/.botpack/pkgs.
type Store struct {
	root string
}

// New returns a virtual store rooted at root (typically
// "<workspace>/.botpack/pkgs").
func New(root string) *Store {
	return &Store{root: root}
}

// EntryPath returns the path of the virtual store entry for a resolved
// package identified as "<name>@<version>". A scoped name's slash (e.g.
// "@acme/mcp-pack@0.3.0") is flattened to a single path segment so the
// entry is never split across directories that the scanner would then have
// to walk back together.
func (s *Store) EntryPath(nameAtVersion string) string {
	return filepath.Join(s.root, strings.ReplaceAll(nameAtVersion, "/", "+"))
}

// Link materializes the virtual store entry for nameAtVersion, pointing at
// payloadDir (a store payload directory), using mode. LinkAuto tries
// symlink, then hardlink (per regular file; directories always fall
// through), then recursive copy, and only fails if every mechanism does.
// An explicit mode other than LinkAuto is fatal on failure rather than
// falling back (spec §4.4).
func (s *Store) Link(nameAtVersion, payloadDir string, mode LinkMode) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("vstore: creating root: %w", err)
	}

	dst := s.EntryPath(nameAtVersion)
	staged := dst + ".tmp-" + uuid.NewString()
	defer os.RemoveAll(staged)

	var linkErr error
	switch mode {
	case LinkSymlink:
		linkErr = os.Symlink(payloadDir, staged)
	case LinkHardlink:
		linkErr = hardlinkTree(payloadDir, staged)
	case LinkCopy:
		linkErr = copy.Copy(payloadDir, staged)
	case LinkAuto, "":
		linkErr = os.Symlink(payloadDir, staged)
		if linkErr != nil {
			vstoreLog.Printf("%s: symlink failed (%v), falling back to hardlink", nameAtVersion, linkErr)
			os.RemoveAll(staged)
			linkErr = hardlinkTree(payloadDir, staged)
		}
		if linkErr != nil {
			vstoreLog.Printf("%s: hardlink failed (%v), falling back to copy", nameAtVersion, linkErr)
			os.RemoveAll(staged)
			linkErr = copy.Copy(payloadDir, staged)
		}
	default:
		return fmt.Errorf("vstore: unknown link mode %q", mode)
	}
	if linkErr != nil {
		return fmt.Errorf("vstore: linking %s (mode=%s): %w", nameAtVersion, mode, linkErr)
	}

	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("vstore: clearing previous entry for %s: %w", nameAtVersion, err)
	}
	if err := os.Rename(staged, dst); err != nil {
		return fmt.Errorf("vstore: swapping in %s: %w", nameAtVersion, err)
	}
	return nil
}

// Remove deletes the virtual store entry for nameAtVersion, if present.
func (s *Store) Remove(nameAtVersion string) error {
	return os.RemoveAll(s.EntryPath(nameAtVersion))
}

// hardlinkTree recreates src's directory structure at dst, hardlinking
// every regular file and recreating symlinks as symlinks (symlinks and
// directories cannot be hardlinked on any supported platform, so they are
// the one part of this mode that still falls through to a plain copy of
// the link/dir itself).
func hardlinkTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return os.MkdirAll(target, 0o755)
		case info.Mode()&os.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linkTarget, target)
		default:
			return os.Link(path, target)
		}
	})
}
