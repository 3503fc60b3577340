package sync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/otiai10/copy"

	"github.com/botpack/botpack/pkg/logger"
	"github.com/botpack/botpack/pkg/vstore"
)

var syncLog = logger.New("sync:apply")

// materializeLink creates dst pointing at src using mode, with the same
// symlink→hardlink→copy fallback chain as vstore.Store.Link (grounded on
// the same file) — duplicated rather than reused because vstore's Link is
// keyed to a "name@version" entry path under its own root, not an arbitrary
// dst inside a staged target tree.
func materializeLink(src, dst string, mode vstore.LinkMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("sync: creating parent of %s: %w", dst, err)
	}

	staged := dst + ".tmp-" + uuid.NewString()
	defer os.RemoveAll(staged)

	var linkErr error
	switch mode {
	case vstore.LinkSymlink:
		linkErr = os.Symlink(src, staged)
	case vstore.LinkHardlink:
		linkErr = hardlinkOrCopy(src, staged)
	case vstore.LinkCopy:
		linkErr = copy.Copy(src, staged)
	case vstore.LinkAuto, "":
		linkErr = os.Symlink(src, staged)
		if linkErr != nil {
			syncLog.Printf("%s: symlink failed (%v), falling back to hardlink", dst, linkErr)
			os.RemoveAll(staged)
			linkErr = hardlinkOrCopy(src, staged)
		}
		if linkErr != nil {
			syncLog.Printf("%s: hardlink failed (%v), falling back to copy", dst, linkErr)
			os.RemoveAll(staged)
			linkErr = copy.Copy(src, staged)
		}
	default:
		return fmt.Errorf("sync: unknown link mode %q", mode)
	}
	if linkErr != nil {
		return fmt.Errorf("sync: linking %s (mode=%s): %w", dst, mode, linkErr)
	}
	return os.Rename(staged, dst)
}

// hardlinkOrCopy hardlinks a regular file, or recreates a directory
// structure with each regular file hardlinked (mirroring
// vstore.hardlinkTree's rationale: symlinks/dirs can't be hardlinked).
func hardlinkOrCopy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return os.Link(src, dst)
	}
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
