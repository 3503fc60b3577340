package sync

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/botpack/botpack/pkg/boterrors"
)

// Watch re-invokes onChange whenever a filesystem event occurs under any of
// watchDirs (typically the workspace assets directory and the virtual
// store), per spec §4.7 "--watch: re-plans on filesystem events". It blocks
// until ctx is canceled.
func Watch(ctx context.Context, watchDirs []string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return boterrors.New(boterrors.KindSync, "watch", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs {
		if err := addRecursive(watcher, dir); err != nil {
			return boterrors.New(boterrors.KindSync, dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				if event.Op&fsnotify.Create != 0 {
					// A new directory may itself need watching (e.g. a
					// freshly-added skill folder).
					_ = addRecursive(watcher, event.Name)
				}
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			syncLog.Printf("watch error: %v", err)
		}
	}
}

// addRecursive registers every directory under root with watcher. fsnotify
// watches are not recursive on any platform, so each directory needs its
// own Add call. A missing root (e.g. a target's fresh workspace before the
// first install) is not an error — there's simply nothing to watch yet.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
