// Package workspace resolves the workspace root (spec §3 "Workspace root")
// and guards it with a per-workspace advisory lock (spec §5 "Shared mutable
// state": the virtual store and sync state are per-workspace and protected
// by the workspace lock).
//
// Grounded on pkg/store's per-digest flock discipline, generalized from a
// per-digest lock to a single root-level lock, and on gh-aw's cli package
// for the pattern of resolving a root directory from flag, env var, and
// directory search in that order.
package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/constants"
	"github.com/botpack/botpack/pkg/logger"
)

var wsLog = logger.New("workspace")

// DefaultLockTimeout bounds how long Lock polls a contended workspace lock
// before giving up (spec §5 "up to a configurable timeout").
const DefaultLockTimeout = 10 * time.Second

const lockPollInterval = 50 * time.Millisecond

// Options controls root resolution precedence (spec §3: "explicit flag >
// named global profile > environment variable > parent search for the
// manifest filename > current directory").
type Options struct {
	// RootFlag is the --root flag value, if the user passed one.
	RootFlag string
	// Profile is the --profile name to resolve via --global, if set.
	Profile string
	// Global selects the named global profile instead of a project-local root.
	Global bool
	// StartDir is where parent search begins; defaults to the process's cwd.
	StartDir string
}

// Resolve implements the workspace root resolution precedence. It never
// requires the manifest to exist (callers like `botpack init` resolve a root
// before the manifest is written), but parent search only succeeds where
// constants.ManifestFilename is actually found.
func Resolve(opts Options) (string, error) {
	if opts.RootFlag != "" {
		abs, err := filepath.Abs(opts.RootFlag)
		if err != nil {
			return "", boterrors.New(boterrors.KindGeneric, opts.RootFlag, err)
		}
		return abs, nil
	}

	if opts.Global {
		root, err := resolveGlobalProfile(opts.Profile)
		if err != nil {
			return "", err
		}
		return root, nil
	}

	if env := os.Getenv(constants.EnvRoot); env != "" {
		abs, err := filepath.Abs(env)
		if err != nil {
			return "", boterrors.New(boterrors.KindGeneric, env, err)
		}
		return abs, nil
	}

	start := opts.StartDir
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", boterrors.New(boterrors.KindGeneric, "cwd", err)
		}
		start = cwd
	}

	if found, ok := searchParents(start); ok {
		return found, nil
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", boterrors.New(boterrors.KindGeneric, start, err)
	}
	return abs, nil
}

// searchParents walks up from dir looking for constants.ManifestFilename,
// stopping at the filesystem root.
func searchParents(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, constants.ManifestFilename)
		if _, err := os.Stat(candidate); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// profilesFile returns the path to the global profile registry, typically
// under the user's config directory (e.g. ~/.config/botpack/profiles.json
// on Linux).
func profilesFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", boterrors.New(boterrors.KindGeneric, "user config dir", err)
	}
	return filepath.Join(dir, constants.CLIName, "profiles.json"), nil
}

func resolveGlobalProfile(name string) (string, error) {
	profiles, err := LoadProfiles()
	if err != nil {
		return "", err
	}
	root, ok := profiles[name]
	if !ok {
		return "", boterrors.New(boterrors.KindGeneric, name,
			errors.New("no such global profile; register one with `botpack init --global --profile`"))
	}
	return root, nil
}

// Lock acquires the workspace-level advisory lock at
// <root>/.botpack/.lock, polling up to timeout (spec §5's "blocks... up to a
// configurable timeout" contract, mirroring pkg/store's per-digest lock but
// scoped to the whole workspace). The returned release func must be called
// to unlock.
func Lock(ctx context.Context, root string, timeout time.Duration) (release func() error, err error) {
	stateDir := filepath.Join(root, constants.StateDirName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, boterrors.New(boterrors.KindGeneric, stateDir, err)
	}
	lockPath := filepath.Join(stateDir, ".lock")

	lock := flock.New(lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockPollInterval)
	if err != nil || !locked {
		return nil, boterrors.New(boterrors.KindGeneric, lockPath,
			errors.New("timed out waiting for workspace lock")).
			WithHint("another botpack process may be running against this workspace")
	}

	wsLog.Printf("acquired workspace lock at %s", lockPath)
	return func() error {
		wsLog.Printf("releasing workspace lock at %s", lockPath)
		return lock.Unlock()
	}, nil
}
