// Package cli wires botpack's library packages into the cobra commands
// the CLI exposes, following the teacher's pkg/cli convention of one
// NewXCommand factory per command plus a shared context loaded once per
// invocation (spec §6 "External interfaces").
package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/constants"
	"github.com/botpack/botpack/pkg/manifest"
	"github.com/botpack/botpack/pkg/store"
	"github.com/botpack/botpack/pkg/vstore"
	"github.com/botpack/botpack/pkg/workspace"
)

// Context bundles everything a command needs once the workspace root has
// been resolved: the parsed project manifest (nil if none exists yet, e.g.
// before `init`), and handles onto the global store and this workspace's
// virtual store.
type Context struct {
	Root    string
	Project *manifest.Project // nil if botpack.toml does not exist yet
	Store   *store.Store
	VStore  *vstore.Store

	unlock func() error
}

// Close releases the workspace lock LoadContext acquired. Every command that
// calls LoadContext must defer Close once it checks the error.
func (c *Context) Close() error {
	if c.unlock == nil {
		return nil
	}
	return c.unlock()
}

// ManifestPath returns the path to this workspace's project manifest.
func (c *Context) ManifestPath() string {
	return filepath.Join(c.Root, constants.ManifestFilename)
}

// LockfilePath returns the path to this workspace's lockfile.
func (c *Context) LockfilePath() string {
	return filepath.Join(c.Root, constants.LockfileFilename)
}

// StateDir returns this workspace's generated-state directory (.botpack).
func (c *Context) StateDir() string {
	return filepath.Join(c.Root, constants.StateDirName)
}

// TrustPath returns the path to this workspace's trust file.
func (c *Context) TrustPath() string {
	return filepath.Join(c.StateDir(), constants.TrustFilename)
}

// CatalogPath returns the path to this workspace's catalog.json.
func (c *Context) CatalogPath() string {
	return filepath.Join(c.StateDir(), "catalog.json")
}

// LoadContext resolves the workspace root per spec §3's precedence and
// loads the project manifest if one exists. requireManifest controls
// whether a missing manifest is an error (every command but `init`
// requires one).
func LoadContext(requireManifest bool) (*Context, error) {
	root, err := workspace.Resolve(workspace.Options{
		RootFlag: rootFlag,
		Profile:  profileFlag,
		Global:   globalFlag,
	})
	if err != nil {
		return nil, err
	}

	// Serialize every workspace-level operation (spec §5: "a single
	// workspace-level operation at a time per workspace") before anything
	// touches the lockfile, store, or sync state below.
	unlock, err := workspace.Lock(context.Background(), root, workspace.DefaultLockTimeout)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Root:   root,
		Store:  store.New(storeRoot()),
		VStore: vstore.New(filepath.Join(root, constants.StateDirName, "pkgs")),
		unlock: unlock,
	}

	manifestPath := filepath.Join(root, constants.ManifestFilename)
	if _, statErr := os.Stat(manifestPath); os.IsNotExist(statErr) {
		if requireManifest {
			ctx.Close()
			return nil, boterrors.New(boterrors.KindGeneric, manifestPath, statErr).
				WithHint("run `botpack init` first")
		}
		return ctx, nil
	}

	project, err := manifest.LoadProject(manifestPath)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	ctx.Project = project
	return ctx, nil
}

// storeRoot resolves the global store root: BOTPACK_STORE, else a
// platform cache-dir default (spec §3 "Store" path: "overridable by
// environment variable").
func storeRoot() string {
	if v := os.Getenv(constants.EnvStore); v != "" {
		return v
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), constants.CLIName, "store")
	}
	return filepath.Join(cacheDir, constants.CLIName, "store")
}
