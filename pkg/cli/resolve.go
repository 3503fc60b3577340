package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/constants"
	"github.com/botpack/botpack/pkg/lockfile"
	"github.com/botpack/botpack/pkg/registryclient"
	"github.com/botpack/botpack/pkg/resolver"
	"github.com/botpack/botpack/pkg/vstore"
)

// toolVersion is stamped into every lockfile this build writes (spec §3
// "Lockfile" toolVersion field). Overridden at link time in a release
// build; "dev" otherwise.
var toolVersion = "dev"

// resolveAndInstall runs the resolver over the project's direct
// dependencies, populates the global store and this workspace's virtual
// store for every resolved package, and writes the lockfile (spec §4.1 +
// §4.3 + §4.4). frozen enforces --frozen-lockfile against any existing
// lockfile; offline serves registry index lookups from cache only; fresh
// forces full re-resolution instead of reusing the existing lockfile's
// pins (what `update` needs — see resolver.Resolver.ExistingLockfile).
func resolveAndInstall(ctx *Context, frozen, offline, fresh bool) (*lockfile.Lockfile, error) {
	if ctx.Project == nil {
		return nil, boterrors.New(boterrors.KindGeneric, ctx.ManifestPath(), fmt.Errorf("no project manifest"))
	}

	var existing *lockfile.Lockfile
	if data, err := os.ReadFile(ctx.LockfilePath()); err == nil {
		existing, err = lockfile.Parse(data)
		if err != nil {
			return nil, err
		}
	} else if frozen {
		return nil, boterrors.New(boterrors.KindResolution, ctx.LockfilePath(),
			fmt.Errorf("--frozen-lockfile requires an existing lockfile"))
	}

	registryURL := os.Getenv(constants.EnvRegistryURL)
	cacheDir := filepath.Join(ctx.StateDir(), "registry-cache")
	reg := registryclient.New(registryURL, cacheDir, offline)

	scratchDir := filepath.Join(ctx.StateDir(), "scratch")
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, boterrors.New(boterrors.KindGeneric, scratchDir, err)
	}
	defer os.RemoveAll(scratchDir)

	r := resolver.New(reg, scratchDir)
	r.FrozenLockfile = frozen
	if !fresh {
		r.ExistingLockfile = existing
	}

	resolved, err := r.Resolve(context.Background(), ctx.Project.Dependencies, ctx.Root)
	if err != nil {
		return nil, err
	}

	for id, pkg := range resolved {
		if pkg.TreeDir == "" {
			// Reused from the existing lockfile: its content was never
			// re-fetched this run, so it must already be in the store.
			if !ctx.Store.Has(pkg.Digest) {
				return nil, boterrors.New(boterrors.KindStore, id,
					fmt.Errorf("reused from the existing lockfile but missing from the store")).
					WithHint("run `botpack update` to re-fetch it")
			}
		} else {
			sourceJSON, err := json.Marshal(pkg.Source)
			if err != nil {
				return nil, boterrors.New(boterrors.KindGeneric, id, err)
			}
			if err := ctx.Store.Put(pkg.Digest, pkg.TreeDir, sourceJSON, nil); err != nil {
				return nil, err
			}
		}
		payload := ctx.Store.PayloadPath(pkg.Digest)
		if err := ctx.VStore.Link(id, payload, vstore.LinkMode(ctx.Project.Sync.LinkMode)); err != nil {
			return nil, err
		}
	}

	manifestVersion := fmt.Sprintf("%d", ctx.Project.Version)
	lf := resolver.ToLockfile(toolVersion, manifestVersion, ctx.Project.Dependencies, resolved)
	data, err := lockfile.Marshal(lf)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(ctx.LockfilePath(), data, 0o644); err != nil {
		return nil, boterrors.New(boterrors.KindGeneric, ctx.LockfilePath(), err)
	}
	return lf, nil
}
