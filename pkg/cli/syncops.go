package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/botpack/botpack/pkg/assets"
	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/catalog"
	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/lockfile"
	"github.com/botpack/botpack/pkg/manifest"
	"github.com/botpack/botpack/pkg/mcpmerge"
	"github.com/botpack/botpack/pkg/sync"
	"github.com/botpack/botpack/pkg/trust"
	"github.com/botpack/botpack/pkg/tty"
	"github.com/botpack/botpack/pkg/vstore"
)

// splitNameVersion recovers a lockfile/vstore "name@version" key's bare
// package name. Scoped names (e.g. "@acme/quality-skills") may themselves
// contain "@", but a version string never does, so the *last* "@" is the
// separator.
func splitNameVersion(id string) (name, version string) {
	i := strings.LastIndex(id, "@")
	if i <= 0 {
		return id, ""
	}
	return id[:i], id[i+1:]
}

// scanWorkspace gathers every recognized asset from the workspace's own
// assets directory plus every resolved package in the lockfile (spec §4.6).
func scanWorkspace(ctx *Context, lf *lockfile.Lockfile) ([]assets.Asset, error) {
	dir := "."
	if ctx.Project != nil && ctx.Project.Workspace.Dir != "" {
		dir = ctx.Project.Workspace.Dir
	}
	roots := []assets.Root{{Dir: filepath.Join(ctx.Root, dir), Source: assets.SourceWorkspace}}

	if lf != nil {
		ids := make([]string, 0, len(lf.Packages))
		for id := range lf.Packages {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			name, _ := splitNameVersion(id)
			roots = append(roots, assets.Root{
				Dir:           ctx.VStore.EntryPath(id),
				Source:        assets.SourcePackage,
				OwningPackage: name,
			})
		}
	}

	list, err := assets.Scan(roots)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		if err := assets.Validate(a); err != nil {
			return nil, boterrors.New(boterrors.KindParse, a.ID, err)
		}
	}
	return list, nil
}

// packageCapabilities reads each resolved package's declared capability
// list straight off the lockfile (already projected there by the resolver).
func packageCapabilities(lf *lockfile.Lockfile) catalog.PackageCapabilities {
	caps := catalog.PackageCapabilities{}
	for id, pkg := range lf.Packages {
		name, _ := splitNameVersion(id)
		caps[name] = pkg.Capabilities
	}
	return caps
}

// syncTarget plans and applies sync for one named target, gating MCP
// servers through the trust file and writing the catalog afterward when
// the project's sync policy asks for one.
func syncTarget(ctx *Context, targetName string, lf *lockfile.Lockfile, flags sync.Flags) (*sync.State, []sync.CapabilitySkip, error) {
	target, err := resolveTarget(ctx, targetName)
	if err != nil {
		return nil, nil, err
	}

	assetList, err := scanWorkspace(ctx, lf)
	if err != nil {
		return nil, nil, err
	}

	tf, err := manifest.LoadTrustFile(ctx.TrustPath())
	if err != nil {
		return nil, nil, err
	}

	var serverAssets []assets.Asset
	for _, a := range assetList {
		if a.Type == assets.TypeMCPServer {
			serverAssets = append(serverAssets, a)
		}
	}

	pkgVersions := mcpmerge.PackageVersions{}
	if lf != nil {
		for id := range lf.Packages {
			name, _ := splitNameVersion(id)
			pkgVersions[name] = id
		}
	}

	interactive := tty.IsStdoutTerminal()
	mcpResult, err := mcpmerge.Merge(serverAssets, pkgVersions, tf, interactive, trust.Confirmer(console.ConfirmAction))
	if err != nil {
		return nil, nil, err
	}
	if err := tf.Save(ctx.TrustPath()); err != nil {
		return nil, nil, err
	}

	linkMode := vstore.LinkAuto
	if ctx.Project != nil && ctx.Project.Sync.LinkMode != "" {
		linkMode = vstore.LinkMode(ctx.Project.Sync.LinkMode)
	}

	aliases, hidden := aliasesForTarget(ctx)

	ops, skips, err := sync.Plan(target, assetList, aliases, hidden, mcpResult, linkMode)
	if err != nil {
		return nil, nil, err
	}

	previous, err := sync.LoadState(ctx.Root, targetName)
	if err != nil {
		return nil, nil, err
	}

	if !flags.Force && !flags.DryRun {
		conflicts, err := sync.DetectDrift(ctx.Root, previous)
		if err != nil {
			return nil, nil, err
		}
		if len(conflicts) > 0 {
			paths := make([]string, len(conflicts))
			for i, c := range conflicts {
				paths[i] = c.Path
			}
			return nil, nil, boterrors.New(boterrors.KindSync, targetName,
				fmt.Errorf("%d path(s) modified since last sync: %s", len(conflicts), strings.Join(paths, ", "))).
				WithHint("re-run with --force to overwrite, or --clean to also remove stale paths")
		}
	}

	if flags.Clean {
		ops = sync.Clean(ops, previous)
	}

	if flags.DryRun {
		planned := &sync.State{}
		for _, op := range ops {
			planned.Entries = append(planned.Entries, sync.Entry{Path: op.Dst, SourceAddress: op.SourceAddress})
		}
		return planned, skips, nil
	}

	state, err := sync.Apply(ctx.Root, toolVersion, target, ops, configHash(ctx))
	if err != nil {
		return nil, nil, err
	}

	if ctx.Project == nil || ctx.Project.Sync.Catalog {
		c := catalog.Build(assetList, packageCapabilities(lf))
		data, err := c.Marshal()
		if err != nil {
			return nil, nil, err
		}
		if err := os.WriteFile(ctx.CatalogPath(), data, 0o644); err != nil {
			return nil, nil, boterrors.New(boterrors.KindGeneric, ctx.CatalogPath(), err)
		}
	}

	return state, skips, nil
}

// resolveTarget produces a sync.Target for targetName: one of the three
// built-ins, optionally overridden by a matching [targets.<name>] manifest
// table, or built entirely from the manifest table for a user-defined
// target name (SPEC_FULL.md §4.7 "Unknown targets are user-extensible").
func resolveTarget(ctx *Context, targetName string) (sync.Target, error) {
	target, isBuiltin := sync.BuiltinTargets[targetName]
	target.Name = targetName

	var cfg manifest.TargetConfig
	var hasCfg bool
	if ctx.Project != nil {
		cfg, hasCfg = ctx.Project.Targets[targetName]
	}
	if !isBuiltin && !hasCfg {
		return sync.Target{}, boterrors.New(boterrors.KindSync, targetName,
			fmt.Errorf("unknown target: no built-in profile and no [targets.%s] in the manifest", targetName))
	}
	if !hasCfg {
		return target, nil
	}

	if cfg.Root != "" {
		target.Root = cfg.Root
	}
	if cfg.Skills != "" {
		target.SkillsDir = cfg.Skills
	}
	if cfg.Commands != "" {
		target.CommandsDir = cfg.Commands
	}
	if cfg.Agents != "" {
		target.AgentsDir = cfg.Agents
	}
	if cfg.MCPOut != "" {
		target.MCPOut = cfg.MCPOut
	}
	return target, nil
}

// aliasesForTarget flattens the manifest's per-type alias tables into the
// flat address->name / address->hidden maps sync.Plan expects. An alias
// value of the literal string "-" hides the asset instead of renaming it.
func aliasesForTarget(ctx *Context) (map[string]string, map[string]bool) {
	aliases := map[string]string{}
	hidden := map[string]bool{}
	if ctx.Project == nil {
		return aliases, hidden
	}
	apply := func(typ assets.Type, table map[string]string) {
		for id, to := range table {
			addr := fmt.Sprintf("%s:workspace:%s", typ, id)
			if to == "-" {
				hidden[addr] = true
				continue
			}
			aliases[addr] = to
		}
	}
	apply(assets.TypeSkill, ctx.Project.Aliases.Skills)
	apply(assets.TypeCommand, ctx.Project.Aliases.Commands)
	apply(assets.TypeAgent, ctx.Project.Aliases.Agents)
	return aliases, hidden
}

// configHash stamps the sync state with a short hash of the project
// manifest's targets/aliases/sync-policy configuration, so a future
// `sync --check` style command can tell "config changed" apart from
// "filesystem drifted" without re-planning.
func configHash(ctx *Context) string {
	if ctx.Project == nil {
		return ""
	}
	h := sha256.New()
	fmt.Fprintf(h, "%+v", ctx.Project.Targets)
	fmt.Fprintf(h, "%+v", ctx.Project.Aliases)
	fmt.Fprintf(h, "%+v", ctx.Project.Sync)
	return hex.EncodeToString(h.Sum(nil))
}
