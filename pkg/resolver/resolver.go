// Package resolver implements the BFS dependency resolution algorithm (spec
// §4.1): direct dependencies plus registry/git/path metadata become a
// pinned graph closed under the dependencies relation, with lockfile reuse
// and coexistence of multiple versions of the same package name.
//
// Grounded on gh-aw's own namespaced-logging convention for tracing
// multi-step algorithms (`DEBUG=resolver:*`), and on Masterminds/semver's
// documented Constraints.Check API for range satisfaction — the only semver
// library anywhere in the pack.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/constants"
	"github.com/botpack/botpack/pkg/digest"
	"github.com/botpack/botpack/pkg/fetch"
	"github.com/botpack/botpack/pkg/gitutil"
	"github.com/botpack/botpack/pkg/httputil"
	"github.com/botpack/botpack/pkg/lockfile"
	"github.com/botpack/botpack/pkg/logger"
	"github.com/botpack/botpack/pkg/manifest"
	"github.com/botpack/botpack/pkg/registryclient"
)

var resolveLog = logger.New("resolver:resolve")

// ResolvedPackage is the in-memory counterpart of a lockfile.Package, plus
// the scratch directory its content was fetched into (so a caller can feed
// it straight to the store without re-fetching).
type ResolvedPackage struct {
	Name         string
	Version      string
	Source       lockfile.Source
	Resolved     *lockfile.Resolved
	Digest       digest.Digest
	Capabilities []string
	Dependencies map[string]string
	TreeDir      string // scratch directory holding the normalized, fetched tree; empty when reused from the existing lockfile (spec §4.1 "Lockfile reuse") without a fresh fetch

	// subSpecs carries the raw dependency specs declared by this package's
	// own manifest, for the BFS to enqueue; Dependencies (above) is filled
	// in afterwards, once each subSpec has actually been resolved to a
	// version (it mirrors the lockfile's flat name→version shape).
	subSpecs map[string]manifest.DependencySpec
}

// ID returns the "name@version" key used throughout the lockfile and store.
func (p *ResolvedPackage) ID() string { return p.Name + "@" + p.Version }

// Registry is the subset of registryclient.Client the resolver needs,
// narrowed to an interface so tests can stub it without an HTTP server.
type Registry interface {
	Versions(ctx context.Context, name string) (*registryclient.Index, error)
}

var _ Registry = (*registryclient.Client)(nil)

// Resolver carries everything needed to turn dependency specs into
// resolved, fetched packages.
type Resolver struct {
	Registry Registry
	ScratchDir string // root under which per-package fetch scratch dirs are created

	// FrozenLockfile, when set, means any would-be change relative to
	// ExistingLockfile is a *resolution* error (spec §4.1 "Lockfile
	// reuse"). When unset, ExistingLockfile instead seeds reuse: a direct
	// dependency whose pin still satisfies its current spec, and that
	// pin's whole subgraph, is taken from it without touching the
	// registry. Leave ExistingLockfile nil to force full re-resolution
	// (what `update` does).
	FrozenLockfile   bool
	ExistingLockfile *lockfile.Lockfile

	httpClient *httputil.Client
}

func (r *Resolver) http() *httputil.Client {
	if r.httpClient == nil {
		r.httpClient = httputil.NewClient(nil)
	}
	return r.httpClient
}

// New returns a Resolver using the given registry client and a scratch
// directory for fetch staging.
func New(reg Registry, scratchDir string) *Resolver {
	return &Resolver{Registry: reg, ScratchDir: scratchDir}
}

// Resolve runs the BFS algorithm from rootDeps (typically the project
// manifest's [dependencies] table) and returns every resolved package,
// keyed by "name@version".
//
// Lockfile reuse (spec §4.1): when the caller isn't frozen and supplies an
// ExistingLockfile, a direct registry-sourced dependency whose current
// range is still satisfied by its previously-pinned version is reused
// as-is — its own subgraph is pulled straight out of the existing lockfile
// too, with no registry query or fetch for any of it. Only specs that
// changed, or were never pinned, hit the registry. `update` gets full
// re-resolution simply by calling Resolve with ExistingLockfile unset.
func (r *Resolver) Resolve(ctx context.Context, rootDeps map[string]manifest.DependencySpec, rootDir string) (map[string]*ResolvedPackage, error) {
	type work struct {
		name     string
		spec     manifest.DependencySpec
		baseDir  string
		parentID string // "" for a root (direct) dependency
		reuseID  string // set for a child pulled from an already-reused package's recorded dependencies
	}

	visited := map[string]*ResolvedPackage{}
	queue := make([]work, 0, len(rootDeps))

	names := make([]string, 0, len(rootDeps))
	for name := range rootDeps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		queue = append(queue, work{name: name, spec: rootDeps[name], baseDir: rootDir})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		var resolved *ResolvedPackage
		var err error

		switch {
		case item.reuseID != "":
			resolved = r.reusePin(item.reuseID)
		case item.parentID == "" && !r.FrozenLockfile && r.ExistingLockfile != nil && item.spec.Kind() == manifest.DependencySemver:
			if id, ok := r.matchExistingPin(item.name, item.spec.Semver); ok {
				resolveLog.Printf("reusing %s from existing lockfile (still satisfies %q)", id, item.spec.Semver)
				resolved = r.reusePin(id)
			}
		}

		if resolved == nil {
			resolveLog.Printf("resolving %s (%s)", item.name, item.spec.Kind())
			resolved, err = r.resolveOne(ctx, item.name, item.spec, item.baseDir)
			if err != nil {
				return nil, err
			}
		}

		id := resolved.ID()
		if existing, ok := visited[id]; ok {
			if existing.Digest != resolved.Digest {
				return nil, boterrors.New(boterrors.KindResolution, id,
					fmt.Errorf("resolved to two different contents: %s and %s", existing.Digest, resolved.Digest))
			}
		} else {
			visited[id] = resolved

			if r.FrozenLockfile && r.ExistingLockfile != nil {
				if _, ok := r.ExistingLockfile.Packages[id]; !ok {
					return nil, boterrors.New(boterrors.KindResolution, id,
						fmt.Errorf("--frozen-lockfile: %s is not present in the existing lockfile", id))
				}
			}

			if resolved.TreeDir == "" {
				// Reused: its children are already-resolved "name@version"
				// pairs recorded in the existing lockfile, not specs to
				// re-query against the registry.
				subNames := make([]string, 0, len(resolved.Dependencies))
				for subName := range resolved.Dependencies {
					subNames = append(subNames, subName)
				}
				sort.Strings(subNames)
				for _, subName := range subNames {
					queue = append(queue, work{
						name:     subName,
						parentID: id,
						reuseID:  subName + "@" + resolved.Dependencies[subName],
					})
				}
			} else {
				subNames := make([]string, 0, len(resolved.subSpecs))
				for subName := range resolved.subSpecs {
					subNames = append(subNames, subName)
				}
				sort.Strings(subNames)
				for _, subName := range subNames {
					queue = append(queue, work{
						name:     subName,
						spec:     resolved.subSpecs[subName],
						baseDir:  resolved.TreeDir,
						parentID: id,
					})
				}
			}
		}

		if item.parentID != "" {
			if visited[item.parentID].Dependencies == nil {
				visited[item.parentID].Dependencies = map[string]string{}
			}
			visited[item.parentID].Dependencies[item.name] = resolved.Version
		}
	}

	return visited, nil
}

// splitID recovers a lockfile/store key's bare package name. Scoped names
// (e.g. "@acme/quality-skills") may themselves contain "@", but a version
// string never does, so the *last* "@" is the separator.
func splitID(id string) (name, version string) {
	i := strings.LastIndex(id, "@")
	if i <= 0 {
		return id, ""
	}
	return id[:i], id[i+1:]
}

// matchExistingPin looks for exactly one registry-sourced package in
// r.ExistingLockfile already pinned under name whose version still
// satisfies rng. Ambiguity (more than one coexisting version of name
// satisfies rng, which only arises from an unrelated transitive diamond)
// is resolved by falling through to a fresh resolution rather than
// guessing.
func (r *Resolver) matchExistingPin(name, rng string) (string, bool) {
	constraint, err := semver.NewConstraint(rng)
	if err != nil {
		return "", false
	}

	var match string
	for id, pkg := range r.ExistingLockfile.Packages {
		pname, pver := splitID(id)
		if pname != name || pkg.Source.Kind != "registry" {
			continue
		}
		v, err := semver.NewVersion(pver)
		if err != nil || !constraint.Check(v) {
			continue
		}
		if match != "" {
			return "", false
		}
		match = id
	}
	return match, match != ""
}

// reusePin rebuilds a ResolvedPackage straight from an existing lockfile
// entry, with no fetch. TreeDir is left empty, which is how the caller
// (both Resolve's own BFS and pkg/cli's store population) recognizes that
// nothing was freshly fetched for it.
func (r *Resolver) reusePin(id string) *ResolvedPackage {
	pkg := r.ExistingLockfile.Packages[id]
	name, version := splitID(id)
	return &ResolvedPackage{
		Name:         name,
		Version:      version,
		Source:       pkg.Source,
		Resolved:     pkg.Resolved,
		Digest:       digest.Digest(pkg.Integrity),
		Capabilities: pkg.Capabilities,
		Dependencies: pkg.Dependencies,
	}
}

func (r *Resolver) resolveOne(ctx context.Context, name string, spec manifest.DependencySpec, baseDir string) (*ResolvedPackage, error) {
	if err := spec.Validate(); err != nil {
		return nil, boterrors.New(boterrors.KindResolution, name, err)
	}

	scratch, err := os.MkdirTemp(r.ScratchDir, "resolve-*")
	if err != nil {
		return nil, boterrors.New(boterrors.KindResolution, name, err)
	}

	var src lockfile.Source
	var resolvedIdentity *lockfile.Resolved

	switch spec.Kind() {
	case manifest.DependencyPath:
		abs := spec.Path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(baseDir, spec.Path)
		}
		if err := fetch.Path(abs, scratch); err != nil {
			return nil, err
		}
		src = lockfile.Source{Kind: "path", Abs: abs}

	case manifest.DependencyGit:
		rev := spec.Rev
		var commit string
		if gitutil.IsFullSHA(rev) {
			commit = rev
		} else {
			commit, err = fetch.GitResolveRef(ctx, spec.Git, rev)
			if err != nil {
				return nil, boterrors.New(boterrors.KindResolution, name, err)
			}
		}
		if err := fetch.Git(ctx, spec.Git, commit, scratch); err != nil {
			return nil, err
		}
		src = lockfile.Source{Kind: "git", URL: spec.Git}
		resolvedIdentity = &lockfile.Resolved{Commit: commit, Ref: rev}

	case manifest.DependencyTarball:
		if err := fetch.Tarball(ctx, r.http(), spec.URL, spec.Integrity, scratch); err != nil {
			return nil, err
		}
		src = lockfile.Source{Kind: "tarball", URL: spec.URL}

	case manifest.DependencySemver:
		entry, err := r.selectSemverVersion(ctx, name, spec.Semver)
		if err != nil {
			return nil, err
		}
		if err := fetch.Tarball(ctx, r.http(), entry.version.Source, entry.version.Integrity, scratch); err != nil {
			return nil, err
		}
		src = lockfile.Source{Kind: "registry", URL: entry.version.Source}

	default:
		return nil, boterrors.New(boterrors.KindResolution, name, fmt.Errorf("unrecognized dependency kind"))
	}

	pkgManifestPath := filepath.Join(scratch, constants.PackageManifestFilename)
	data, err := os.ReadFile(pkgManifestPath)
	if err != nil {
		return nil, boterrors.New(boterrors.KindResolution, name,
			fmt.Errorf("fetched tree has no package manifest: %w", err))
	}
	pkg, err := manifest.ParsePackage(data)
	if err != nil {
		return nil, err
	}

	treeDigest, err := digest.Tree(scratch)
	if err != nil {
		return nil, boterrors.New(boterrors.KindResolution, name, err)
	}

	if spec.Kind() == manifest.DependencyPath {
		resolvedIdentity = &lockfile.Resolved{Snapshot: string(treeDigest)}
	}

	return &ResolvedPackage{
		Name:         pkg.Name,
		Version:      pkg.Version,
		Source:       src,
		Resolved:     resolvedIdentity,
		Digest:       treeDigest,
		Capabilities: pkg.CapabilityList(),
		TreeDir:      scratch,
		subSpecs:     pkg.Dependencies,
	}, nil
}

type selectedVersion struct {
	versionStr string
	version    registryclient.VersionEntry
}

// selectSemverVersion picks the highest version satisfying rng, breaking
// ties by the lexicographically smaller source URL (spec §4.1).
func (r *Resolver) selectSemverVersion(ctx context.Context, name, rng string) (*selectedVersion, error) {
	constraint, err := semver.NewConstraint(rng)
	if err != nil {
		return nil, boterrors.New(boterrors.KindResolution, name, fmt.Errorf("invalid semver range %q: %w", rng, err))
	}

	idx, err := r.Registry.Versions(ctx, name)
	if err != nil {
		return nil, err
	}

	var best *selectedVersion
	var bestVer *semver.Version
	for verStr, entry := range idx.Versions {
		v, err := semver.NewVersion(verStr)
		if err != nil {
			continue
		}
		if !constraint.Check(v) {
			continue
		}
		switch {
		case best == nil:
			best, bestVer = &selectedVersion{versionStr: verStr, version: entry}, v
		case v.GreaterThan(bestVer):
			best, bestVer = &selectedVersion{versionStr: verStr, version: entry}, v
		case v.Equal(bestVer) && entry.Source < best.version.Source:
			best, bestVer = &selectedVersion{versionStr: verStr, version: entry}, v
		}
	}
	if best == nil {
		return nil, boterrors.New(boterrors.KindResolution, name,
			fmt.Errorf("no version satisfies range %q", rng))
	}
	return best, nil
}
