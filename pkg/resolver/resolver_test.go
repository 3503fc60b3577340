package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/botpack/botpack/pkg/lockfile"
	"github.com/botpack/botpack/pkg/manifest"
	"github.com/botpack/botpack/pkg/registryclient"
)

// fakeRegistry serves in-memory version indices only; it fetches nothing, so
// the tests here resolve path dependencies.
type fakeRegistry struct {
	indices map[string]*registryclient.Index
}

func (f *fakeRegistry) Versions(ctx context.Context, name string) (*registryclient.Index, error) {
	idx, ok := f.indices[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return idx, nil
}

func writePathPackage(t *testing.T, name, version string, deps map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	body := "name = \"" + name + "\"\nversion = \"" + version + "\"\n"
	if len(deps) > 0 {
		body += "\n[dependencies]\n"
		for depName, depRange := range deps {
			body += depName + " = \"" + depRange + "\"\n"
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "agentpkg.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("# "+name+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestResolvePathDependency(t *testing.T) {
	leaf := writePathPackage(t, "leaf-skill", "1.0.0", nil)

	r := New(&fakeRegistry{}, t.TempDir())
	rootDeps := map[string]manifest.DependencySpec{
		"leaf-skill": {Path: leaf},
	}
	visited, err := r.Resolve(context.Background(), rootDeps, t.TempDir())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(visited) != 1 {
		t.Fatalf("expected 1 resolved package, got %d", len(visited))
	}
	pkg, ok := visited["leaf-skill@1.0.0"]
	if !ok {
		t.Fatalf("expected leaf-skill@1.0.0 in %v", keys(visited))
	}
	if pkg.Resolved == nil || pkg.Resolved.Snapshot == "" {
		t.Error("expected a snapshot identity for a path dependency")
	}
}

func TestResolveTransitivePathDependencies(t *testing.T) {
	leaf := writePathPackage(t, "leaf-skill", "1.0.0", nil)
	// the parent's dependency on leaf is declared as a path too, since this
	// resolver test has no registry server behind it.
	parentDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(parentDir, "agentpkg.toml"), []byte(`
name = "parent-pack"
version = "2.0.0"

[dependencies]
leaf-skill = { path = '`+leaf+`' }
`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parentDir, "SKILL.md"), []byte("# parent\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(&fakeRegistry{}, t.TempDir())
	rootDeps := map[string]manifest.DependencySpec{
		"parent-pack": {Path: parentDir},
	}
	visited, err := r.Resolve(context.Background(), rootDeps, t.TempDir())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(visited) != 2 {
		t.Fatalf("expected 2 resolved packages, got %d: %v", len(visited), keys(visited))
	}
}

func TestResolveDetectsContentCollision(t *testing.T) {
	leafA := writePathPackage(t, "leaf-skill", "1.0.0", nil)
	leafB := writePathPackage(t, "leaf-skill", "1.0.0", nil)
	if err := os.WriteFile(filepath.Join(leafB, "SKILL.md"), []byte("# different content\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	parentA := t.TempDir()
	os.WriteFile(filepath.Join(parentA, "agentpkg.toml"), []byte("name=\"parent-a\"\nversion=\"1.0.0\"\n"), 0o644)
	os.WriteFile(filepath.Join(parentA, "SKILL.md"), []byte("a\n"), 0o644)

	r := New(&fakeRegistry{}, t.TempDir())
	rootDeps := map[string]manifest.DependencySpec{
		"parent-a":   {Path: parentA},
		"leaf-a":     {Path: leafA},
		"leaf-b":     {Path: leafB},
	}
	_, err := r.Resolve(context.Background(), rootDeps, t.TempDir())
	if err == nil {
		t.Fatal("expected an error when the same name@version resolves to two different contents")
	}
}

// erroringRegistry fails any query, proving Resolve never touches the
// registry once an existing pin already satisfies the requested spec.
type erroringRegistry struct{ t *testing.T }

func (e *erroringRegistry) Versions(ctx context.Context, name string) (*registryclient.Index, error) {
	e.t.Fatalf("unexpected registry query for %q; the existing pin should have been reused", name)
	return nil, nil
}

func TestResolveReusesPinnedRegistryDependency(t *testing.T) {
	existing := &lockfile.Lockfile{
		Packages: map[string]lockfile.Package{
			"greeter@1.2.0": {
				Source:       lockfile.Source{Kind: "registry", URL: "https://example.test/greeter-1.2.0.tgz"},
				Integrity:    "sha256:deadbeef",
				Capabilities: []string{"exec"},
				Dependencies: map[string]string{"helper-skill": "0.1.0"},
			},
			"helper-skill@0.1.0": {
				Source:    lockfile.Source{Kind: "registry", URL: "https://example.test/helper-0.1.0.tgz"},
				Integrity: "sha256:cafebabe",
			},
		},
	}

	r := New(&erroringRegistry{t: t}, t.TempDir())
	r.ExistingLockfile = existing

	rootDeps := map[string]manifest.DependencySpec{
		"greeter": {Semver: "^1.0.0"},
	}
	visited, err := r.Resolve(context.Background(), rootDeps, t.TempDir())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(visited) != 2 {
		t.Fatalf("expected the pinned package plus its recorded dependency, got %d: %v", len(visited), keys(visited))
	}

	greeter, ok := visited["greeter@1.2.0"]
	if !ok {
		t.Fatalf("expected greeter@1.2.0 reused from the existing lockfile, got %v", keys(visited))
	}
	if greeter.TreeDir != "" {
		t.Error("a reused package should not carry a fetch scratch dir")
	}
	if greeter.Digest != "sha256:deadbeef" {
		t.Errorf("expected the reused digest to come from the lockfile, got %s", greeter.Digest)
	}
	if _, ok := visited["helper-skill@0.1.0"]; !ok {
		t.Error("expected the reused package's own recorded dependency to be pulled in without re-resolving")
	}
}

func TestResolveDoesNotReusePinWhenRangeNoLongerSatisfied(t *testing.T) {
	existing := &lockfile.Lockfile{
		Packages: map[string]lockfile.Package{
			"greeter@1.2.0": {
				Source:    lockfile.Source{Kind: "registry", URL: "https://example.test/greeter-1.2.0.tgz"},
				Integrity: "sha256:deadbeef",
			},
		},
	}

	r := New(&fakeRegistry{}, t.TempDir())
	r.ExistingLockfile = existing

	rootDeps := map[string]manifest.DependencySpec{
		"greeter": {Semver: "^2.0.0"},
	}
	_, err := r.Resolve(context.Background(), rootDeps, t.TempDir())
	if err == nil {
		t.Fatal("expected an error: the pin no longer satisfies the range and fakeRegistry has no matching index")
	}
}

func TestResolveForcesFreshResolutionWithoutExistingLockfile(t *testing.T) {
	leaf := writePathPackage(t, "leaf-skill", "1.0.0", nil)

	r := New(&fakeRegistry{}, t.TempDir())
	// ExistingLockfile left unset, as resolveAndInstall(..., fresh=true) does
	// for `update`: path/git/tarball deps are unaffected by lockfile reuse
	// either way, but this documents that no reuse path is reachable here.
	rootDeps := map[string]manifest.DependencySpec{
		"leaf-skill": {Path: leaf},
	}
	visited, err := r.Resolve(context.Background(), rootDeps, t.TempDir())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if visited["leaf-skill@1.0.0"].TreeDir == "" {
		t.Error("expected a freshly fetched tree dir with no existing lockfile to reuse")
	}
}

func keys(m map[string]*ResolvedPackage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
