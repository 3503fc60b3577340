package manifest

import "fmt"

// DependencyKind classifies how a DependencySpec resolves.
type DependencyKind string

const (
	DependencySemver  DependencyKind = "semver"
	DependencyGit     DependencyKind = "git"
	DependencyPath    DependencyKind = "path"
	DependencyTarball DependencyKind = "tarball"
	DependencyUnknown DependencyKind = ""
)

// DependencySpec is the closed union of ways a manifest can point at a
// dependency: a semver range string, {git,rev?}, {path}, or {url,integrity}.
// Exactly one of the non-Semver forms is populated for non-semver specs.
type DependencySpec struct {
	Semver string // non-empty when declared as a bare range string, e.g. "^2.0.0"

	Git string // repository URL
	Rev string // optional pinned ref/commit; empty means "resolve latest default ref"

	Path string // local filesystem path, relative to the manifest's directory

	URL       string // tarball URL
	Integrity string // required alongside URL
}

// Kind classifies the dependency spec.
func (d DependencySpec) Kind() DependencyKind {
	switch {
	case d.Git != "":
		return DependencyGit
	case d.Path != "":
		return DependencyPath
	case d.URL != "":
		return DependencyTarball
	case d.Semver != "":
		return DependencySemver
	default:
		return DependencyUnknown
	}
}

// String renders a stable, single-string form of the spec, used when a
// lockfile needs to copy the direct-dependency table verbatim (spec §3
// "Lockfile") even though specs that aren't bare semver ranges were
// originally TOML tables rather than strings.
func (d DependencySpec) String() string {
	switch d.Kind() {
	case DependencyGit:
		if d.Rev != "" {
			return fmt.Sprintf("git:%s@%s", d.Git, d.Rev)
		}
		return fmt.Sprintf("git:%s", d.Git)
	case DependencyPath:
		return fmt.Sprintf("path:%s", d.Path)
	case DependencyTarball:
		return fmt.Sprintf("tarball:%s#%s", d.URL, d.Integrity)
	case DependencySemver:
		return d.Semver
	default:
		return ""
	}
}

// Validate checks that the spec is well-formed for its kind.
func (d DependencySpec) Validate() error {
	switch d.Kind() {
	case DependencyTarball:
		if d.Integrity == "" {
			return fmt.Errorf("tarball dependency %q requires an integrity field", d.URL)
		}
	case DependencyUnknown:
		return fmt.Errorf("dependency spec has no recognized form (semver range, git, path, or url)")
	}
	return nil
}
