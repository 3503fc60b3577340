package resolver

import (
	"sort"

	"github.com/botpack/botpack/pkg/lockfile"
	"github.com/botpack/botpack/pkg/manifest"
)

// ToLockfile renders a resolved graph as a lockfile.Lockfile ready for
// Marshal. directDeps is copied verbatim from the project manifest's
// [dependencies] table (spec §3 "Lockfile").
func ToLockfile(toolVersion, manifestVersion string, directDeps map[string]manifest.DependencySpec, visited map[string]*ResolvedPackage) *lockfile.Lockfile {
	deps := make(map[string]string, len(directDeps))
	for name, spec := range directDeps {
		deps[name] = spec.String()
	}

	l := lockfile.New(toolVersion, manifestVersion, deps)

	ids := make([]string, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := visited[id]
		l.Set(id, lockfile.Package{
			Source:       p.Source,
			Resolved:     p.Resolved,
			Integrity:    string(p.Digest),
			Dependencies: p.Dependencies,
			Capabilities: p.Capabilities,
		})
	}
	return l
}
