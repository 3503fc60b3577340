// Package assets implements the asset scanner (spec §4.6): it walks the
// workspace assets directory and every virtual-store package, recognizing
// skills, commands, agents, MCP server declarations and policy fragments by
// conventional path alone, and parses only their YAML frontmatter (plus, for
// Python skill scripts, a PEP-723 header) — never a full asset body.
package assets

// Type classifies a recognized asset.
type Type string

const (
	TypeSkill          Type = "skill"
	TypeCommand        Type = "command"
	TypeAgent          Type = "agent"
	TypeMCPServer      Type = "mcp-server"
	TypePolicyFragment Type = "policy-fragment"
	TypeTemplate       Type = "template"
)

// Source records whether an asset came from the workspace's own assets
// directory or from a resolved package in the virtual store.
type Source string

const (
	SourceWorkspace Source = "workspace"
	SourcePackage   Source = "package"
)

// Asset is the tagged record produced by a scan (spec §3 "Asset").
type Asset struct {
	Type          Type
	ID            string
	Source        Source
	OwningPackage string // empty when Source == SourceWorkspace
	Path          string // absolute path to the asset's primary file
	Metadata      map[string]interface{}
}

// sortKey orders assets by (type, owning package, id), per spec §4.6
// "stable ordering".
func (a Asset) sortKey() (Type, string, string) {
	return a.Type, a.OwningPackage, a.ID
}
