// Package sync implements the sync engine (spec §4.7): planning a target's
// materialization from the asset index, staging it, and atomically swapping
// it into place, with drift detection against the previous sync state.
package sync

import "path/filepath"

// Target is a named output profile: a root directory and, per asset type,
// either a subdirectory name or a fallback root used verbatim instead (spec
// §4.7's built-in target table). An empty dir and empty fallback means the
// target does not support that asset type at all (e.g. droid has no
// commands/agents output).
type Target struct {
	Name string
	Root string

	SkillsDir          string
	FallbackSkillsRoot string // used verbatim, not joined with Root

	CommandsDir string
	AgentsDir   string

	// MCPOut is the path (relative to Root) the merged MCP config is written
	// to. Empty means "not configured" (SPEC_FULL.md §4.7.1): mcp-server
	// assets are reported as a capability-gate skip for this target, not an
	// error.
	MCPOut string
}

// BuiltinTargets are the three targets spec §4.7 ships profiles for.
var BuiltinTargets = map[string]Target{
	"claude": {
		Name: "claude", Root: ".claude",
		SkillsDir: "skills", CommandsDir: "commands", AgentsDir: "agents",
		MCPOut: "mcp.json",
	},
	"amp": {
		Name: "amp", Root: ".agents",
		FallbackSkillsRoot: ".claude/skills", CommandsDir: "commands", AgentsDir: "agents",
	},
	"droid": {
		Name: "droid", Root: ".factory",
		FallbackSkillsRoot: ".claude/skills",
	},
}

// SkillsRoot returns the directory skill assets are materialized under,
// relative to the workspace root, or "" if this target does not support
// skills (never the case among the built-ins, but user-extensible targets
// may omit it).
func (t Target) SkillsRoot() string {
	if t.SkillsDir != "" {
		return filepath.Join(t.Root, t.SkillsDir)
	}
	return t.FallbackSkillsRoot
}

// CommandsRoot returns the directory command assets are materialized
// under, or "" if unsupported.
func (t Target) CommandsRoot() string {
	if t.CommandsDir == "" {
		return ""
	}
	return filepath.Join(t.Root, t.CommandsDir)
}

// AgentsRoot returns the directory agent assets are materialized under, or
// "" if unsupported.
func (t Target) AgentsRoot() string {
	if t.AgentsDir == "" {
		return ""
	}
	return filepath.Join(t.Root, t.AgentsDir)
}
