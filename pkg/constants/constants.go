// Package constants centralizes names and defaults shared across botpack's
// commands and libraries so they don't drift between packages.
package constants

// CLIName is the prefix used in user-facing output to refer to the CLI.
const CLIName = "botpack"

// ManifestFilename is the name of the project manifest botpack searches for
// when walking up from the current directory (see workspace root resolution).
const ManifestFilename = "botpack.toml"

// LockfileFilename is the canonical lockfile name written alongside the manifest.
const LockfileFilename = "botpack.lock"

// PackageManifestFilename is the name of the manifest embedded in every
// fetched package tree.
const PackageManifestFilename = "agentpkg.toml"

// TrustFilename is the per-workspace trust file recording capability grants.
const TrustFilename = "trust.toml"

// StateDirName is the per-workspace generated-state directory.
const StateDirName = ".botpack"

// Environment variable names recognized at command entry.
const (
	EnvRoot        = "BOTPACK_ROOT"
	EnvStore       = "BOTPACK_STORE"
	EnvRegistryURL = "BOTPACK_REGISTRY_URL"
	// EnvDebug selects which pkg/logger namespaces print to stderr, e.g.
	// "resolver,fetch" or "*" for everything.
	EnvDebug = "BOTPACK_DEBUG"
	// EnvDebugColors disables namespace coloring in pkg/logger output when
	// set to "0".
	EnvDebugColors = "BOTPACK_DEBUG_COLORS"
)

// LockfileSchemaVersion is bumped whenever the on-disk lockfile shape changes
// in a way that requires migration.
const LockfileSchemaVersion = 1

// RegistryIndexSchemaVersion is the schema field expected in versions.json.
const RegistryIndexSchemaVersion = 1

// DefaultFetchTimeoutMinutes bounds network fetches absent explicit config.
const DefaultFetchTimeoutMinutes = 2

// BuiltinTargets lists the target names botpack ships sync profiles for.
var BuiltinTargets = []string{"claude", "amp", "droid"}

// Capabilities is the closed set of capability flags a package manifest may declare.
var Capabilities = []string{"exec", "network", "mcp"}
