// Package manifest parses and validates botpack's TOML configuration files:
// the project manifest, the per-package manifest embedded in fetched trees,
// and the trust file. Schemas are closed: unrecognized keys are parse errors.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/logger"
)

var projectLog = logger.New("manifest:project")

// LinkMode is the closed set of virtual-store link strategies.
type LinkMode string

const (
	LinkAuto     LinkMode = "auto"
	LinkSymlink  LinkMode = "symlink"
	LinkHardlink LinkMode = "hardlink"
	LinkCopy     LinkMode = "copy"
)

// PolicyMode is the closed set of policy-fragment materialization modes.
type PolicyMode string

const (
	PolicyFragments PolicyMode = "fragments"
	PolicyGenerate  PolicyMode = "generate"
	PolicyOff       PolicyMode = "off"
)

// Workspace holds workspace metadata declared in a project manifest.
type Workspace struct {
	Dir     string `toml:"dir"`
	Name    string `toml:"name"`
	Private bool   `toml:"private"`
}

// SyncPolicy controls when and how sync runs automatically.
type SyncPolicy struct {
	OnAdd     bool     `toml:"onAdd"`
	OnInstall bool     `toml:"onInstall"`
	Catalog   bool     `toml:"catalog"`
	LinkMode  LinkMode `toml:"linkMode"`
}

// TargetConfig is a named output profile's configuration in the manifest.
type TargetConfig struct {
	Root       string     `toml:"root"`
	Skills     string     `toml:"skills"`
	Commands   string     `toml:"commands"`
	Agents     string     `toml:"agents"`
	MCPOut     string     `toml:"mcpOut"`
	PolicyMode PolicyMode `toml:"policyMode"`
}

// Aliases rewrites final output names per asset type.
type Aliases struct {
	Skills   map[string]string `toml:"skills"`
	Commands map[string]string `toml:"commands"`
	Agents   map[string]string `toml:"agents"`
}

// Project is the parsed, validated project manifest (botpack.toml).
type Project struct {
	Version      int
	Workspace    Workspace
	Dependencies map[string]DependencySpec
	Sync         SyncPolicy
	Targets      map[string]TargetConfig
	Aliases      Aliases
}

// rawProject mirrors the TOML document shape, except Dependencies is decoded
// as primitives so each entry can be either a bare semver string or a table.
type rawProject struct {
	Version      int
	Workspace    Workspace
	Dependencies map[string]toml.Primitive
	Sync         SyncPolicy
	Targets      map[string]TargetConfig
	Aliases      Aliases
}

// rawDependencyTable is the table form of a dependency spec.
type rawDependencyTable struct {
	Git       string
	Rev       string
	Path      string
	URL       string `toml:"url"`
	Integrity string
}

// ParseProject parses and validates a project manifest's TOML bytes.
func ParseProject(data []byte) (*Project, error) {
	var raw rawProject
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, "botpack.toml", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, boterrors.New(boterrors.KindParse, "botpack.toml",
			fmt.Errorf("unrecognized key %q", undecoded[0].String()))
	}

	deps := make(map[string]DependencySpec, len(raw.Dependencies))
	for name, prim := range raw.Dependencies {
		spec, err := decodeDependencySpec(meta, prim)
		if err != nil {
			return nil, boterrors.New(boterrors.KindParse, name, err).
				WithChain("parsing dependency spec")
		}
		if err := spec.Validate(); err != nil {
			return nil, boterrors.New(boterrors.KindParse, name, err)
		}
		deps[name] = spec
	}

	if raw.Sync.LinkMode == "" {
		raw.Sync.LinkMode = LinkAuto
	}
	if !isValidLinkMode(raw.Sync.LinkMode) {
		return nil, boterrors.New(boterrors.KindParse, "sync.linkMode",
			fmt.Errorf("unknown link mode %q", raw.Sync.LinkMode))
	}

	projectLog.Printf("parsed project manifest: %d dependencies, %d targets", len(deps), len(raw.Targets))

	return &Project{
		Version:      raw.Version,
		Workspace:    raw.Workspace,
		Dependencies: deps,
		Sync:         raw.Sync,
		Targets:      raw.Targets,
		Aliases:      raw.Aliases,
	}, nil
}

func decodeDependencySpec(meta toml.MetaData, prim toml.Primitive) (DependencySpec, error) {
	var asString string
	if err := meta.PrimitiveDecode(prim, &asString); err == nil {
		return DependencySpec{Semver: asString}, nil
	}

	var table rawDependencyTable
	if err := meta.PrimitiveDecode(prim, &table); err != nil {
		return DependencySpec{}, fmt.Errorf("must be a semver string or a {git|path|url} table: %w", err)
	}
	return DependencySpec{
		Git:       table.Git,
		Rev:       table.Rev,
		Path:      table.Path,
		URL:       table.URL,
		Integrity: table.Integrity,
	}, nil
}

// LoadProject reads and parses the project manifest at path.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, path, err)
	}
	return ParseProject(data)
}

// Save writes p back to path as TOML. Used by `init`/`add`/`remove` to
// persist manifest edits; the project manifest is hand-editable, so this
// intentionally writes a plain (not canonicalized-JSON-style) TOML document.
func (p *Project) Save(path string) error {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("version = %d\n\n", p.Version))
	buf.WriteString("[workspace]\n")
	if err := toml.NewEncoder(&buf).Encode(p.Workspace); err != nil {
		return boterrors.New(boterrors.KindGeneric, path, err)
	}
	buf.WriteString("\n[dependencies]\n")
	for name, spec := range p.Dependencies {
		switch spec.Kind() {
		case DependencyGit:
			buf.WriteString(fmt.Sprintf("%q = { git = %q, rev = %q }\n", name, spec.Git, spec.Rev))
		case DependencyPath:
			buf.WriteString(fmt.Sprintf("%q = { path = %q }\n", name, spec.Path))
		case DependencyTarball:
			buf.WriteString(fmt.Sprintf("%q = { url = %q, integrity = %q }\n", name, spec.URL, spec.Integrity))
		default:
			buf.WriteString(fmt.Sprintf("%q = %q\n", name, spec.String()))
		}
	}
	buf.WriteString("\n[sync]\n")
	if err := toml.NewEncoder(&buf).Encode(p.Sync); err != nil {
		return boterrors.New(boterrors.KindGeneric, path, err)
	}
	for name, target := range p.Targets {
		buf.WriteString(fmt.Sprintf("\n[targets.%s]\n", name))
		if err := toml.NewEncoder(&buf).Encode(target); err != nil {
			return boterrors.New(boterrors.KindGeneric, path, err)
		}
	}
	for typ, table := range map[string]map[string]string{
		"skills": p.Aliases.Skills, "commands": p.Aliases.Commands, "agents": p.Aliases.Agents,
	} {
		if len(table) == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("\n[aliases.%s]\n", typ))
		for id, to := range table {
			buf.WriteString(fmt.Sprintf("%q = %q\n", id, to))
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return boterrors.New(boterrors.KindGeneric, path, err)
	}
	return os.Rename(tmp, path)
}

func isValidLinkMode(m LinkMode) bool {
	switch m {
	case LinkAuto, LinkSymlink, LinkHardlink, LinkCopy:
		return true
	default:
		return false
	}
}
