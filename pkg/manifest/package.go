package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/botpack/botpack/pkg/boterrors"
)

// Compat declares runtime compatibility requirements.
type Compat struct {
	Requires string `toml:"requires"`
}

// Capabilities are the closed set of risk-bearing properties a package can declare.
type Capabilities struct {
	Exec    bool `toml:"exec"`
	Network bool `toml:"network"`
	MCP     bool `toml:"mcp"`
}

// Package is the manifest embedded in every fetched package tree (agentpkg.toml).
type Package struct {
	Agentpkg     string `toml:"agentpkg"`
	Name         string `toml:"name"`
	Version      string `toml:"version"`
	Description  string `toml:"description"`
	License      string `toml:"license"`
	Repository   string `toml:"repository"`
	Compat       Compat `toml:"compat"`
	Exports      map[string]string
	Capabilities Capabilities `toml:"capabilities"`
	// Dependencies lets a fetched package declare its own sub-dependencies so
	// the resolver's BFS can close over a real graph, not just direct deps.
	// Not named among §3's "Package manifest" fields in the distilled spec;
	// added as an Open Question decision (see SPEC_FULL.md §9).
	Dependencies map[string]DependencySpec `toml:"dependencies"`
}

// rawPackage mirrors Package's TOML shape but keeps Dependencies as
// primitives, for the same union-type decode ParseProject uses.
type rawPackage struct {
	Agentpkg     string `toml:"agentpkg"`
	Name         string `toml:"name"`
	Version      string `toml:"version"`
	Description  string `toml:"description"`
	License      string `toml:"license"`
	Repository   string `toml:"repository"`
	Compat       Compat `toml:"compat"`
	Exports      map[string]string
	Capabilities Capabilities `toml:"capabilities"`
	Dependencies map[string]toml.Primitive `toml:"dependencies"`
}

// ParsePackage parses and validates a package manifest's TOML bytes.
func ParsePackage(data []byte) (*Package, error) {
	var raw rawPackage
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, "agentpkg.toml", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, boterrors.New(boterrors.KindParse, "agentpkg.toml",
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

	pkg := &Package{
		Agentpkg:     raw.Agentpkg,
		Name:         raw.Name,
		Version:      raw.Version,
		Description:  raw.Description,
		License:      raw.License,
		Repository:   raw.Repository,
		Compat:       raw.Compat,
		Exports:      raw.Exports,
		Capabilities: raw.Capabilities,
		Dependencies: deps,
	}
	if pkg.Name == "" {
		return nil, boterrors.New(boterrors.KindParse, "agentpkg.toml", fmt.Errorf("name is required"))
	}
	if pkg.Version == "" {
		return nil, boterrors.New(boterrors.KindParse, pkg.Name, fmt.Errorf("version is required"))
	}
	return pkg, nil
}

// ID returns the "name@version" identity used as a lockfile/trust/store key.
func (p *Package) ID() string {
	return p.Name + "@" + p.Version
}

// CapabilityList returns the declared capability names as a slice, for
// projection into catalog entries.
func (p *Package) CapabilityList() []string {
	var caps []string
	if p.Capabilities.Exec {
		caps = append(caps, "exec")
	}
	if p.Capabilities.Network {
		caps = append(caps, "network")
	}
	if p.Capabilities.MCP {
		caps = append(caps, "mcp")
	}
	return caps
}
