// Package lockfile implements the canonical, deterministic serialization of
// a resolved dependency graph (spec §4.5): the same (manifest, registry
// snapshot, source content) must always marshal to byte-identical JSON, so
// the file is diffable and `--frozen-lockfile` can do a straight byte
// comparison instead of a semantic one.
//
// Grounded on distribution-distribution's manifest JSON types for the
// "typed record marshaled through encoding/json" shape; the canonical
// ordering discipline itself (sorted map keys, no timestamps, final newline) has
// no direct teacher analogue and is built directly from spec §4.5.
package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaVersion is the lockfile format version written by this build.
const SchemaVersion = 1

// Source identifies where a resolved package's content came from.
type Source struct {
	Kind string `json:"kind"`
	URL  string `json:"url,omitempty"`
	Abs  string `json:"abs,omitempty"`
}

// Resolved carries the resolved identity for a source: the commit SHA for
// git, or a snapshot marker for path sources.
type Resolved struct {
	Commit   string `json:"commit,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Snapshot string `json:"snapshot,omitempty"`
}

// Package is one entry in the lockfile's packages table, keyed by
// "name@version".
type Package struct {
	Source       Source            `json:"source"`
	Resolved     *Resolved         `json:"resolved,omitempty"`
	Integrity    string            `json:"integrity"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
}

// Lockfile is the full on-disk record written after resolution.
type Lockfile struct {
	LockfileVersion int               `json:"lockfileVersion"`
	ToolVersion     string            `json:"toolVersion"`
	ManifestVersion string            `json:"manifestVersion"`
	Dependencies    map[string]string `json:"dependencies"`
	Packages        map[string]Package `json:"packages"`
}

// New returns an empty lockfile stamped with the current schema and tool
// version, ready to have packages added.
func New(toolVersion, manifestVersion string, directDeps map[string]string) *Lockfile {
	return &Lockfile{
		LockfileVersion: SchemaVersion,
		ToolVersion:     toolVersion,
		ManifestVersion: manifestVersion,
		Dependencies:    directDeps,
		Packages:        map[string]Package{},
	}
}

// Set records or replaces the resolved package for "name@version", after
// sorting its Capabilities list (the spec requires semantically-unordered
// arrays to be sorted for determinism).
func (l *Lockfile) Set(id string, pkg Package) {
	if pkg.Capabilities != nil {
		sorted := append([]string(nil), pkg.Capabilities...)
		sort.Strings(sorted)
		pkg.Capabilities = sorted
	}
	if l.Packages == nil {
		l.Packages = map[string]Package{}
	}
	l.Packages[id] = pkg
}

// Marshal renders the lockfile as canonical JSON: encoding/json already
// sorts map[string]X keys lexicographically by UTF-8 code point, which
// covers both the top-level Packages table and every per-package
// Dependencies map; this function adds the remaining canonical-form
// requirements the encoder doesn't give for free — 2-space indent and a
// single trailing newline, no trailing whitespace. Objects backed by a
// struct (the top-level record, each Package, its Source and Resolved)
// keep their fields in declaration order; those keys are not sorted.
func Marshal(l *Lockfile) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(l); err != nil {
		return nil, fmt.Errorf("lockfile: encoding: %w", err)
	}
	// json.Encoder.Encode already appends a single trailing "\n"; MarshalIndent
	// would not, which is why Encoder is used here instead.
	return buf.Bytes(), nil
}

// Parse decodes a lockfile from its canonical JSON form.
func Parse(data []byte) (*Lockfile, error) {
	var l Lockfile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("lockfile: parsing: %w", err)
	}
	return &l, nil
}

// Equal reports whether two lockfiles serialize to byte-identical canonical
// JSON — the comparison `--frozen-lockfile` needs (spec §4.5: "the
// resolver's output must match on-disk bytes").
func Equal(a, b *Lockfile) (bool, error) {
	ab, err := Marshal(a)
	if err != nil {
		return false, err
	}
	bb, err := Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ab, bb), nil
}
