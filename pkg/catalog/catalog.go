// Package catalog implements the catalog emitter (spec §4.9): a
// metadata-only index derived from the asset scanner, written to
// .botpack/catalog.json after sync (or explicitly via `botpack catalog`).
package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/botpack/botpack/pkg/assets"
)

// SchemaVersion is bumped whenever catalog.json's shape changes.
const SchemaVersion = 1

// Entry is one asset's metadata-only projection — no bodies, per spec
// §4.9 "no bodies".
type Entry struct {
	Type          assets.Type   `json:"type"`
	ID            string        `json:"id"`
	Source        assets.Source `json:"source"`
	OwningPackage string        `json:"owningPackage,omitempty"`
	Path          string        `json:"path"`
	// Capabilities is the owning package's declared capability list
	// (SPEC_FULL.md §4.9.1), letting `botpack audit` answer "which
	// installed packages declare exec" without re-scanning.
	Capabilities []string `json:"capabilities,omitempty"`
}

// Catalog is the full document written to catalog.json.
type Catalog struct {
	Schema int     `json:"schema"`
	Entries []Entry `json:"entries"`
	// GeneratedAt is informational only; spec §4.9 "generation timestamp is
	// not included in the hashed portion" — see ContentHash.
	GeneratedAt string `json:"generatedAt,omitempty"`
}

// PackageCapabilities maps an owning package's bare name (as carried on
// assets.Asset.OwningPackage) to its manifest's declared capability list.
type PackageCapabilities map[string][]string

// Build projects assetList into catalog entries, ordered the same way the
// scanner already orders them (type, then owning package, then id).
func Build(assetList []assets.Asset, caps PackageCapabilities) *Catalog {
	entries := make([]Entry, 0, len(assetList))
	for _, a := range assetList {
		entries = append(entries, Entry{
			Type:          a.Type,
			ID:            a.ID,
			Source:        a.Source,
			OwningPackage: a.OwningPackage,
			Path:          a.Path,
			Capabilities:  caps[a.OwningPackage],
		})
	}
	return &Catalog{Schema: SchemaVersion, Entries: entries}
}

// Marshal renders the catalog as deterministic JSON (2-space indent, keys
// in struct field declaration order, single trailing newline).
func (c *Catalog) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContentHash renders the catalog without GeneratedAt, so comparing two
// catalogs for semantic equality (e.g. "did sync actually change
// anything") never spuriously differs on timestamp alone.
func (c *Catalog) ContentHash() ([]byte, error) {
	stripped := *c
	stripped.GeneratedAt = ""
	return stripped.Marshal()
}
