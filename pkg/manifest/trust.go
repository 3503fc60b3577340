package manifest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/botpack/botpack/pkg/boterrors"
)

// ServerTrust overrides the package-wide allow/deny decision for one MCP
// server identified by its fqid.
type ServerTrust struct {
	AllowExec bool `toml:"allowExec"`
}

// DigestPin optionally pins the trust decision to a specific content digest.
type DigestPin struct {
	Integrity string `toml:"integrity"`
}

// PackageTrust is the recorded allow/deny decision for one "name@version".
type PackageTrust struct {
	AllowExec bool                   `toml:"allowExec"`
	AllowMcp  bool                   `toml:"allowMcp"`
	Digest    *DigestPin             `toml:"digest"`
	MCP       map[string]ServerTrust `toml:"mcp"`
}

// TrustFile is the parsed trust.toml: a map from "name@version" to its
// recorded decision.
type TrustFile struct {
	Packages map[string]PackageTrust
}

// ParseTrustFile parses trust.toml bytes. A missing file is represented by
// the caller passing an empty document (trust.toml need not exist yet).
func ParseTrustFile(data []byte) (*TrustFile, error) {
	raw := map[string]PackageTrust{}
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, "trust.toml", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, boterrors.New(boterrors.KindParse, "trust.toml",
			fmt.Errorf("unrecognized key %q", undecoded[0].String()))
	}
	return &TrustFile{Packages: raw}, nil
}

// LoadTrustFile reads and parses the trust file at path, returning an empty
// TrustFile if it does not exist.
func LoadTrustFile(path string) (*TrustFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &TrustFile{Packages: map[string]PackageTrust{}}, nil
	}
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, path, err)
	}
	return ParseTrustFile(data)
}

// Save writes the trust file atomically (temp file + rename) to path.
func (t *TrustFile) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(t.Packages); err != nil {
		return boterrors.New(boterrors.KindGeneric, path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return boterrors.New(boterrors.KindGeneric, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return boterrors.New(boterrors.KindGeneric, path, err)
	}
	return nil
}

// Set records (or replaces) the trust decision for a package.
func (t *TrustFile) Set(nameAtVersion string, trust PackageTrust) {
	if t.Packages == nil {
		t.Packages = map[string]PackageTrust{}
	}
	t.Packages[nameAtVersion] = trust
}

// Get returns the recorded decision for a package, and whether one exists.
func (t *TrustFile) Get(nameAtVersion string) (PackageTrust, bool) {
	pt, ok := t.Packages[nameAtVersion]
	return pt, ok
}
