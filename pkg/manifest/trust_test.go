package manifest

import (
	"path/filepath"
	"testing"
)

const sampleTrust = `
["@acme/mcp-pack@0.3.0"]
allowExec = true
allowMcp = true

["@acme/mcp-pack@0.3.0".mcp.postgres]
allowExec = false
`

func TestParseTrustFile(t *testing.T) {
	tf, err := ParseTrustFile([]byte(sampleTrust))
	if err != nil {
		t.Fatalf("ParseTrustFile failed: %v", err)
	}
	pt, ok := tf.Get("@acme/mcp-pack@0.3.0")
	if !ok {
		t.Fatal("expected trust record for @acme/mcp-pack@0.3.0")
	}
	if !pt.AllowExec || !pt.AllowMcp {
		t.Errorf("package-wide trust = %+v", pt)
	}
	server, ok := pt.MCP["postgres"]
	if !ok || server.AllowExec {
		t.Errorf("server override = %+v, ok=%v", server, ok)
	}
}

func TestTrustFileSaveRoundtrip(t *testing.T) {
	tf := &TrustFile{}
	tf.Set("@acme/mcp-pack@0.3.0", PackageTrust{AllowExec: true, AllowMcp: true})

	path := filepath.Join(t.TempDir(), "trust.toml")
	if err := tf.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadTrustFile(path)
	if err != nil {
		t.Fatalf("LoadTrustFile failed: %v", err)
	}
	pt, ok := loaded.Get("@acme/mcp-pack@0.3.0")
	if !ok || !pt.AllowExec {
		t.Errorf("roundtrip lost trust record: %+v, ok=%v", pt, ok)
	}
}

func TestLoadTrustFileMissing(t *testing.T) {
	tf, err := LoadTrustFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadTrustFile should not error on missing file: %v", err)
	}
	if len(tf.Packages) != 0 {
		t.Errorf("expected empty trust file, got %+v", tf.Packages)
	}
}
