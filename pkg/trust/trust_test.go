package trust

import (
	"errors"
	"testing"

	"github.com/botpack/botpack/pkg/manifest"
)

func TestEvaluateDefaultDeny(t *testing.T) {
	tf := &manifest.TrustFile{Packages: map[string]manifest.PackageTrust{}}
	d := Evaluate(Request{PackageID: "@acme/mcp-pack@0.3.0", ServerID: "postgres", RequiresExec: true, RequiresMCP: true}, tf)
	if d.Allowed {
		t.Fatal("expected default deny with no trust record")
	}
}

func TestEvaluatePackageWideAllow(t *testing.T) {
	tf := &manifest.TrustFile{Packages: map[string]manifest.PackageTrust{
		"@acme/mcp-pack@0.3.0": {AllowExec: true, AllowMcp: true},
	}}
	d := Evaluate(Request{PackageID: "@acme/mcp-pack@0.3.0", ServerID: "postgres", RequiresExec: true, RequiresMCP: true}, tf)
	if !d.Allowed {
		t.Fatalf("expected package-wide allow to permit, got deny: %s", d.Reason)
	}
}

func TestEvaluatePerServerOverrideTakesPrecedence(t *testing.T) {
	tf := &manifest.TrustFile{Packages: map[string]manifest.PackageTrust{
		"@acme/mcp-pack@0.3.0": {
			AllowExec: false, AllowMcp: true,
			MCP: map[string]manifest.ServerTrust{"postgres": {AllowExec: true}},
		},
	}}
	d := Evaluate(Request{PackageID: "@acme/mcp-pack@0.3.0", ServerID: "postgres", RequiresExec: true}, tf)
	if !d.Allowed {
		t.Fatalf("expected per-server override to allow despite package-wide allowExec=false: %s", d.Reason)
	}
}

func TestGateNonInteractiveBlocksUnrecorded(t *testing.T) {
	tf := &manifest.TrustFile{Packages: map[string]manifest.PackageTrust{}}
	_, err := Gate(Request{PackageID: "@acme/mcp-pack@0.3.0", ServerID: "postgres", RequiresExec: true, RequiresMCP: true},
		tf, false, nil)
	if err == nil {
		t.Fatal("expected a trust-blocked error in non-interactive mode")
	}
}

func TestGateRecordedDenialIsNotAnError(t *testing.T) {
	tf := &manifest.TrustFile{Packages: map[string]manifest.PackageTrust{
		"@acme/mcp-pack@0.3.0": {AllowExec: false, AllowMcp: false},
	}}
	d, err := Gate(Request{PackageID: "@acme/mcp-pack@0.3.0", ServerID: "postgres", RequiresExec: true},
		tf, false, nil)
	if err != nil {
		t.Fatalf("a recorded denial must not be an error: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected denied decision")
	}
}

func TestGateInteractivePromptsAndHonorsAnswer(t *testing.T) {
	tf := &manifest.TrustFile{Packages: map[string]manifest.PackageTrust{}}

	allow := func(title, affirmative, negative string) (bool, error) { return true, nil }
	d, err := Gate(Request{PackageID: "@acme/mcp-pack@0.3.0", ServerID: "postgres", RequiresExec: true}, tf, true, allow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("expected interactive allow to permit")
	}

	deny := func(title, affirmative, negative string) (bool, error) { return false, nil }
	d, err = Gate(Request{PackageID: "@acme/mcp-pack@0.3.0", ServerID: "postgres", RequiresExec: true}, tf, true, deny)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected interactive deny to block")
	}
}

func TestGatePropagatesConfirmError(t *testing.T) {
	tf := &manifest.TrustFile{Packages: map[string]manifest.PackageTrust{}}
	boom := errors.New("boom")
	_, err := Gate(Request{PackageID: "@acme/mcp-pack@0.3.0", ServerID: "postgres", RequiresExec: true}, tf, true,
		func(title, affirmative, negative string) (bool, error) { return false, boom })
	if err == nil {
		t.Fatal("expected the confirm error to propagate")
	}
}
