package lockfile

import (
	"strings"
	"testing"
)

func sample() *Lockfile {
	l := New("0.1.0", "1", map[string]string{"zeta": "^1.0.0", "alpha": "^2.0.0"})
	l.Set("zeta@1.2.0", Package{
		Source:       Source{Kind: "registry", URL: "https://registry.example/zeta"},
		Integrity:    "sha256:abc",
		Capabilities: []string{"network", "exec"},
	})
	l.Set("alpha@2.1.0", Package{
		Source:    Source{Kind: "git", URL: "https://example.com/alpha.git"},
		Resolved:  &Resolved{Commit: "deadbeef", Ref: "main"},
		Integrity: "sha256:def",
		Dependencies: map[string]string{
			"zeta": "1.2.0",
		},
	})
	return l
}

func TestMarshalDeterministic(t *testing.T) {
	a, err := Marshal(sample())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(sample())
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("expected identical lockfile bytes for identical input")
	}
}

func TestMarshalSortsCapabilities(t *testing.T) {
	out, err := Marshal(sample())
	if err != nil {
		t.Fatal(err)
	}
	idxExec := strings.Index(string(out), `"exec"`)
	idxNetwork := strings.Index(string(out), `"network"`)
	if idxExec == -1 || idxNetwork == -1 || idxExec > idxNetwork {
		t.Errorf("expected capabilities sorted alphabetically (exec before network), got:\n%s", out)
	}
}

func TestMarshalEndsWithSingleNewline(t *testing.T) {
	out, err := Marshal(sample())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(out), "}\n") || strings.HasSuffix(string(out), "}\n\n") {
		t.Errorf("expected exactly one trailing newline, got suffix %q", out[len(out)-5:])
	}
}

func TestParseRoundtrip(t *testing.T) {
	original := sample()
	out, err := Marshal(original)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	reMarshaled, err := Marshal(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != string(reMarshaled) {
		t.Error("expected parse-then-marshal to reproduce identical bytes")
	}
}

func TestEqual(t *testing.T) {
	ok, err := Equal(sample(), sample())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected two identically-constructed lockfiles to be Equal")
	}

	other := sample()
	other.Set("alpha@2.1.0", Package{Source: Source{Kind: "git"}, Integrity: "sha256:changed"})
	ok, err = Equal(sample(), other)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected a changed lockfile to compare unequal")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"lockfileVersion":1,"toolVersion":"x","manifestVersion":"1","dependencies":{},"packages":{},"unknownField":true}`))
	if err == nil {
		t.Error("expected Parse to reject an unknown top-level field")
	}
}
