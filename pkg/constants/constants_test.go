package constants

import "testing"

func TestBuiltinTargets(t *testing.T) {
	if len(BuiltinTargets) == 0 {
		t.Fatal("BuiltinTargets should not be empty")
	}
	want := []string{"claude", "amp", "droid"}
	if len(BuiltinTargets) != len(want) {
		t.Fatalf("BuiltinTargets length = %d, want %d", len(BuiltinTargets), len(want))
	}
	for i, name := range want {
		if BuiltinTargets[i] != name {
			t.Errorf("BuiltinTargets[%d] = %q, want %q", i, BuiltinTargets[i], name)
		}
	}
}

func TestCapabilities(t *testing.T) {
	want := map[string]bool{"exec": true, "network": true, "mcp": true}
	if len(Capabilities) != len(want) {
		t.Fatalf("Capabilities length = %d, want %d", len(Capabilities), len(want))
	}
	for _, c := range Capabilities {
		if !want[c] {
			t.Errorf("unexpected capability %q", c)
		}
	}
}
