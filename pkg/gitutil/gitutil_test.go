package gitutil

import "testing"

func TestIsAuthError(t *testing.T) {
	cases := map[string]bool{
		"permission denied (publickey)":       true,
		"fatal: Authentication failed":        true,
		"repository not found":                false,
		"GITHUB_TOKEN env var is not set":      true,
		"":                                     false,
	}
	for msg, want := range cases {
		if got := IsAuthError(msg); got != want {
			t.Errorf("IsAuthError(%q) = %v, want %v", msg, got, want)
		}
	}
}

func TestIsHexString(t *testing.T) {
	cases := map[string]bool{
		"deadbeef": true,
		"DEADBEEF": true,
		"0123456789abcdef": true,
		"ghijkl":   false,
		"":         false,
	}
	for s, want := range cases {
		if got := IsHexString(s); got != want {
			t.Errorf("IsHexString(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestIsFullSHA(t *testing.T) {
	full := "08c6903cd8c0fde910a37f88322edcfb5dd907a8"
	if !IsFullSHA(full) {
		t.Errorf("expected %q to be a full SHA", full)
	}
	if IsFullSHA("08c6903") {
		t.Error("short SHA should not be a full SHA")
	}
	if IsFullSHA("v5") {
		t.Error("tag should not be a full SHA")
	}
}
