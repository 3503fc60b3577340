package boterrors

import (
	"errors"
	"testing"
)

func TestExitCode(t *testing.T) {
	cases := map[Kind]int{
		KindParse:        2,
		KindResolution:   3,
		KindFetch:        4,
		KindStore:        4,
		KindSync:         5,
		KindTrustBlocked: 6,
		KindGeneric:      1,
	}
	for kind, want := range cases {
		if got := ExitCode(kind); got != want {
			t.Errorf("ExitCode(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	err := New(KindFetch, "@acme/base@1.2.0", errors.New("connection reset")).
		WithChain("fetching package source").
		WithHint("check network connectivity or pass --offline")

	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty message")
	}
	if err.Kind != KindFetch {
		t.Errorf("Kind = %s, want fetch", err.Kind)
	}
}

func TestAs(t *testing.T) {
	inner := New(KindParse, "botpack.toml", errors.New("bad key"))
	wrapped := errors.New("context: " + inner.Error())

	if _, ok := As(wrapped); ok {
		t.Fatal("plain wrapped error should not unwrap via As")
	}
	if got, ok := As(inner); !ok || got.Kind != KindParse {
		t.Fatalf("As(inner) = %v, %v", got, ok)
	}
}
