package core

import (
	"errors"
	"testing"
)

func TestCleanKey(t *testing.T) {
	good := map[string]string{
		"a.json":           "a.json",
		"sessions/a.json":  "sessions/a.json",
		"sessions//a.json": "sessions/a.json",
		"./x/./y":          "x/y",
	}
	for in, want := range good {
		got, err := CleanKey(in)
		if err != nil || got != want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "  ", "/etc/passwd", "../x", "a/../../b", `a\b`, "."} {
		if _, err := CleanKey(in); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("CleanKey(%q): expected ErrInvalidKey, got %v", in, err)
		}
	}
}

func TestCloneMetadata(t *testing.T) {
	if CloneMetadata(nil) != nil {
		t.Fatalf("expected nil clone")
	}
	in := map[string]string{"k": "v"}
	out := CloneMetadata(in)
	out["k"] = "changed"
	if in["k"] != "v" {
		t.Fatalf("clone aliased input")
	}
}
