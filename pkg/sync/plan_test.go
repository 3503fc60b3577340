package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/botpack/botpack/pkg/assets"
	"github.com/botpack/botpack/pkg/vstore"
)

func skillAsset(id, owner string) assets.Asset {
	source := assets.SourceWorkspace
	if owner != "" {
		source = assets.SourcePackage
	}
	return assets.Asset{
		Type: assets.TypeSkill, ID: id, Source: source, OwningPackage: owner,
		Path: filepath.Join("/pkgs", owner, "skills", id, "SKILL.md"),
	}
}

func TestPlanClaudeTargetLinksSkillsCommandsAgents(t *testing.T) {
	target := BuiltinTargets["claude"]
	list := []assets.Asset{
		skillAsset("fetch_web", "@acme/quality-skills"),
		{Type: assets.TypeCommand, ID: "lint", Source: assets.SourceWorkspace, Path: "/ws/commands/lint.md"},
		{Type: assets.TypeAgent, ID: "reviewer", Source: assets.SourceWorkspace, Path: "/ws/agents/reviewer.md"},
	}

	ops, skips, err := Plan(target, list, nil, nil, nil, vstore.LinkAuto)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("expected no skips for claude, got %+v", skips)
	}

	var sawSkill, sawCommand, sawAgent bool
	for _, op := range ops {
		switch op.Dst {
		case filepath.Join(".claude", "skills", "acme-quality-skills.fetch_web"):
			sawSkill = true
		case filepath.Join(".claude", "commands", "lint.md"):
			sawCommand = true
		case filepath.Join(".claude", "agents", "reviewer.md"):
			sawAgent = true
		}
	}
	if !sawSkill || !sawCommand || !sawAgent {
		t.Fatalf("expected skill/command/agent ops, got %+v", ops)
	}
}

func TestPlanDroidSkipsCommandsAndAgents(t *testing.T) {
	target := BuiltinTargets["droid"]
	list := []assets.Asset{
		{Type: assets.TypeCommand, ID: "lint", Source: assets.SourceWorkspace, Path: "/ws/commands/lint.md"},
	}
	_, skips, err := Plan(target, list, nil, nil, nil, vstore.LinkAuto)
	if err != nil {
		t.Fatal(err)
	}
	if len(skips) != 1 {
		t.Fatalf("expected 1 skip (droid has no commands output), got %+v", skips)
	}
}

func TestPlanRejectsAliasCollision(t *testing.T) {
	target := BuiltinTargets["claude"]
	list := []assets.Asset{
		{Type: assets.TypeCommand, ID: "a", Source: assets.SourceWorkspace, Path: "/ws/commands/a.md"},
		{Type: assets.TypeCommand, ID: "b", Source: assets.SourceWorkspace, Path: "/ws/commands/b.md"},
	}
	aliases := map[string]string{
		"command:workspace:a": "same",
		"command:workspace:b": "same",
	}
	_, _, err := Plan(target, list, aliases, nil, nil, vstore.LinkAuto)
	if err == nil {
		t.Fatal("expected a collision error when two aliases collide")
	}
}

func TestPlanHiddenAssetIsOmitted(t *testing.T) {
	target := BuiltinTargets["claude"]
	list := []assets.Asset{
		{Type: assets.TypeCommand, ID: "a", Source: assets.SourceWorkspace, Path: "/ws/commands/a.md"},
	}
	hidden := map[string]bool{"command:workspace:a": true}
	ops, _, err := Plan(target, list, nil, hidden, nil, vstore.LinkAuto)
	if err != nil {
		t.Fatal(err)
	}
	for _, op := range ops {
		if op.Kind == OpLink {
			t.Fatalf("expected the hidden asset to produce no LINK op, got %+v", op)
		}
	}
}

func TestApplyStagesAndSwapsAtomically(t *testing.T) {
	ws := t.TempDir()
	srcDir := filepath.Join(ws, "src-skill")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "SKILL.md"), []byte("# hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	target := BuiltinTargets["claude"]
	ops := []Op{
		{Kind: OpCreateDir, Dst: filepath.Join(".claude", "skills")},
		{Kind: OpLink, Dst: filepath.Join(".claude", "skills", "fetch_web"), Src: srcDir, LinkMode: vstore.LinkCopy, SourceAddress: "skill:workspace:fetch_web"},
	}

	state, err := Apply(ws, "1.0.0", target, ops, "confighash")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(state.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(state.Entries))
	}

	linked := filepath.Join(ws, ".claude", "skills", "fetch_web", "SKILL.md")
	if _, err := os.Stat(linked); err != nil {
		t.Fatalf("expected materialized file at %s: %v", linked, err)
	}

	loaded, err := LoadState(ws, "claude")
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if loaded == nil || len(loaded.Entries) != 1 {
		t.Fatalf("expected persisted state to round-trip, got %+v", loaded)
	}
}

func TestDetectDriftFlagsModifiedPath(t *testing.T) {
	ws := t.TempDir()
	path := filepath.Join(".claude", "commands", "lint.md")
	full := filepath.Join(ws, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("original\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	digest, err := checksumOf(full)
	if err != nil {
		t.Fatal(err)
	}
	previous := &State{Entries: []Entry{{Path: path, Checksum: string(digest)}}}

	conflicts, err := DetectDrift(ws, previous)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no drift yet, got %+v", conflicts)
	}

	if err := os.WriteFile(full, []byte("modified by hand\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	conflicts, err = DetectDrift(ws, previous)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict after manual edit, got %+v", conflicts)
	}
}
