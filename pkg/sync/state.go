package sync

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/digest"
)

// Entry is one materialized path recorded in a target's sync state (spec
// §3 "Sync state").
type Entry struct {
	Path          string `json:"path"`
	SourceAddress string `json:"sourceAddress"`
	Checksum      string `json:"checksum"`
}

// State is a target's full sync state: the tool version and a hash of the
// target configuration that produced it (so a config change is detectable
// even when no path changed), plus every materialized path.
type State struct {
	ToolVersion string  `json:"toolVersion"`
	ConfigHash  string  `json:"configHash"`
	Entries     []Entry `json:"entries"`
}

func statePath(workspaceRoot, targetName string) string {
	return filepath.Join(workspaceRoot, ".botpack", "state", "sync-"+targetName+".json")
}

// LoadState reads a target's previous sync state, returning nil (not an
// error) if none exists yet.
func LoadState(workspaceRoot, targetName string) (*State, error) {
	data, err := os.ReadFile(statePath(workspaceRoot, targetName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, boterrors.New(boterrors.KindSync, targetName, err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, boterrors.New(boterrors.KindSync, targetName, err)
	}
	return &s, nil
}

// Save writes state atomically (temp file + rename), per spec §4.7 apply
// step 5.
func Save(workspaceRoot, targetName string, state *State) error {
	path := statePath(workspaceRoot, targetName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return boterrors.New(boterrors.KindSync, targetName, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(state); err != nil {
		return boterrors.New(boterrors.KindSync, targetName, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return boterrors.New(boterrors.KindSync, targetName, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return boterrors.New(boterrors.KindSync, targetName, err)
	}
	return nil
}

// Conflict names a materialized path whose on-disk checksum no longer
// matches what was recorded at the last sync (spec §4.7 "Drift detection").
type Conflict struct {
	Path     string
	Recorded string
	Actual   string
}

// DetectDrift compares every entry in previous against the workspace's
// current on-disk content, returning one Conflict per modified path.
// Entries whose path no longer exists are not a conflict (removing a
// materialized path by hand is not "modifying" it; --clean handles that).
func DetectDrift(workspaceRoot string, previous *State) ([]Conflict, error) {
	if previous == nil {
		return nil, nil
	}
	var conflicts []Conflict
	for _, e := range previous.Entries {
		full := filepath.Join(workspaceRoot, e.Path)
		info, err := os.Stat(full)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, boterrors.New(boterrors.KindSync, e.Path, err)
		}

		var actual digest.Digest
		if info.IsDir() {
			actual, err = digest.Tree(full)
		} else {
			actual, err = digest.File(full)
		}
		if err != nil {
			return nil, boterrors.New(boterrors.KindSync, e.Path, err)
		}
		if string(actual) != e.Checksum {
			conflicts = append(conflicts, Conflict{Path: e.Path, Recorded: e.Checksum, Actual: string(actual)})
		}
	}
	return conflicts, nil
}
