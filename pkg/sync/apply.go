package sync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/digest"
	"github.com/botpack/botpack/pkg/fsutil"
	"github.com/botpack/botpack/pkg/vstore"
)

// Flags are the sync command's behavioral switches (spec §4.7 "Input").
type Flags struct {
	DryRun bool
	Clean  bool
	Force  bool
}

// Apply materializes ops for target under workspaceRoot, following spec
// §4.7's atomic apply protocol: stage, fsync, swap the target root aside
// and back in, roll back on any failure, then persist sync state. ops
// should already include any REMOVE entries from Clean — Apply doesn't act
// on them directly (a full-root swap already drops anything not restaged),
// but it does log them for visibility.
//
// Callers are expected to have already run DetectDrift and aborted (unless
// Force) before calling Apply; Apply itself performs no drift check.
func Apply(workspaceRoot, toolVersion string, target Target, ops []Op, configHash string) (*State, error) {
	finalRoot := filepath.Join(workspaceRoot, target.Root)
	oldRoot := finalRoot + ".old"
	stagingRoot := filepath.Join(workspaceRoot, ".botpack", "generated", target.Name+".new")

	// Clean up any leftovers from a crashed previous attempt before staging.
	if err := os.RemoveAll(stagingRoot); err != nil {
		return nil, boterrors.New(boterrors.KindSync, target.Name, err)
	}
	if err := os.RemoveAll(oldRoot); err != nil {
		return nil, boterrors.New(boterrors.KindSync, target.Name, err)
	}
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return nil, boterrors.New(boterrors.KindSync, target.Name, err)
	}

	var entries []Entry
	for _, op := range ops {
		rel, err := filepath.Rel(target.Root, op.Dst)
		if err != nil {
			return nil, boterrors.New(boterrors.KindSync, op.Dst, err)
		}
		staged := filepath.Join(stagingRoot, rel)

		switch op.Kind {
		case OpCreateDir:
			if err := os.MkdirAll(staged, 0o755); err != nil {
				return nil, boterrors.New(boterrors.KindSync, op.Dst, err)
			}

		case OpLink:
			mode := op.LinkMode
			if mode == "" {
				mode = vstore.LinkAuto
			}
			if err := materializeLink(op.Src, staged, mode); err != nil {
				return nil, boterrors.New(boterrors.KindSync, op.Dst, err)
			}
			checksum, err := checksumOf(op.Src)
			if err != nil {
				return nil, boterrors.New(boterrors.KindSync, op.Dst, err)
			}
			entries = append(entries, Entry{Path: op.Dst, SourceAddress: op.SourceAddress, Checksum: string(checksum)})

		case OpWriteFile:
			if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
				return nil, boterrors.New(boterrors.KindSync, op.Dst, err)
			}
			if err := os.WriteFile(staged, op.Content, 0o644); err != nil {
				return nil, boterrors.New(boterrors.KindSync, op.Dst, err)
			}
			checksum, err := digest.File(staged)
			if err != nil {
				return nil, boterrors.New(boterrors.KindSync, op.Dst, err)
			}
			entries = append(entries, Entry{Path: op.Dst, SourceAddress: op.SourceAddress, Checksum: string(checksum)})

		case OpRemove:
			syncLog.Printf("removing %s (no longer produced by the plan)", op.Dst)

		default:
			return nil, boterrors.New(boterrors.KindSync, op.Dst, fmt.Errorf("unknown op kind %q", op.Kind))
		}
	}

	if err := fsutil.SyncTree(stagingRoot); err != nil {
		return nil, boterrors.New(boterrors.KindSync, target.Name, err)
	}

	existed := false
	if _, err := os.Stat(finalRoot); err == nil {
		existed = true
		if err := os.Rename(finalRoot, oldRoot); err != nil {
			return nil, boterrors.New(boterrors.KindSync, target.Name, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, boterrors.New(boterrors.KindSync, target.Name, err)
	}

	if err := os.MkdirAll(filepath.Dir(finalRoot), 0o755); err != nil {
		return nil, rollback(oldRoot, finalRoot, existed, boterrors.New(boterrors.KindSync, target.Name, err))
	}
	if err := os.Rename(stagingRoot, finalRoot); err != nil {
		return nil, rollback(oldRoot, finalRoot, existed, boterrors.New(boterrors.KindSync, target.Name, err))
	}
	if err := fsutil.SyncParent(finalRoot); err != nil {
		return nil, boterrors.New(boterrors.KindSync, target.Name, err)
	}
	if existed {
		if err := os.RemoveAll(oldRoot); err != nil {
			return nil, boterrors.New(boterrors.KindSync, target.Name, err)
		}
	}

	state := &State{ToolVersion: toolVersion, ConfigHash: configHash, Entries: entries}
	if err := Save(workspaceRoot, target.Name, state); err != nil {
		return nil, err
	}
	return state, nil
}

// rollback restores the previous target root (if one was moved aside) so a
// failed swap never leaves the workspace in a half-materialized state
// (spec §4.7 apply step 4).
func rollback(oldRoot, finalRoot string, existed bool, cause error) error {
	if existed {
		if _, err := os.Stat(oldRoot); err == nil {
			os.Rename(oldRoot, finalRoot)
		}
	}
	return cause
}

func checksumOf(path string) (digest.Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return digest.Tree(path)
	}
	return digest.File(path)
}
