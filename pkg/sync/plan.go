package sync

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/botpack/botpack/pkg/assets"
	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/mcpmerge"
	"github.com/botpack/botpack/pkg/stringutil"
	"github.com/botpack/botpack/pkg/vstore"
)

// OpKind names the four materialization primitives spec §4.7 defines.
type OpKind string

const (
	OpCreateDir OpKind = "CREATE_DIR"
	OpLink      OpKind = "LINK"
	OpWriteFile OpKind = "WRITE_FILE"
	OpRemove    OpKind = "REMOVE"
)

// Op is one planned materialization step. Dst is relative to the workspace
// root and begins with the target's root (or a fallback root such as
// .claude/skills), so Plan's output doesn't need the absolute workspace path.
type Op struct {
	Kind OpKind
	Dst  string

	Src      string // OpLink source: an absolute path to store/asset content
	LinkMode vstore.LinkMode

	Content []byte // OpWriteFile content

	SourceAddress string // asset address this op materializes, for sync state
}

// CapabilitySkip records an asset the plan omitted because the target
// doesn't support its type, or (for MCP) has no output configured.
type CapabilitySkip struct {
	Address string
	Reason  string
}

// Address returns the stable identity used for aliasing, hiding, and sync
// state ("<type>:workspace:<id>" or "<type>:<owning-package>:<id>").
func Address(a assets.Asset) string {
	if a.Source == assets.SourceWorkspace {
		return fmt.Sprintf("%s:workspace:%s", a.Type, a.ID)
	}
	return fmt.Sprintf("%s:%s:%s", a.Type, a.OwningPackage, a.ID)
}

func qualifiedName(a assets.Asset) string {
	if a.Source == assets.SourceWorkspace {
		return a.ID
	}
	return stringutil.QualifyName(a.OwningPackage, a.ID)
}

// Plan computes the materialization plan for target from assetList (every
// skill/command/agent asset visible to this workspace) and mcpResult
// (already gated through pkg/trust). aliases rewrites an address's final
// name; hidden addresses are omitted entirely (spec §4.7's alias/hide
// override). linkMode is passed through to every LINK op.
func Plan(target Target, assetList []assets.Asset, aliases map[string]string, hidden map[string]bool, mcpResult *mcpmerge.Result, linkMode vstore.LinkMode) ([]Op, []CapabilitySkip, error) {
	type placement struct {
		op      Op
		address string
	}

	var placements []placement
	var skips []CapabilitySkip
	dstOwner := map[string]string{} // dst -> address, for collision detection

	place := func(a assets.Asset, dst string, op Op) error {
		if existing, ok := dstOwner[dst]; ok && existing != Address(a) {
			return boterrors.New(boterrors.KindSync, dst,
				fmt.Errorf("both %q and %q materialize to %q; use an alias or hide one", existing, Address(a), dst))
		}
		dstOwner[dst] = Address(a)
		placements = append(placements, placement{op: op, address: Address(a)})
		return nil
	}

	for _, a := range assetList {
		addr := Address(a)
		if hidden[addr] {
			continue
		}

		name := qualifiedName(a)
		if alias, ok := aliases[addr]; ok {
			name = alias
		}

		switch a.Type {
		case assets.TypeSkill:
			root := target.SkillsRoot()
			if root == "" {
				skips = append(skips, CapabilitySkip{Address: addr, Reason: "target does not support skills"})
				continue
			}
			dst := filepath.Join(root, name)
			if err := place(a, dst, Op{
				Kind: OpLink, Dst: dst, Src: filepath.Dir(a.Path), LinkMode: linkMode, SourceAddress: addr,
			}); err != nil {
				return nil, nil, err
			}

		case assets.TypeCommand:
			root := target.CommandsRoot()
			if root == "" {
				skips = append(skips, CapabilitySkip{Address: addr, Reason: "target does not support commands"})
				continue
			}
			dst := filepath.Join(root, name+filepath.Ext(a.Path))
			if err := place(a, dst, Op{
				Kind: OpLink, Dst: dst, Src: a.Path, LinkMode: linkMode, SourceAddress: addr,
			}); err != nil {
				return nil, nil, err
			}

		case assets.TypeAgent:
			root := target.AgentsRoot()
			if root == "" {
				skips = append(skips, CapabilitySkip{Address: addr, Reason: "target does not support agents"})
				continue
			}
			dst := filepath.Join(root, name+filepath.Ext(a.Path))
			if err := place(a, dst, Op{
				Kind: OpLink, Dst: dst, Src: a.Path, LinkMode: linkMode, SourceAddress: addr,
			}); err != nil {
				return nil, nil, err
			}

		default:
			// mcp-server and policy-fragment assets are not directly
			// materialized by the sync plan; MCP output is handled below
			// from the already-merged result, and policy fragments have no
			// target-facing output surface in spec §4.7's table.
		}
	}

	if mcpResult != nil {
		if target.MCPOut != "" {
			data, err := mcpResult.Marshal()
			if err != nil {
				return nil, nil, boterrors.New(boterrors.KindSync, target.Name, err)
			}
			placements = append(placements, placement{
				op: Op{Kind: OpWriteFile, Dst: filepath.Join(target.Root, target.MCPOut), Content: data},
			})
		} else if len(mcpResult.Servers) > 0 {
			for _, s := range mcpResult.Servers {
				skips = append(skips, CapabilitySkip{Address: s.FQID, Reason: "no mcpOut configured for target " + target.Name})
			}
		}
	}

	dirs := map[string]bool{}
	for _, p := range placements {
		dirs[filepath.Dir(p.op.Dst)] = true
	}
	dirList := make([]string, 0, len(dirs))
	for d := range dirs {
		dirList = append(dirList, d)
	}
	sort.Strings(dirList)

	ops := make([]Op, 0, len(dirList)+len(placements))
	for _, d := range dirList {
		ops = append(ops, Op{Kind: OpCreateDir, Dst: d})
	}
	sort.Slice(placements, func(i, j int) bool { return placements[i].op.Dst < placements[j].op.Dst })
	for _, p := range placements {
		ops = append(ops, p.op)
	}

	sort.Slice(skips, func(i, j int) bool { return skips[i].Address < skips[j].Address })
	return ops, skips, nil
}

// Clean appends REMOVE ops for every path in previous that the new plan no
// longer produces (spec §4.7 "--clean").
func Clean(ops []Op, previous *State) []Op {
	if previous == nil {
		return ops
	}
	kept := map[string]bool{}
	for _, op := range ops {
		if op.Kind == OpLink || op.Kind == OpWriteFile {
			kept[op.Dst] = true
		}
	}
	var removes []Op
	for _, e := range previous.Entries {
		if !kept[e.Path] {
			removes = append(removes, Op{Kind: OpRemove, Dst: e.Path, SourceAddress: e.SourceAddress})
		}
	}
	sort.Slice(removes, func(i, j int) bool { return removes[i].Dst < removes[j].Dst })
	return append(ops, removes...)
}
