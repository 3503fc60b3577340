package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/logger"
	"github.com/botpack/botpack/pkg/stringutil"
)

var scanLog = logger.New("assets:scan")

// Root names a directory to scan and the provenance to stamp on everything
// found under it.
type Root struct {
	Dir           string
	Source        Source
	OwningPackage string // package name; required when Source == SourcePackage
}

// Scan walks every root and returns the union of recognized assets, ordered
// by (type, owning package, id) per spec §4.6.
func Scan(roots []Root) ([]Asset, error) {
	var all []Asset
	for _, root := range roots {
		found, err := scanOne(root)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	sort.Slice(all, func(i, j int) bool {
		ti, oi, ii := all[i].sortKey()
		tj, oj, ij := all[j].sortKey()
		if ti != tj {
			return ti < tj
		}
		if oi != oj {
			return oi < oj
		}
		return ii < ij
	})
	return all, nil
}

func scanOne(root Root) ([]Asset, error) {
	var out []Asset

	skills, err := scanMarkdownDir(root, TypeSkill, filepath.Join(root.Dir, "skills"), "SKILL.md", true)
	if err != nil {
		return nil, err
	}
	out = append(out, skills...)

	commands, err := scanMarkdownFiles(root, TypeCommand, filepath.Join(root.Dir, "commands"))
	if err != nil {
		return nil, err
	}
	out = append(out, commands...)

	agentAssets, err := scanMarkdownFiles(root, TypeAgent, filepath.Join(root.Dir, "agents"))
	if err != nil {
		return nil, err
	}
	out = append(out, agentAssets...)

	mcpAssets, err := scanMCP(root)
	if err != nil {
		return nil, err
	}
	out = append(out, mcpAssets...)

	policyAssets, err := scanPolicy(root)
	if err != nil {
		return nil, err
	}
	out = append(out, policyAssets...)

	return out, nil
}

// scanMarkdownDir recognizes "<dir>/<id>/<primaryFile>" assets, one per
// subdirectory (used for skills/<id>/SKILL.md). When withScripts is set, it
// also attaches PEP-723 metadata found under "<dir>/<id>/scripts/*.py".
func scanMarkdownDir(root Root, typ Type, dir, primaryFile string, withScripts bool) ([]Asset, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, dir, err)
	}

	var out []Asset
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		path := filepath.Join(dir, id, primaryFile)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, boterrors.New(boterrors.KindParse, path, err)
		}

		fm, err := extractFrontmatter(data)
		if err != nil {
			return nil, boterrors.New(boterrors.KindParse, path, err).WithChain("parsing asset frontmatter")
		}

		if withScripts {
			scripts, err := scanScripts(filepath.Join(dir, id, "scripts"))
			if err != nil {
				return nil, err
			}
			if len(scripts) > 0 {
				fm.Frontmatter["scripts"] = scripts
			}
		}

		out = append(out, Asset{
			Type:          typ,
			ID:            id,
			Source:        root.Source,
			OwningPackage: root.OwningPackage,
			Path:          path,
			Metadata:      fm.Frontmatter,
		})
	}
	return out, nil
}

// scanMarkdownFiles recognizes "<dir>/<id>.md" assets (used for commands and
// agents).
func scanMarkdownFiles(root Root, typ Type, dir string) ([]Asset, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, dir, err)
	}

	var out []Asset
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".md")
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, boterrors.New(boterrors.KindParse, path, err)
		}
		fm, err := extractFrontmatter(data)
		if err != nil {
			return nil, boterrors.New(boterrors.KindParse, path, err).WithChain("parsing asset frontmatter")
		}
		out = append(out, Asset{
			Type:          typ,
			ID:            id,
			Source:        root.Source,
			OwningPackage: root.OwningPackage,
			Path:          path,
			Metadata:      fm.Frontmatter,
		})
	}
	return out, nil
}

// scanScripts returns one PEP-723 metadata map per "<dir>/*.py" file that
// carries a block, keyed by filename.
func scanScripts(dir string) (map[string]interface{}, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, dir, err)
	}

	out := map[string]interface{}{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".py") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, boterrors.New(boterrors.KindParse, path, err)
		}
		block, err := extractPEP723(data)
		if err != nil {
			return nil, boterrors.New(boterrors.KindParse, path, err).WithChain("parsing PEP 723 metadata block")
		}
		if block == nil {
			continue
		}
		out[e.Name()] = map[string]interface{}{
			"requires-python": block.RequiresPython,
			"dependencies":    block.Dependencies,
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func scanMCP(root Root) ([]Asset, error) {
	path := filepath.Join(root.Dir, "mcp", "servers.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, path, err)
	}

	file, err := parseMCPServers(data)
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, path, err).WithChain("parsing mcp/servers.toml")
	}

	ids := make([]string, 0, len(file.Servers))
	for id := range file.Servers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Asset, 0, len(ids))
	for _, id := range ids {
		fqid := id
		if root.OwningPackage != "" {
			fqid = stringutil.FullyQualifiedID(root.OwningPackage, id)
		}
		out = append(out, Asset{
			Type:          TypeMCPServer,
			ID:            fqid,
			Source:        root.Source,
			OwningPackage: root.OwningPackage,
			Path:          path,
			Metadata:      file.Servers[id].toMetadata(),
		})
	}
	return out, nil
}

// scanPolicy recognizes "policy/*" files as policy-fragment assets. Each
// fragment is a markdown file with optional YAML frontmatter, keyed by its
// filename without extension.
func scanPolicy(root Root) ([]Asset, error) {
	dir := filepath.Join(root.Dir, "policy")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, boterrors.New(boterrors.KindParse, dir, err)
	}

	var out []Asset
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, boterrors.New(boterrors.KindParse, path, err)
		}

		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		meta := map[string]interface{}{}
		if fm, err := extractFrontmatter(data); err == nil {
			meta = fm.Frontmatter
		}

		out = append(out, Asset{
			Type:          TypePolicyFragment,
			ID:            id,
			Source:        root.Source,
			OwningPackage: root.OwningPackage,
			Path:          path,
			Metadata:      meta,
		})
	}
	return out, nil
}

// Validate reports whether a required asset field is missing, per spec
// §4.6 "Fails with parse on malformed frontmatter" — a "name" field is the
// minimum every skill, command and agent frontmatter block must carry;
// mcp-server and policy-fragment assets are not checked.
func Validate(a Asset) error {
	if stringField(a.Metadata, "name") == "" && a.Type != TypeMCPServer && a.Type != TypePolicyFragment {
		return fmt.Errorf("asset %s (%s) is missing a %q frontmatter field", a.ID, a.Type, "name")
	}
	return nil
}
