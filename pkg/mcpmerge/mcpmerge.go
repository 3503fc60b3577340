// Package mcpmerge implements the MCP merger (spec §4.8): collecting every
// resolved package's mcp/servers.toml declarations, gating each through
// pkg/trust, detecting fqid collisions, and emitting a deterministic,
// sorted-by-fqid server list ready for a target's MCP config file.
package mcpmerge

import (
	"fmt"
	"sort"

	"github.com/botpack/botpack/pkg/assets"
	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/manifest"
	"github.com/botpack/botpack/pkg/trust"
)

// Server is one allowed MCP server ready for output.
type Server struct {
	FQID    string
	Command string
	Args    []string
	Env     map[string]string
}

// Skip records a capability-gated server omitted from output (spec §4.8:
// "a denied server is omitted... and reported as a capability gate").
type Skip struct {
	FQID   string
	Reason string
}

// Result is the merger's output: the allowed servers (sorted by fqid) and
// everything that was gated out.
type Result struct {
	Servers []Server
	Skipped []Skip
}

// PackageVersions maps an owning package's bare name (as carried on
// assets.Asset.OwningPackage) to its resolved "name@version" identity, so
// the merger can look trust up by the identity spec §4.8 keys it on.
type PackageVersions map[string]string

// Merge gates and merges every mcp-server asset in serverAssets. interactive
// and confirm control how an *unrecorded* trust decision is resolved (see
// pkg/trust.Gate); a recorded denial is always a silent Skip.
func Merge(serverAssets []assets.Asset, pkgVersions PackageVersions, tf *manifest.TrustFile, interactive bool, confirm trust.Confirmer) (*Result, error) {
	seen := map[string]bool{}
	result := &Result{}

	for _, a := range serverAssets {
		if a.Type != assets.TypeMCPServer {
			continue
		}
		if seen[a.ID] {
			return nil, boterrors.New(boterrors.KindSync, a.ID,
				fmt.Errorf("duplicate mcp server fully-qualified id %q", a.ID))
		}
		seen[a.ID] = true

		packageID, ok := pkgVersions[a.OwningPackage]
		if !ok {
			return nil, boterrors.New(boterrors.KindSync, a.ID,
				fmt.Errorf("mcp server %q belongs to unresolved package %q", a.ID, a.OwningPackage))
		}

		requiresExec, _ := a.Metadata["exec"].(bool)
		decision, err := trust.Gate(trust.Request{
			PackageID:    packageID,
			ServerID:     a.ID,
			RequiresExec: requiresExec,
			RequiresMCP:  true,
		}, tf, interactive, confirm)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			result.Skipped = append(result.Skipped, Skip{FQID: a.ID, Reason: decision.Reason})
			continue
		}

		result.Servers = append(result.Servers, Server{
			FQID:    a.ID,
			Command: stringMeta(a.Metadata, "command"),
			Args:    stringSliceMeta(a.Metadata, "args"),
			Env:     stringMapMeta(a.Metadata, "env"),
		})
	}

	sort.Slice(result.Servers, func(i, j int) bool { return result.Servers[i].FQID < result.Servers[j].FQID })
	sort.Slice(result.Skipped, func(i, j int) bool { return result.Skipped[i].FQID < result.Skipped[j].FQID })
	return result, nil
}

func stringMeta(meta map[string]interface{}, key string) string {
	s, _ := meta[key].(string)
	return s
}

func stringSliceMeta(meta map[string]interface{}, key string) []string {
	raw, ok := meta[key].([]string)
	if ok {
		return raw
	}
	return nil
}

func stringMapMeta(meta map[string]interface{}, key string) map[string]string {
	raw, ok := meta[key].(map[string]string)
	if ok {
		return raw
	}
	return nil
}
