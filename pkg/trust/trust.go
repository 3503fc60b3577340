// Package trust implements the capability gate (spec §4.8): deciding, for
// each MCP server (or other capability-bearing asset) a sync plan wants to
// materialize, whether a recorded trust.toml decision allows it.
package trust

import (
	"fmt"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/manifest"
)

// Request names one capability-bearing decision the gate must make: a
// single MCP server within a resolved package, or a bare capability check
// for a non-MCP asset.
type Request struct {
	PackageID    string // "name@version"
	ServerID     string // the MCP server's fqid; empty for non-MCP requests
	RequiresExec bool
	RequiresMCP  bool
}

// Decision is the gate's verdict plus the reasoning, for --json and
// audit output.
type Decision struct {
	Allowed bool
	Reason  string // e.g. "per-server override", "package-wide allowMcp", "default deny"
}

// Evaluate applies the lookup precedence from spec §4.8: per-fqid override,
// then package-wide allow flags, then default deny. It never prompts; use
// Gate for the interactive/non-interactive materialization decision.
func Evaluate(req Request, tf *manifest.TrustFile) Decision {
	pt, ok := tf.Get(req.PackageID)
	if !ok {
		return Decision{Allowed: false, Reason: "default deny: no trust record for " + req.PackageID}
	}

	if req.ServerID != "" {
		if st, ok := pt.MCP[req.ServerID]; ok {
			if req.RequiresExec && !st.AllowExec {
				return Decision{Allowed: false, Reason: fmt.Sprintf("per-server override denies exec for %s", req.ServerID)}
			}
			return Decision{Allowed: true, Reason: fmt.Sprintf("per-server override allows %s", req.ServerID)}
		}
	}

	if req.RequiresMCP && !pt.AllowMcp {
		return Decision{Allowed: false, Reason: "package-wide allowMcp is not set"}
	}
	if req.RequiresExec && !pt.AllowExec {
		return Decision{Allowed: false, Reason: "package-wide allowExec is not set"}
	}
	return Decision{Allowed: true, Reason: "package-wide allow flags"}
}

// Confirmer prompts the user for a yes/no decision; satisfied by
// console.ConfirmAction in production and stubbed in tests.
type Confirmer func(title, affirmative, negative string) (bool, error)

// Gate resolves a Request against tf, applying spec §4.8's materialization
// rule: a denied server is omitted (not an error); an *unrecorded*
// capability-bearing request prompts interactively, or fails with
// KindTrustBlocked when non-interactive.
func Gate(req Request, tf *manifest.TrustFile, interactive bool, confirm Confirmer) (Decision, error) {
	decision := Evaluate(req, tf)
	if decision.Allowed {
		return decision, nil
	}

	_, recorded := tf.Get(req.PackageID)
	if recorded {
		// An explicit denial is not an error: the caller omits the server
		// from the sync plan and reports a capability-gate skip.
		return decision, nil
	}

	if !interactive {
		return decision, boterrors.New(boterrors.KindTrustBlocked, req.PackageID,
			fmt.Errorf("no trust record for %s; re-run with a terminal attached or record trust with `botpack trust`", req.PackageID)).
			WithHint(fmt.Sprintf("run `botpack trust %s --allow exec --allow mcp`", req.PackageID))
	}

	title := fmt.Sprintf("%s requests capabilities not yet trusted — allow it?", req.PackageID)
	ok, err := confirm(title, "Allow", "Deny")
	if err != nil {
		return decision, boterrors.New(boterrors.KindTrustBlocked, req.PackageID, err)
	}
	if !ok {
		return Decision{Allowed: false, Reason: "denied interactively"}, nil
	}
	return Decision{Allowed: true, Reason: "allowed interactively"}, nil
}

var _ Confirmer = console.ConfirmAction
