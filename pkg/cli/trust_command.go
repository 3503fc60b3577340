package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/manifest"
)

// NewTrustCommand records allow/deny capability decisions for a resolved
// package (spec §4.8, CLI surface: "trust <pkg[@ver]> --allow/--deny
// exec|mcp"). --allow and --deny may each be repeated; --server scopes the
// decision to one MCP server's fqid instead of the whole package.
func NewTrustCommand() *cobra.Command {
	var allow, deny []string
	var server string

	cmd := &cobra.Command{
		Use:   "trust <pkg[@ver]>",
		Short: "Update the trust file's capability grants for a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()
			tf, err := manifest.LoadTrustFile(ctx.TrustPath())
			if err != nil {
				return err
			}

			pt, _ := tf.Get(args[0])
			for _, name := range allow {
				if err := applyCapability(&pt, name, server, true); err != nil {
					return err
				}
			}
			for _, name := range deny {
				if err := applyCapability(&pt, name, server, false); err != nil {
					return err
				}
			}
			if len(allow) == 0 && len(deny) == 0 {
				return boterrors.New(boterrors.KindGeneric, args[0], fmt.Errorf("pass at least one --allow or --deny exec|mcp"))
			}

			tf.Set(args[0], pt)
			if err := tf.Save(ctx.TrustPath()); err != nil {
				return err
			}
			fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("trust updated for %s", args[0])))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&allow, "allow", nil, "grant a capability: exec or mcp (repeatable)")
	cmd.Flags().StringArrayVar(&deny, "deny", nil, "revoke a capability: exec or mcp (repeatable)")
	cmd.Flags().StringVar(&server, "server", "", "scope the decision to one MCP server's fqid (per-fqid override)")

	cmd.AddCommand(newTrustListCommand())
	return cmd
}

func applyCapability(pt *manifest.PackageTrust, capability, server string, grant bool) error {
	if server != "" {
		if pt.MCP == nil {
			pt.MCP = map[string]manifest.ServerTrust{}
		}
		st := pt.MCP[server]
		st.AllowExec = grant
		pt.MCP[server] = st
		return nil
	}
	switch capability {
	case "exec":
		pt.AllowExec = grant
	case "mcp":
		pt.AllowMcp = grant
	default:
		return boterrors.New(boterrors.KindGeneric, capability, fmt.Errorf("unrecognized capability, want exec or mcp"))
	}
	return nil
}

func newTrustListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded trust decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()
			tf, err := manifest.LoadTrustFile(ctx.TrustPath())
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(tf.Packages))
			for id := range tf.Packages {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			if jsonFlag {
				return console.OutputStructOrJSON(tf.Packages, true)
			}
			for _, id := range ids {
				pt := tf.Packages[id]
				fmt.Printf("%s: allowExec=%v allowMcp=%v\n", id, pt.AllowExec, pt.AllowMcp)
			}
			return nil
		},
	}
}
