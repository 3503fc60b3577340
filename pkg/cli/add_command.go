package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/manifest"
	"github.com/botpack/botpack/pkg/sync"
)

// NewAddCommand declares one or more new dependencies in the project
// manifest and installs them (spec §3 dependency spec union: a bare
// semver range, or --git/--path/--url). The --git/--path/--url flags only
// make sense for a single dependency at a time; plain "name" or
// "name@range" specs can be given in bulk.
func NewAddCommand() *cobra.Command {
	var gitURL, rev, path, url, integrity string

	cmd := &cobra.Command{
		Use:   "add <spec...>",
		Short: "Add one or more dependencies and install them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()

			if (gitURL != "" || path != "" || url != "") && len(args) != 1 {
				return fmt.Errorf("--git/--path/--url name a single dependency; pass exactly one name")
			}

			if ctx.Project.Dependencies == nil {
				ctx.Project.Dependencies = map[string]manifest.DependencySpec{}
			}

			for _, arg := range args {
				name, rangeStr := arg, ""
				if i := strings.LastIndex(arg, "@"); i > 0 {
					name, rangeStr = arg[:i], arg[i+1:]
				}

				spec := manifest.DependencySpec{}
				switch {
				case gitURL != "":
					spec.Git, spec.Rev = gitURL, rev
				case path != "":
					spec.Path = path
				case url != "":
					spec.URL, spec.Integrity = url, integrity
				case rangeStr != "":
					spec.Semver = rangeStr
				default:
					spec.Semver = "*"
				}
				if err := spec.Validate(); err != nil {
					return err
				}

				ctx.Project.Dependencies[name] = spec
				fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("added %s (%s)", name, strings.TrimSpace(spec.String()))))
			}

			if err := ctx.Project.Save(ctx.ManifestPath()); err != nil {
				return err
			}

			lf, err := resolveAndInstall(ctx, false, false, false)
			if err != nil {
				return err
			}

			if ctx.Project.Sync.OnAdd {
				for tname := range ctx.Project.Targets {
					if _, _, err := syncTarget(ctx, tname, lf, sync.Flags{}); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gitURL, "git", "", "git repository URL")
	cmd.Flags().StringVar(&rev, "rev", "", "git ref or commit (with --git)")
	cmd.Flags().StringVar(&path, "path", "", "local filesystem path")
	cmd.Flags().StringVar(&url, "url", "", "tarball URL")
	cmd.Flags().StringVar(&integrity, "integrity", "", "expected digest for the tarball (with --url)")
	return cmd
}
