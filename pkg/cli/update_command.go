package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/sync"
)

// NewUpdateCommand re-resolves dependencies against the latest versions
// satisfying the manifest's ranges, ignoring the existing lockfile's pins
// (spec §4.1: re-resolution without --frozen-lockfile is how a range-based
// dependency picks up a new version; unlike `install`, update never reuses
// an existing pin). Naming specific packages restricts which direct
// dependencies the caller means to bump; the resolver has no notion of
// resolving a subset of the graph, so this only validates the names
// against the manifest before re-resolving everything fresh.
func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [pkg...]",
		Short: "Re-resolve dependencies to their latest satisfying versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()
			for _, name := range args {
				if _, ok := ctx.Project.Dependencies[name]; !ok {
					return boterrors.New(boterrors.KindGeneric, name, fmt.Errorf("not a declared dependency"))
				}
			}
			lf, err := resolveAndInstall(ctx, false, false, true)
			if err != nil {
				return err
			}
			fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("updated lockfile: %d package(s)", len(lf.Packages))))

			if ctx.Project.Sync.OnInstall {
				for name := range ctx.Project.Targets {
					if _, _, err := syncTarget(ctx, name, lf, sync.Flags{}); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	return cmd
}
