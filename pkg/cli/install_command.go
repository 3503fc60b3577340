package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/sync"
)

// NewInstallCommand resolves the project's dependencies, populates the
// store and virtual store, writes the lockfile, and (per sync.onInstall)
// syncs every target (spec §4.1 "install").
func NewInstallCommand() *cobra.Command {
	var frozen, offline, noSync bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Resolve dependencies and populate the virtual store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()

			lf, err := resolveAndInstall(ctx, frozen, offline, false)
			if err != nil {
				return err
			}
			fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("resolved %d package(s)", len(lf.Packages))))

			if ctx.Project.Sync.OnInstall && !noSync {
				for name := range ctx.Project.Targets {
					if _, _, err := syncTarget(ctx, name, lf, sync.Flags{}); err != nil {
						return err
					}
					fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("synced target %q", name)))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&frozen, "frozen-lockfile", false, "fail if resolution would change the existing lockfile")
	cmd.Flags().BoolVar(&offline, "offline", false, "serve registry lookups from the local cache only")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "skip the automatic sync step even if sync.onInstall is set")
	return cmd
}
