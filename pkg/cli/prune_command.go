package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/digest"
)

// NewPruneCommand removes every store entry not referenced by this
// workspace's lockfile, plus any abandoned staging directories (spec §4.3
// "Prune").
func NewPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove store entries not referenced by the lockfile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()
			lf, err := currentLockfile(ctx)
			if err != nil {
				return err
			}

			keep := map[digest.Digest]bool{}
			if lf != nil {
				for _, pkg := range lf.Packages {
					keep[digest.Digest(pkg.Integrity)] = true
				}
			}

			report, err := ctx.Store.Prune(keep)
			if err != nil {
				return err
			}
			if jsonFlag {
				return console.OutputStructOrJSON(report, true)
			}
			fmt.Println(console.FormatSuccessMessage(fmt.Sprintf(
				"pruned %d entries, reclaimed %s", len(report.RemovedDigests), console.FormatFileSize(report.ReclaimedBytes))))
			return nil
		},
	}
	return cmd
}
