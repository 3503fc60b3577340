package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/console"
)

// NewPrefetchCommand resolves and populates the store/virtual store without
// syncing any target — warms the cache ahead of an offline install.
func NewPrefetchCommand() *cobra.Command {
	var frozen bool

	cmd := &cobra.Command{
		Use:   "prefetch",
		Short: "Resolve and populate the store without syncing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()
			lf, err := resolveAndInstall(ctx, frozen, false, false)
			if err != nil {
				return err
			}
			fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("prefetched %d package(s)", len(lf.Packages))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&frozen, "frozen-lockfile", false, "fail if resolution would change the existing lockfile")
	return cmd
}
