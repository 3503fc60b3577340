package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/console"
)

// NewAuditCommand reports every resolved package that declares a
// risk-bearing capability (exec/network/mcp), for a reviewer deciding what
// to trust.
func NewAuditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "List resolved packages and their declared capabilities",
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
			if lf == nil {
				fmt.Println(console.FormatInfoMessage("no lockfile yet; nothing to audit"))
				return nil
			}

			ids := make([]string, 0, len(lf.Packages))
			for id := range lf.Packages {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			if jsonFlag {
				return console.OutputStructOrJSON(lf.Packages, true)
			}
			for _, id := range ids {
				caps := lf.Packages[id].Capabilities
				if len(caps) == 0 {
					continue
				}
				fmt.Printf("%s: %v\n", id, caps)
			}
			return nil
		},
	}
}
