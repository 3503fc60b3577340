package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/console"
)

// NewCatalogCommand writes (or re-prints) .botpack/catalog.json, the
// metadata-only asset index (spec §4.9).
func NewCatalogCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Emit the metadata-only asset catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()
			c, err := loadCatalog(ctx)
			if err != nil {
				return err
			}
			data, err := c.Marshal()
			if err != nil {
				return err
			}

			if write {
				if err := os.WriteFile(ctx.CatalogPath(), data, 0o644); err != nil {
					return err
				}
				fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("wrote %s", ctx.CatalogPath())))
				return nil
			}
			fmt.Print(string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write to .botpack/catalog.json instead of stdout")
	return cmd
}
