package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/console"
)

// NewInfoCommand prints the catalog entry for a single asset, addressed by
// "<type>:<id>" (e.g. "skill:fetch_web").
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <type>:<id>",
		Short: "Show a single asset's catalog entry",
		Args:  cobra.ExactArgs(1),
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
			for _, e := range c.Entries {
				if fmt.Sprintf("%s:%s", e.Type, e.ID) == args[0] {
					if jsonFlag {
						return console.OutputStructOrJSON(e, true)
					}
					fmt.Println(console.RenderStruct(e))
					return nil
				}
			}
			return boterrors.New(boterrors.KindGeneric, args[0], fmt.Errorf("no such asset"))
		},
	}
}
