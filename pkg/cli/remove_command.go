package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/console"
)

// NewRemoveCommand deletes one or more dependency entries from the project
// manifest and re-resolves so the lockfile and virtual store drop them too.
func NewRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name...>",
		Short: "Remove one or more dependencies",
		Args:  cobra.MinimumNArgs(1),
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
			for _, name := range args {
				delete(ctx.Project.Dependencies, name)
			}
			if err := ctx.Project.Save(ctx.ManifestPath()); err != nil {
				return err
			}

			lf, err := resolveAndInstall(ctx, false, false, false)
			if err != nil {
				return err
			}
			fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("removed %d package(s); %d remain", len(args), len(lf.Packages))))
			return nil
		},
	}
	return cmd
}
