package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/console"
)

// NewWhyCommand explains why a package is in the dependency graph: it
// reports whether the package is a direct dependency and lists the
// lockfile packages that depend on it directly; it does not walk further
// up the graph.
func NewWhyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "why <name@version>",
		Short: "Explain why a resolved package is present",
		Args:  cobra.ExactArgs(1),
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
				return boterrors.New(boterrors.KindGeneric, "why", fmt.Errorf("no lockfile yet"))
			}
			target := args[0]
			if _, ok := lf.Packages[target]; !ok {
				return boterrors.New(boterrors.KindGeneric, target, fmt.Errorf("not in the lockfile"))
			}

			name, _ := splitNameVersion(target)
			if _, direct := lf.Dependencies[name]; direct {
				fmt.Println(console.FormatInfoMessage(fmt.Sprintf("%s is a direct dependency (%s)", target, lf.Dependencies[name])))
			}

			var parents []string
			for id, pkg := range lf.Packages {
				if _, ok := pkg.Dependencies[name]; ok {
					parents = append(parents, id)
				}
			}
			sort.Strings(parents)
			for _, p := range parents {
				fmt.Println(console.FormatInfoMessage(fmt.Sprintf("required by %s", p)))
			}
			if len(parents) == 0 && lf.Dependencies[name] == "" {
				fmt.Println(console.FormatWarningMessage(fmt.Sprintf("%s has no recorded dependents", target)))
			}
			return nil
		},
	}
}
