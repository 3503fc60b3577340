package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/catalog"
	"github.com/botpack/botpack/pkg/console"
)

// loadCatalog builds the catalog by re-scanning the workspace and the
// lockfile's packages live; .botpack/catalog.json is never read, so
// introspection commands never require a prior `sync`.
func loadCatalog(ctx *Context) (*catalog.Catalog, error) {
	lf, err := currentLockfile(ctx)
	if err != nil {
		return nil, err
	}
	assetList, err := scanWorkspace(ctx, lf)
	if err != nil {
		return nil, err
	}
	var caps catalog.PackageCapabilities
	if lf != nil {
		caps = packageCapabilities(lf)
	}
	return catalog.Build(assetList, caps), nil
}

// NewListCommand lists every recognized asset across the workspace and its
// resolved packages.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every recognized asset",
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
			if jsonFlag {
				return console.OutputStructOrJSON(c, true)
			}
			for _, e := range c.Entries {
				owner := e.OwningPackage
				if owner == "" {
					owner = "(workspace)"
				}
				fmt.Printf("%-16s %-30s %s\n", e.Type, e.ID, owner)
			}
			return nil
		},
	}
}

// NewTreeCommand groups the catalog by owning package, showing which
// assets each resolved dependency contributes.
func NewTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show assets grouped by owning package",
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

			byOwner := map[string][]catalog.Entry{}
			order := []string{}
			for _, e := range c.Entries {
				owner := e.OwningPackage
				if owner == "" {
					owner = "(workspace)"
				}
				if _, ok := byOwner[owner]; !ok {
					order = append(order, owner)
				}
				byOwner[owner] = append(byOwner[owner], e)
			}

			if jsonFlag {
				return console.OutputStructOrJSON(byOwner, true)
			}
			for _, owner := range order {
				fmt.Println(console.FormatListHeader(owner))
				for _, e := range byOwner[owner] {
					fmt.Println(console.FormatListItem(fmt.Sprintf("%s:%s", e.Type, e.ID)))
				}
			}
			return nil
		},
	}
}
