package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/constants"
	"github.com/botpack/botpack/pkg/manifest"
	"github.com/botpack/botpack/pkg/workspace"
)

// NewInitCommand creates a new project manifest in the resolved workspace
// root and, with --global, also registers a named global profile pointing
// at it (spec §3 "Workspace root"). A pre-existing manifest is left
// untouched.
func NewInitCommand() *cobra.Command {
	var name string
	var private bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new botpack workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := workspace.Resolve(workspace.Options{RootFlag: rootFlag})
			if err != nil {
				return err
			}
			if err := os.MkdirAll(root, 0o755); err != nil {
				return boterrors.New(boterrors.KindGeneric, root, err)
			}

			manifestPath := filepath.Join(root, constants.ManifestFilename)
			if _, err := os.Stat(manifestPath); err == nil {
				fmt.Println(console.FormatInfoMessage(fmt.Sprintf("%s already exists, leaving it untouched", manifestPath)))
			} else {
				if name == "" {
					name = filepath.Base(root)
				}
				project := &manifest.Project{
					Version:      1,
					Workspace:    manifest.Workspace{Dir: ".", Name: name, Private: private},
					Dependencies: map[string]manifest.DependencySpec{},
					Sync:         manifest.SyncPolicy{LinkMode: manifest.LinkAuto},
					Targets:      map[string]manifest.TargetConfig{},
					Aliases:      manifest.Aliases{},
				}
				if err := project.Save(manifestPath); err != nil {
					return err
				}
				fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("wrote %s", manifestPath)))
			}

			if err := os.MkdirAll(filepath.Join(root, constants.StateDirName), 0o755); err != nil {
				return boterrors.New(boterrors.KindGeneric, root, err)
			}

			if globalFlag {
				if profileFlag == "" {
					return boterrors.New(boterrors.KindGeneric, "init", fmt.Errorf("--global requires --profile <name>"))
				}
				if err := workspace.SetProfile(profileFlag, root); err != nil {
					return err
				}
				fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("registered global profile %q -> %s", profileFlag, root)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "workspace name (defaults to the directory name)")
	cmd.Flags().BoolVar(&private, "private", false, "mark the workspace private")
	return cmd
}
