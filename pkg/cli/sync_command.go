package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/lockfile"
	"github.com/botpack/botpack/pkg/sync"
)

// NewSyncCommand materializes one or more targets from the current
// lockfile/asset index (spec §4.7). Bare `sync` (no target arguments)
// syncs every target declared in the manifest.
func NewSyncCommand() *cobra.Command {
	var dryRun, clean, force, watch bool

	cmd := &cobra.Command{
		Use:   "sync [target...]",
		Short: "Materialize assets into one or more runtime targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()

			targets := args
			if len(targets) == 0 {
				for name := range ctx.Project.Targets {
					targets = append(targets, name)
				}
				if len(targets) == 0 {
					return fmt.Errorf("no targets given and none declared in the manifest")
				}
			}

			lf, err := currentLockfile(ctx)
			if err != nil {
				return err
			}

			runOnce := func() error {
				for _, name := range targets {
					state, skips, err := syncTarget(ctx, name, lf, sync.Flags{DryRun: dryRun, Clean: clean, Force: force})
					if err != nil {
						return err
					}
					for _, s := range skips {
						fmt.Println(console.FormatWarningMessage(fmt.Sprintf("%s: %s (target %q has no output for it)", s.Address, s.Reason, name)))
					}
					if dryRun {
						fmt.Println(console.FormatInfoMessage(fmt.Sprintf("dry run for %q: %d op(s) planned", name, len(state.Entries))))
						continue
					}
					fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("synced %q: %d path(s) materialized", name, len(state.Entries))))
				}
				return nil
			}

			if err := runOnce(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			watchCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watchDirs := []string{filepath.Join(ctx.Root, ctx.Project.Workspace.Dir), filepath.Join(ctx.StateDir(), "pkgs")}
			fmt.Println(console.FormatInfoMessage("watching for changes, press Ctrl-C to stop"))
			return sync.Watch(watchCtx, watchDirs, func() {
				if err := runOnce(); err != nil {
					fmt.Println(console.FormatErrorMessage(err.Error()))
				}
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print how many ops the plan has, without writing (the ops are not listed)")
	cmd.Flags().BoolVar(&clean, "clean", false, "remove previously-synced paths no longer in the plan")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite paths that drifted since the last sync")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-sync on filesystem events")
	return cmd
}

// currentLockfile loads the workspace's lockfile, or nil if one doesn't
// exist yet (a workspace with no dependencies can still sync workspace-local
// assets).
func currentLockfile(ctx *Context) (*lockfile.Lockfile, error) {
	data, err := os.ReadFile(ctx.LockfilePath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lockfile.Parse(data)
}
