package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/digest"
	"github.com/botpack/botpack/pkg/sync"
)

// NewDoctorCommand runs a battery of workspace sanity checks: lockfile
// presence, store entry integrity, and sync drift for every declared
// target, and reports them without changing anything.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common workspace problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := LoadContext(true)
			if err != nil {
				return err
			}
			defer ctx.Close()

			ok := true
			check := func(name string, cond bool, detail string) {
				if cond {
					fmt.Println(console.FormatSuccessMessage(name))
					return
				}
				ok = false
				fmt.Println(console.FormatWarningMessage(fmt.Sprintf("%s: %s", name, detail)))
			}

			_, statErr := os.Stat(ctx.LockfilePath())
			check("lockfile present", statErr == nil, "run `botpack install`")

			lf, err := currentLockfile(ctx)
			if err != nil {
				return err
			}
			if lf != nil {
				failures := 0
				for _, pkg := range lf.Packages {
					if verr := ctx.Store.Verify(digest.Digest(pkg.Integrity)); verr != nil {
						failures++
					}
				}
				check("store entries verify", failures == 0, fmt.Sprintf("%d entr(y/ies) failed verification; run `botpack verify`", failures))
			}

			for name := range ctx.Project.Targets {
				target, terr := resolveTarget(ctx, name)
				if terr != nil {
					check(fmt.Sprintf("target %q resolvable", name), false, terr.Error())
					continue
				}
				previous, serr := sync.LoadState(ctx.Root, name)
				if serr != nil {
					check(fmt.Sprintf("target %q sync state", name), false, serr.Error())
					continue
				}
				conflicts, derr := sync.DetectDrift(ctx.Root, previous)
				if derr != nil {
					check(fmt.Sprintf("target %q drift check", name), false, derr.Error())
					continue
				}
				check(fmt.Sprintf("target %q (%s) matches last sync", name, target.Root), len(conflicts) == 0,
					fmt.Sprintf("%d path(s) drifted; run `botpack sync %s`", len(conflicts), name))
			}

			if !ok {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}
}
