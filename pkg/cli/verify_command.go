package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/digest"
)

// NewVerifyCommand re-hashes every store entry the lockfile references and
// reports bitrot (spec §4.3 "Verify": re-hash payload, compare to the lockfile's
// integrity digest).
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-verify every store entry this lockfile references",
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
				fmt.Println(console.FormatInfoMessage("no lockfile yet; nothing to verify"))
				return nil
			}

			ids := make([]string, 0, len(lf.Packages))
			for id := range lf.Packages {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			var failed []string
			for _, id := range ids {
				d := digest.Digest(lf.Packages[id].Integrity)
				if err := ctx.Store.Verify(d); err != nil {
					failed = append(failed, id)
					fmt.Println(console.FormatErrorMessage(fmt.Sprintf("%s: %v", id, err)))
				}
			}

			if len(failed) > 0 {
				return boterrors.New(boterrors.KindStore, failed[0],
					fmt.Errorf("%d of %d store entries failed verification", len(failed), len(ids)))
			}
			fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("verified %d store entries", len(ids))))
			return nil
		},
	}
	return cmd
}
