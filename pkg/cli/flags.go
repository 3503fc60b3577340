package cli

import "github.com/spf13/cobra"

// Global flags shared by every subcommand (spec §6 "all accept --root,
// --global [--profile <name>], --json, --verbose").
var (
	rootFlag    string
	globalFlag  bool
	profileFlag string
	jsonFlag    bool
	verboseFlag bool
)

// AddGlobalFlags registers the five workspace-selection/output flags on
// cmd as persistent flags, following the teacher's pattern of persistent
// flags bound to package-level vars read by each command's Run func. Call
// this once on the root command; cobra propagates persistent flags to
// every subcommand.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&rootFlag, "root", "", "explicit workspace root (overrides discovery)")
	cmd.PersistentFlags().BoolVar(&globalFlag, "global", false, "operate on a named global profile instead of a project-local workspace")
	cmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "global profile name (requires --global)")
	cmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "emit machine-readable JSON instead of formatted text")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
}
