package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/cli"
	"github.com/botpack/botpack/pkg/console"
	"github.com/botpack/botpack/pkg/constants"
)

// version is set by the release build; "dev" in local builds.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   constants.CLIName,
	Short: "A package manager for AI-assistant agent assets",
	Long: `botpack installs and synchronizes reusable skills, commands, agents, and
MCP server bundles across assistant runtimes (Claude, Amp, Droid, ...).

Common Tasks:
  botpack init                 # Start a new workspace
  botpack add <pkg>             # Add a dependency
  botpack install               # Resolve and fetch dependencies
  botpack sync                  # Materialize assets into every target
  botpack list                  # Show available assets

For detailed help on any command, use:
  botpack [command] --help`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
		&cobra.Group{ID: "lifecycle", Title: "Lifecycle Commands:"},
		&cobra.Group{ID: "inspect", Title: "Inspection Commands:"},
		&cobra.Group{ID: "trust", Title: "Trust Commands:"},
	)

	cli.AddGlobalFlags(rootCmd)

	rootCmd.SetOut(os.Stderr)
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s\n",
		console.FormatInfoMessage(fmt.Sprintf("%s version {{.Version}}", constants.CLIName))))

	initCmd := cli.NewInitCommand()
	addCmd := cli.NewAddCommand()
	removeCmd := cli.NewRemoveCommand()
	installCmd := cli.NewInstallCommand()
	updateCmd := cli.NewUpdateCommand()
	syncCmd := cli.NewSyncCommand()
	prefetchCmd := cli.NewPrefetchCommand()
	verifyCmd := cli.NewVerifyCommand()
	pruneCmd := cli.NewPruneCommand()
	trustCmd := cli.NewTrustCommand()
	listCmd := cli.NewListCommand()
	treeCmd := cli.NewTreeCommand()
	infoCmd := cli.NewInfoCommand()
	whyCmd := cli.NewWhyCommand()
	auditCmd := cli.NewAuditCommand()
	catalogCmd := cli.NewCatalogCommand()
	doctorCmd := cli.NewDoctorCommand()

	initCmd.GroupID = "setup"
	addCmd.GroupID = "setup"
	removeCmd.GroupID = "setup"

	installCmd.GroupID = "lifecycle"
	updateCmd.GroupID = "lifecycle"
	syncCmd.GroupID = "lifecycle"
	prefetchCmd.GroupID = "lifecycle"
	verifyCmd.GroupID = "lifecycle"
	pruneCmd.GroupID = "lifecycle"

	listCmd.GroupID = "inspect"
	treeCmd.GroupID = "inspect"
	infoCmd.GroupID = "inspect"
	whyCmd.GroupID = "inspect"
	auditCmd.GroupID = "inspect"
	catalogCmd.GroupID = "inspect"
	doctorCmd.GroupID = "inspect"

	trustCmd.GroupID = "trust"

	rootCmd.AddCommand(
		initCmd, addCmd, removeCmd,
		installCmd, updateCmd, syncCmd, prefetchCmd, verifyCmd, pruneCmd,
		listCmd, treeCmd, infoCmd, whyCmd, auditCmd, catalogCmd, doctorCmd,
		trustCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		if be, ok := boterrors.As(err); ok {
			os.Exit(boterrors.ExitCode(be.Kind))
		}
		os.Exit(1)
	}
}
