// Package cmd implements the gitshift command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/config"
	"github.com/ksteinfeldt/gitshift/internal/logging"
	"github.com/ksteinfeldt/gitshift/internal/notify"
)

// Command group ids, in help display order.
const (
	GroupIdentity = "identity"
	GroupAuth     = "auth"
	GroupDiag     = "diagnostics"
)

// Version is stamped at build time.
var Version = "dev"

var (
	cfg      *config.Config
	stateDir string
)

var rootCmd = &cobra.Command{
	Use:   "gitshift",
	Short: "Switch git and GitHub identities from one place",
	Long: `Gitshift keeps a list of identities (display name, email, and an
optional GitHub token) and switches the global git config and the gh
CLI credential store between them in one step.

Examples:
  gitshift add "Work" --email me@corp.example --device
  gitshift switch
  gitshift status`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.StateDir()
		if err != nil {
			return err
		}
		stateDir = dir

		cfg, err = config.Load(dir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logging.Setup(cfg.LogLevel)
		notify.Initialize(cfg.Notify)
		return nil
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupIdentity, Title: "Identity Commands:"},
		&cobra.Group{ID: GroupAuth, Title: "Authentication Commands:"},
		&cobra.Group{ID: GroupDiag, Title: "Diagnostic Commands:"},
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
