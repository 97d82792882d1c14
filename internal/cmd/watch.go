package cmd

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: GroupDiag,
	Short:   "Run the import reconciler in the foreground",
	Long: `Watch the global git config and keep the identity list in sync:
externally-set identities are adopted or imported as they appear.

Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := newCoordinator()

	log.Info().Dur("interval", cfg.ReconcileInterval()).Msg("watching git config")
	c.Run(ctx, cfg.ReconcileInterval())

	log.Info().Msg("stopped")
	return nil
}
