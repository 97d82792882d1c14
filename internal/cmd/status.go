package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/ghcli"
	"github.com/ksteinfeldt/gitshift/internal/style"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: GroupDiag,
	Short:   "Show the active identity and what git and gh report",
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := newCoordinator()

	// One reconcile pass so the observed fields reflect the config as it
	// is right now, and drift gets adopted before we report.
	c.Reconcile(ctx)

	if active, ok := c.Active(); ok {
		fmt.Printf("%s %s <%s>\n", style.Bold.Render("Active:"), active.Label(), active.Email)
		if active.RemoteUsername != "" {
			fmt.Printf("  GitHub: @%s\n", active.RemoteUsername)
		}
		if !active.Authenticated() {
			fmt.Printf("  %s\n", style.Dim.Render("No credential stored."))
		}
	} else {
		fmt.Println(style.Dim.Render("No active identity."))
	}

	name, email := c.Observed()
	if email == "" && name == "" {
		fmt.Printf("%s %s\n", style.Bold.Render("Git config:"), style.Dim.Render("unset"))
	} else {
		fmt.Printf("%s %s <%s>\n", style.Bold.Render("Git config:"), name, email)
	}

	gh := newGH()
	if gh.Status() == ghcli.StatusInstalled {
		if login, ok := gh.CurrentUser(ctx, cfg.Hostname); ok {
			fmt.Printf("%s @%s\n", style.Bold.Render("gh account:"), login)
		} else {
			fmt.Printf("%s %s\n", style.Bold.Render("gh account:"), style.Dim.Render("not logged in"))
		}
	} else {
		fmt.Printf("%s %s\n", style.Bold.Render("gh account:"), style.Dim.Render("gh not installed"))
	}

	if lastErr := c.LastError(); lastErr != "" {
		fmt.Printf("\n%s %s\n", style.ErrorPrefix, lastErr)
	}
	return nil
}
