package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/style"
)

var importCmd = &cobra.Command{
	Use:     "import",
	GroupID: GroupIdentity,
	Short:   "Import the identity from the current git config",
	Long: `Run one reconciler pass against the global git config.

If the configured email matches a stored identity, that identity
becomes active. Otherwise a new identity is created from the observed
name and email, with the stored gh credential recovered when one
exists, and made active.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	c := newCoordinator()

	activeBefore := c.ActiveID()
	countBefore := len(c.Identities())

	c.Reconcile(cmd.Context())

	_, email := c.Observed()
	if email == "" {
		fmt.Println("No email in the global git config; nothing to import.")
		return nil
	}

	active, ok := c.Active()
	switch {
	case !ok:
		fmt.Printf("%s Nothing imported for '%s'\n", style.WarningPrefix, email)
	case len(c.Identities()) > countBefore:
		fmt.Printf("%s Imported '%s' <%s> and made it active\n", style.SuccessPrefix, active.Label(), active.Email)
		if active.Authenticated() {
			fmt.Println("  Recovered a stored gh credential for it.")
		}
	case active.ID == activeBefore:
		fmt.Printf("Git config already matches '%s' <%s>; nothing to do.\n", active.Label(), active.Email)
	default:
		fmt.Printf("%s Adopted existing identity '%s' <%s>\n", style.SuccessPrefix, active.Label(), active.Email)
	}
	return nil
}
