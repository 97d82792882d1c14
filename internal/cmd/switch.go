package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/identity"
	"github.com/ksteinfeldt/gitshift/internal/style"
	"github.com/ksteinfeldt/gitshift/internal/tui"
)

var switchCmd = &cobra.Command{
	Use:     "switch [identity]",
	GroupID: GroupIdentity,
	Short:   "Switch to an identity",
	Long: `Make an identity active: rewrite the global git config and, when
the identity carries a credential, re-point gh at its account.

Without an argument, an interactive picker opens.

Examples:
  gitshift switch            # interactive picker
  gitshift switch Work
  gitshift switch me@corp.example`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSwitch,
}

func init() {
	rootCmd.AddCommand(switchCmd)
}

func runSwitch(cmd *cobra.Command, args []string) error {
	c := newCoordinator()

	var ident identity.Identity
	if len(args) == 1 {
		var err error
		ident, err = resolveIdentity(c, args[0])
		if err != nil {
			return err
		}
	} else {
		idents := c.Identities()
		if len(idents) == 0 {
			return fmt.Errorf("no identities yet. Run 'gitshift add <name> --email <email>' first")
		}

		picked, ok, err := tui.PickIdentity(idents, c.ActiveID())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		ident = picked
	}

	if err := c.SwitchTo(cmd.Context(), ident); err != nil {
		return fmt.Errorf("%s", c.LastError())
	}

	fmt.Printf("%s Switched to '%s' <%s>\n", style.SuccessPrefix, ident.Label(), ident.Email)
	if !ident.Authenticated() {
		fmt.Printf("  %s\n", style.Dim.Render("No credential stored; gh was left untouched."))
	}
	return nil
}
