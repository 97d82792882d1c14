package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/style"
)

var removeCmd = &cobra.Command{
	Use:     "remove <identity>",
	GroupID: GroupIdentity,
	Aliases: []string{"rm"},
	Short:   "Remove an identity",
	Long: `Remove an identity from the list, matched by id, name, or email.

Removing the active identity clears the active pointer but does not
touch the git config or gh session; the next switch does.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	c := newCoordinator()

	ident, err := resolveIdentity(c, args[0])
	if err != nil {
		return err
	}
	wasActive := ident.ID == c.ActiveID()

	if err := c.Remove(ident.ID); err != nil {
		return err
	}

	fmt.Printf("%s Removed identity '%s'\n", style.SuccessPrefix, ident.Label())
	if wasActive {
		fmt.Printf("  No identity is active now. Run 'gitshift switch' to pick one.\n")
	}
	return nil
}
