package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/style"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: GroupIdentity,
	Short:   "Show all identities",
	Long: `List all stored identities in order.

The active identity is marked with an asterisk (*).`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	c := newCoordinator()

	idents := c.Identities()
	if len(idents) == 0 {
		fmt.Println("No identities yet. Run 'gitshift add <name> --email <email>' to add one.")
		return nil
	}

	activeID := c.ActiveID()
	for _, ident := range idents {
		marker := "  "
		if ident.ID == activeID {
			marker = style.ActivePrefix + " "
		}

		line := fmt.Sprintf("%s%s <%s>", marker, ident.Label(), ident.Email)
		if ident.RemoteUsername != "" {
			line += " " + style.Dim.Render("@"+ident.RemoteUsername)
		}
		if !ident.Authenticated() {
			line += " " + style.Dim.Render("(not authenticated)")
		}
		fmt.Println(line)
	}

	if lastErr := c.LastError(); lastErr != "" {
		fmt.Printf("\n%s %s\n", style.WarningPrefix, lastErr)
	}
	return nil
}
