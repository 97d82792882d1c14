package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/style"
)

var loginCmd = &cobra.Command{
	Use:     "login <identity>",
	GroupID: GroupAuth,
	Short:   "Authenticate or re-authenticate an identity",
	Long: `Obtain a fresh GitHub token for an existing identity.

Defaults to the OAuth device flow. If the identity is active, the new
credential is applied to gh immediately.

Examples:
  gitshift login Work
  gitshift login Work --web
  gitshift login "CI Bot" --with-token < token.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var (
	loginWithToken bool
	loginWeb       bool
)

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().BoolVar(&loginWithToken, "with-token", false, "Read a GitHub token from stdin")
	loginCmd.Flags().BoolVar(&loginWeb, "web", false, "Authenticate via gh's browser login")
	loginCmd.MarkFlagsMutuallyExclusive("with-token", "web")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := newCoordinator()

	ident, err := resolveIdentity(c, args[0])
	if err != nil {
		return err
	}

	var credential string
	switch {
	case loginWithToken:
		credential, err = readTokenInteractive()
	case loginWeb:
		credential, err = webLogin(ctx, newGH())
	default:
		credential, err = deviceLogin(ctx)
	}
	if err != nil {
		return err
	}
	if credential == "" {
		return fmt.Errorf("no token received")
	}

	ident.Credential = credential

	// The token may belong to a different account than before; clear the
	// cached remote identity so enrichment refreshes it.
	ident.RemoteUsername = ""
	ident.AvatarURL = ""

	if err := c.Update(ctx, ident); err != nil {
		if lastErr := c.LastError(); lastErr != "" {
			return fmt.Errorf("%s", lastErr)
		}
		return err
	}

	fmt.Printf("%s Authenticated '%s'\n", style.SuccessPrefix, ident.Label())
	if upd, ok := c.Get(ident.ID); ok && upd.RemoteUsername != "" {
		fmt.Printf("  Signed in as @%s\n", upd.RemoteUsername)
	}
	return nil
}
