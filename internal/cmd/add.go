package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/gitconfig"
	"github.com/ksteinfeldt/gitshift/internal/identity"
	"github.com/ksteinfeldt/gitshift/internal/style"
)

var addCmd = &cobra.Command{
	Use:     "add [display-name]",
	GroupID: GroupIdentity,
	Short:   "Add a new identity",
	Long: `Add an identity to the list. The active identity is not changed;
run 'gitshift switch' to start using the new one.

Without a display name, the name from the current git config is used,
falling back to the email.

A credential is optional. Without one, switching still rewrites the git
config but leaves gh untouched.

Examples:
  gitshift add "Personal" --email me@example.com
  gitshift add "Work" --email me@corp.example --device
  gitshift add --email bot@corp.example --with-token < token.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

var (
	addEmail     string
	addWithToken bool
	addDevice    bool
	addWeb       bool
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addEmail, "email", "", "Email address for the identity (required)")
	addCmd.Flags().BoolVar(&addWithToken, "with-token", false, "Read a GitHub token from stdin")
	addCmd.Flags().BoolVar(&addDevice, "device", false, "Authenticate via the OAuth device flow")
	addCmd.Flags().BoolVar(&addWeb, "web", false, "Authenticate via gh's browser login")
	_ = addCmd.MarkFlagRequired("email")
	addCmd.MarkFlagsMutuallyExclusive("with-token", "device", "web")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := newCoordinator()

	var name string
	if len(args) == 1 {
		name = strings.TrimSpace(args[0])
	}
	if name == "" {
		if u, err := gitconfig.NewExec().Read(ctx); err == nil {
			name = u.Name
		}
	}
	if name == "" {
		name = addEmail
	}

	var credential string
	var err error
	switch {
	case addWithToken:
		credential, err = readTokenInteractive()
	case addDevice:
		credential, err = deviceLogin(ctx)
	case addWeb:
		credential, err = webLogin(ctx, newGH())
	}
	if err != nil {
		return err
	}
	if (addWithToken || addDevice || addWeb) && credential == "" {
		return fmt.Errorf("no token received")
	}

	ident := identity.New(name, addEmail, credential)

	// Fill in the remote username while we have the token in hand. Not
	// fatal: enrichment retries on first switch.
	if ident.Authenticated() {
		api := newAPIClient()
		if u, err := api.UserInfo(ctx, credential); err != nil {
			fmt.Printf("%s could not verify token: %v\n", style.WarningPrefix, err)
		} else {
			ident.RemoteUsername = u.Login
			ident.AvatarURL = u.AvatarURL
		}
	}

	c.Add(ident)

	fmt.Printf("%s Added identity '%s'\n", style.SuccessPrefix, ident.Label())
	if ident.RemoteUsername != "" {
		fmt.Printf("  Authenticated as @%s\n", ident.RemoteUsername)
	}
	fmt.Printf("  Run 'gitshift switch %s' to activate it.\n", ident.Label())
	return nil
}
