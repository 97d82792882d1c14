package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitshift/internal/doctor"
	"github.com/ksteinfeldt/gitshift/internal/identity"
	"github.com/ksteinfeldt/gitshift/internal/style"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: GroupDiag,
	Short:   "Check the environment gitshift depends on",
	Long: `Run diagnostic checks: git and gh availability, OAuth
configuration, and the persisted identity state.

With --fix, checks that know how to repair themselves do so (currently:
installing gh via Homebrew).`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var doctorFix bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt to fix failing checks")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dc := &doctor.Context{
		Config:   cfg,
		StateDir: stateDir,
		GH:       newGH(),
		Store:    identity.NewStore(stateDir),
	}

	failed := 0
	for _, check := range doctor.All() {
		res := check.Run(ctx, dc)

		if res.Status != doctor.StatusOK && doctorFix {
			if fixable, ok := check.(doctor.FixableCheck); ok {
				fmt.Printf("%s %s: fixing...\n", style.WarningPrefix, res.Name)
				if err := fixable.Fix(ctx, dc); err != nil {
					fmt.Printf("%s %s: fix failed: %v\n", style.ErrorPrefix, res.Name, err)
				}
				res = check.Run(ctx, dc)
			}
		}

		printResult(res)
		if res.Status == doctor.StatusError {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printResult(res *doctor.Result) {
	prefix := style.SuccessPrefix
	switch res.Status {
	case doctor.StatusWarning:
		prefix = style.WarningPrefix
	case doctor.StatusError:
		prefix = style.ErrorPrefix
	}

	fmt.Printf("%s %s: %s\n", prefix, res.Name, res.Message)
	for _, d := range res.Details {
		fmt.Printf("    %s\n", style.Dim.Render(d))
	}
	if res.Status != doctor.StatusOK && res.FixHint != "" {
		fmt.Printf("    %s\n", style.Dim.Render("Fix: "+res.FixHint))
	}
}
