package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cove/internal/ui"
)

const Version = "0.1.0"

// homeFlag overrides COVE_HOME for every command.
var homeFlag string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cove",
		Short:         "Cove: one small contract with yourself per day",
		Long:          "Cove turns a brain dump into a bounded daily contract of anchor tasks and side quests, with XP, streaks and gentle meltdown support.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "Cove home directory (default $COVE_HOME or ~/.cove)")

	rootCmd.AddCommand(
		newInitCmd(),
		newAddCmd(),
		newBacklogCmd(),
		newTodayCmd(),
		newCommitCmd(),
		newDropCmd(),
		newStartCmd(),
		newDoCmd(),
		newSnoozeCmd(),
		newCancelCmd(),
		newMeltdownCmd(),
		newStatusCmd(),
		newRhythmCmd(),
		newSuggestCmd(),
		newColdCmd(),
		newImportCmd(),
		newBoardCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
