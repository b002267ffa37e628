package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cove/internal/engine"
	"cove/internal/service"
	"cove/internal/ui"
)

func newMeltdownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meltdown",
		Short: "Declare, work through and end a meltdown",
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Declare a meltdown on today's contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				c, err := svc.StartMeltdown(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", ui.IconWave, ui.H2.Render("It's okay. The contract can wait."))
				fmt.Fprintln(out, ui.LabelValue("Stability", ui.StabilityText(c.StabilityScore)))
				fmt.Fprintln(out, "")
				fmt.Fprintln(out, ui.H2.Render(ui.IconGoblin+" Goblin tasks"))
				for _, g := range engine.GoblinTasks {
					fmt.Fprintf(out, "- %s\n", g)
				}
				fmt.Fprintln(out, ui.Muted.Render("Log one with: cove meltdown goblin"))
				return nil
			})
		},
	}

	goblin := &cobra.Command{
		Use:   "goblin",
		Short: "Log a goblin self-care task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				o, err := svc.CompleteGoblinTask(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconGoblin+" Nice."), ui.Gold.Render(fmt.Sprintf("+%d XP", o.XPEarned)))
				printOutcome(cmd, o)
				return nil
			})
		},
	}

	end := &cobra.Command{
		Use:   "end",
		Short: "End the meltdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				res, err := svc.EndMeltdown(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !res.Survived {
					fmt.Fprintln(out, ui.Muted.Render("Meltdown over. Be gentle with yourself."))
					return nil
				}
				fmt.Fprintf(out, "%s survived with %d goblin tasks %s\n", ui.Good.Render(ui.IconSparkle+" Meltdown"), res.Goblins, ui.Gold.Render(fmt.Sprintf("+%d XP", res.Outcome.XPEarned)))
				printOutcome(cmd, res.Outcome)
				return nil
			})
		},
	}

	cmd.AddCommand(start, goblin, end)
	return cmd
}

func printOutcome(cmd *cobra.Command, o engine.Outcome) {
	out := cmd.OutOrStdout()
	if o.LevelUp != nil {
		fmt.Fprintf(out, "%s level %d → %d\n", ui.BadgeLevelUp, o.LevelUp.OldLevel, o.LevelUp.NewLevel)
	}
	for _, a := range o.Unlocked {
		fmt.Fprintf(out, "%s %s %s\n", ui.IconTrophy, a.Icon, ui.Gold.Render(a.Name))
	}
}
