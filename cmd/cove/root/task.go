package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cove/internal/engine"
	"cove/internal/service"
	"cove/internal/ui"
)

// taskCmd builds a one-argument command that applies op to a task.
func taskCmd(use, short, done string, op func(svc *service.Service) func(context.Context, string) (*engine.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  requireArg("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				id, err := svc.ResolveTaskID(ctx, args[0])
				if err != nil {
					return err
				}
				t, err := op(svc)(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", done, ui.Key.Render(shortID(t.ID)), t.Title)
				return nil
			})
		},
	}
}

func newStartCmd() *cobra.Command {
	return taskCmd("start", "Start working on a task", ui.H2.Render("▶ Started"),
		func(svc *service.Service) func(context.Context, string) (*engine.Task, error) { return svc.StartTask })
}

func newSnoozeCmd() *cobra.Command {
	return taskCmd("snooze", "Push a task back for later", ui.Muted.Render("💤 Snoozed"),
		func(svc *service.Service) func(context.Context, string) (*engine.Task, error) { return svc.SnoozeTask })
}

func newCancelCmd() *cobra.Command {
	return taskCmd("cancel", "Cancel a task", ui.Muted.Render("✖ Cancelled"),
		func(svc *service.Service) func(context.Context, string) (*engine.Task, error) { return svc.CancelTask })
}

func newDoCmd() *cobra.Command {
	var energy string

	cmd := &cobra.Command{
		Use:   "do <id>",
		Short: "Complete a task",
		Args:  requireArg("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userEnergy *engine.EnergyLevel
			if energy != "" {
				e, err := parseLevelFlag("energy", energy)
				if err != nil {
					return err
				}
				userEnergy = &e
			}
			return withService(func(ctx context.Context, svc *service.Service) error {
				id, err := svc.ResolveTaskID(ctx, args[0])
				if err != nil {
					return err
				}
				res, err := svc.CompleteTask(ctx, id, userEnergy)
				if err != nil {
					return err
				}
				printCompletion(cmd, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&energy, "energy", "E", "", "How you feel right now (high|medium|low)")
	return cmd
}

func printCompletion(cmd *cobra.Command, res *service.CompleteResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s %s\n", ui.Good.Render(ui.IconDone+" Done"), ui.Key.Render(shortID(res.TaskID)), ui.Gold.Render(fmt.Sprintf("+%d XP", res.XPAwarded)))
	if res.StreakBonus {
		fmt.Fprintf(out, "%s %d-day streak\n", ui.IconFire, res.Streak)
	}
	if res.LevelUp {
		fmt.Fprintf(out, "%s level %d → %d\n", ui.BadgeLevelUp, res.LevelBefore, res.LevelAfter)
	}
	for _, a := range res.Unlocked {
		fmt.Fprintf(out, "%s %s %s %s\n", ui.IconTrophy, a.Icon, ui.Gold.Render(a.Name), ui.Muted.Render(a.Description))
	}
	if res.Contract != nil {
		fmt.Fprintln(out, ui.LabelValue("Stability", ui.StabilityText(res.Contract.StabilityScore)))
	}
	if res.ContractCompleted {
		fmt.Fprintln(out, ui.Good.Render(ui.IconSparkle+" Contract complete. That's the whole day, well done."))
	}
}
