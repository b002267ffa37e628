package root

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cove/internal/engine"
	"cove/internal/service"
	"cove/internal/ui"
)

func printContract(w io.Writer, c *engine.Contract) {
	fmt.Fprintln(w, ui.Heading(ui.IconAnchor, "Today "+engine.DayKey(c.Day)))
	fmt.Fprintf(w, "%s  %s %s  %s %s\n",
		ui.ContractStatusText(c.Status),
		ui.Key.Render("Stability:"), ui.StabilityText(c.StabilityScore),
		ui.Key.Render("Progress:"), ui.FractionBar(c.Progress(), 10))
	if c.MeltdownActive {
		fmt.Fprintln(w, ui.BadgeMeltdown+" "+ui.Muted.Render("goblin tasks: cove meltdown goblin"))
	}
	fmt.Fprintln(w, ui.LabelValue("Estimated", fmt.Sprintf("%d min", c.TotalEstimatedMinutes)))
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, ui.H2.Render(fmt.Sprintf("Anchors (%d/%d)", len(c.AnchorTasks()), engine.MaxAnchorTasks)))
	for _, t := range c.AnchorTasks() {
		printTask(w, t)
	}
	fmt.Fprintln(w, ui.H2.Render(fmt.Sprintf("Side quests (%d/%d)", len(c.SideQuests()), engine.MaxSideQuests)))
	for _, t := range c.SideQuests() {
		printTask(w, t)
	}
}

func newTodayCmd() *cobra.Command {
	var abandon bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				var c *engine.Contract
				var err error
				if abandon {
					c, err = svc.AbandonContract(ctx)
				} else {
					c, err = svc.Today(ctx)
				}
				if err != nil {
					return err
				}
				printContract(cmd.OutOrStdout(), c)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&abandon, "abandon", false, "Abandon today's contract and return unfinished tasks to the backlog")
	return cmd
}

func newCommitCmd() *cobra.Command {
	var anchor bool

	cmd := &cobra.Command{
		Use:   "commit <id>",
		Short: "Commit a backlog task to today's contract",
		Args:  requireArg("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				id, err := svc.ResolveTaskID(ctx, args[0])
				if err != nil {
					return err
				}
				c, err := svc.CommitTask(ctx, id, anchor)
				if err != nil {
					return err
				}
				slot := "side quest"
				if anchor {
					slot = "anchor"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s as %s\n\n", ui.Good.Render(ui.SlotIcon(anchor)+" Committed"), ui.Key.Render(shortID(id)), slot)
				printContract(cmd.OutOrStdout(), c)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&anchor, "anchor", "a", false, "Commit as an anchor task")
	return cmd
}

func newDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop <id>",
		Short: "Return a committed task to the backlog",
		Args:  requireArg("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				id, err := svc.ResolveTaskID(ctx, args[0])
				if err != nil {
					return err
				}
				if _, err := svc.DropTask(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Muted.Render("Dropped"), ui.Key.Render(shortID(id)))
				return nil
			})
		},
	}
	return cmd
}
