package root

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"cove/internal/engine"
	"cove/internal/service"
	"cove/internal/ui"
)

func newColdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cold",
		Short: "Manage cold storage for tasks you keep passing on",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show archived tasks, archive suggestions and revivals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				view, err := svc.ColdStorage(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconSnow, "Cold storage"))
				fmt.Fprintln(out, ui.LabelValue("Archived", view.Stats.TotalArchived))
				if view.Stats.OldestArchived != nil {
					fmt.Fprintln(out, ui.LabelValue("Oldest", view.Stats.OldestArchived.Format("2006-01-02")))
					fmt.Fprintln(out, ui.LabelValue("Average age", fmt.Sprintf("%d days", int(view.Stats.AverageAge/(24*time.Hour)))))
				}
				section(out, "Ready to revive", view.Revivals)
				section(out, "Consider archiving", view.Suggested)
				section(out, "Archived", view.Archived)
				return nil
			})
		},
	}

	ignore := &cobra.Command{
		Use:   "ignore <id>",
		Short: "Pass on a backlog task for now",
		Args:  requireArg("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				id, err := svc.ResolveTaskID(ctx, args[0])
				if err != nil {
					return err
				}
				t, suggest, err := svc.IgnoreTask(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (ignored %d times)\n", ui.Muted.Render("Passed on"), t.Title, t.IgnoreCount)
				if suggest {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Ice.Render(ui.IconSnow+" Maybe it belongs in cold storage:"), ui.Key.Render("cove cold archive "+shortID(t.ID)))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(
		list,
		ignore,
		taskCmd("archive", "Move a task to cold storage", ui.Ice.Render(ui.IconSnow+" Archived"),
			func(svc *service.Service) func(context.Context, string) (*engine.Task, error) { return svc.ArchiveTask }),
		taskCmd("revive", "Bring an archived task back to the backlog", ui.Good.Render("Revived"),
			func(svc *service.Service) func(context.Context, string) (*engine.Task, error) { return svc.ReviveTask }),
		taskCmd("dismiss", "Keep a task archived and stop offering it for a while", ui.Muted.Render("Dismissed"),
			func(svc *service.Service) func(context.Context, string) (*engine.Task, error) { return svc.DismissRevival }),
	)
	return cmd
}

func section(out io.Writer, title string, tasks []*engine.Task) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, ui.H2.Render(title))
	for _, t := range tasks {
		printTask(out, t)
	}
}
