package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cove/internal/engine"
	"cove/internal/service"
	"cove/internal/ui"
)

func newAddCmd() *cobra.Command {
	var estimate int
	var interest string
	var energy string
	var desc string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to the backlog",
		Args:  requireArg("title"),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := engine.NewTaskInput{Title: args[0], Description: desc}
			var err error
			if in.Interest, err = parseLevelFlag("interest", interest); err != nil {
				return err
			}
			if in.Energy, err = parseLevelFlag("energy", energy); err != nil {
				return err
			}
			if estimate > 0 {
				est := engine.ClampEstimate(estimate)
				in.EstimatedMinutes = &est
			}
			return withService(func(ctx context.Context, svc *service.Service) error {
				t, err := svc.CreateTask(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", ui.Good.Render(ui.IconPlus+" Added"), ui.Key.Render(shortID(t.ID)), t.Title, ui.Gold.Render(fmt.Sprintf("(%d XP)", t.XPValue)))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&estimate, "estimate", "e", 0, "Estimate in minutes (5-480)")
	cmd.Flags().StringVarP(&interest, "interest", "i", "medium", "Interest (high|medium|low)")
	cmd.Flags().StringVarP(&energy, "energy", "E", "medium", "Energy required (high|medium|low)")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "Description")
	return cmd
}

func newBacklogCmd() *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "List tasks not yet committed to a contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := engine.ParseBucket(bucket)
			if err != nil {
				return err
			}
			return withService(func(ctx context.Context, svc *service.Service) error {
				var tasks []*engine.Task
				if b == engine.BucketDirective {
					tasks, err = svc.Backlog(ctx)
				} else {
					tasks, err = svc.Notes(ctx, b)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconScroll, "Backlog ("+string(b)+")"))
				if len(tasks) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("(empty)"))
					return nil
				}
				for _, t := range tasks {
					printTask(out, t)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "directive", "Bucket (directive|archive|venting)")
	return cmd
}
