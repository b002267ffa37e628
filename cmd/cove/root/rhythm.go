package root

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cove/internal/service"
	"cove/internal/ui"
)

func hours(list []int) string {
	if len(list) == 0 {
		return ui.Muted.Render("not enough data yet")
	}
	parts := make([]string, len(list))
	for i, h := range list {
		parts[i] = fmt.Sprintf("%02d:00", h)
	}
	return strings.Join(parts, ", ")
}

func newRhythmCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "rhythm",
		Short: "Show energy rhythm, snooze patterns and estimate accuracy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				in, err := svc.Insights(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				fmt.Fprintln(out, ui.Heading(ui.IconWave, "Rhythm"))
				fmt.Fprintln(out, ui.LabelValue("Observations", in.Observations))
				fmt.Fprintln(out, ui.LabelValue("Peak hours", hours(in.Rhythm.PeakHours)))
				fmt.Fprintln(out, ui.LabelValue("Low hours", hours(in.Rhythm.LowHours)))
				fmt.Fprintln(out, ui.LabelValue("Pattern", fmt.Sprintf("%s (recorded: %s)", in.Rhythm.Recommended.DisplayName(), in.EnergyPattern.DisplayName())))
				fmt.Fprintln(out, "")

				if len(in.Hourly) > 0 {
					fmt.Fprintln(out, ui.H2.Render("By hour"))
					for _, h := range in.Hourly {
						fmt.Fprintf(out, "- %02d:00 %s %3.0f%% %s\n", h.Hour, ui.FractionBar(h.CompletionRate, 10), h.CompletionRate*100,
							ui.Muted.Render(fmt.Sprintf("%s, %d tasks", h.Level(), h.TaskCount)))
					}
					fmt.Fprintln(out, "")
				}

				for _, p := range in.Snooze {
					flag := ""
					if p.IsProblematic() {
						flag = " " + ui.Warn.Render(ui.IconWarn+" often snoozed")
					}
					fmt.Fprintf(out, "- %s interest: %.0f%% snoozed, avg %.1f%s\n", p.Interest, p.SnoozeRate*100, p.AverageSnoozeCount, flag)
				}

				fmt.Fprintln(out, ui.LabelValue("Estimate accuracy", fmt.Sprintf("%.2fx", in.Accuracy)))
				fmt.Fprintln(out, ui.LabelValue("Time buffer", fmt.Sprintf("%.2fx (suggested %.2fx)", in.CurrentMultiplier, in.SuggestedMultiplier)))

				if !apply {
					return nil
				}
				l, err := svc.ApplySuggestedMultiplier(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s buffer %.2fx, pattern %s\n", ui.Good.Render("Applied:"), l.PessimismMultiplier, l.EnergyPattern.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Store the suggested time buffer and energy pattern")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var hour int
	var energy string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest what to do right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hour < 0 {
				hour = time.Now().Hour()
			}
			if hour > 23 {
				return fmt.Errorf("hour must be between 0 and 23, got %d", hour)
			}
			return withService(func(ctx context.Context, svc *service.Service) error {
				out := cmd.OutOrStdout()
				list, err := svc.Suggestions(ctx, hour)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.Heading(ui.IconInfo, fmt.Sprintf("Suggestions for %02d:00", hour)))
				if len(list) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("Nothing to suggest yet. Keep completing tasks and patterns will show up."))
				}
				for _, s := range list {
					fmt.Fprintf(out, "%d. %s\n", s.Priority, s.Message)
				}

				if energy == "" {
					return nil
				}
				level, err := parseLevelFlag("energy", energy)
				if err != nil {
					return err
				}
				tasks, err := svc.MatchEnergy(ctx, level, hour)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "")
				fmt.Fprintln(out, ui.H2.Render("Best fit for "+string(level)+" energy"))
				for i, t := range tasks {
					if i == 3 {
						break
					}
					printTask(out, t)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&hour, "hour", -1, "Hour of day to plan for (default now)")
	cmd.Flags().StringVarP(&energy, "energy", "E", "", "Your energy right now; also ranks open tasks (high|medium|low)")
	return cmd
}
