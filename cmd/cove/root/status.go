package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cove/internal/engine"
	"cove/internal/service"
	"cove/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, streak, skills and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				snap, err := svc.Status(ctx)
				if err != nil {
					return err
				}
				l := snap.Ledger
				out := cmd.OutOrStdout()

				fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Progress"))
				fmt.Fprintln(out, ui.LevelLine(l, 20))
				fmt.Fprintln(out, ui.LabelValue("Total XP", fmt.Sprintf("%d (%d to next level)", l.TotalXP, l.XPToNextLevel())))
				fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%s %d days (best %d)", ui.IconFire, l.CurrentStreak, l.LongestStreak)))
				fmt.Fprintln(out, ui.LabelValue("Tasks done", l.TotalTasksCompleted))
				fmt.Fprintln(out, ui.LabelValue("Contracts kept", l.ContractsCompleted))
				fmt.Fprintln(out, ui.LabelValue("Meltdowns survived", l.MeltdownsSurvived))
				if snap.Today != nil {
					fmt.Fprintln(out, ui.LabelValue("Today", fmt.Sprintf("%s, stability %s", ui.ContractStatusText(snap.Today.Status), ui.StabilityText(snap.Today.StabilityScore))))
				}
				fmt.Fprintln(out, "")

				fmt.Fprintln(out, ui.H2.Render("Skills"))
				for _, s := range engine.SkillTypes() {
					xp := l.Skills[s]
					fmt.Fprintf(out, "- %-11s lvl %d %s %s\n", s.DisplayName(), engine.SkillLevelForXP(xp),
						ui.FractionBar(engine.SkillLevelProgress(xp), 10), ui.Muted.Render(fmt.Sprintf("(xp %d, %d to next)", xp, engine.SkillXPToNextLevel(xp))))
				}
				fmt.Fprintln(out, "")

				var cells strings.Builder
				for _, a := range snap.Recent {
					cells.WriteString(ui.ActivityCell(a.Level()))
				}
				fmt.Fprintf(out, "%s %s\n\n", ui.H2.Render(fmt.Sprintf("Last %d days", len(snap.Recent))), cells.String())

				fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s Achievements (%d/%d)", ui.IconTrophy, l.UnlockedCount(), len(engine.Achievements()))))
				for _, def := range engine.Achievements() {
					p := l.Achievements[def.Kind]
					if p != nil && p.IsUnlocked() {
						fmt.Fprintf(out, "- %s %s %s\n", def.Icon, ui.Gold.Render(def.Name), ui.Muted.Render(p.UnlockedAt.Format("2006-01-02")))
						continue
					}
					progress := 0
					if p != nil {
						progress = p.Progress
					}
					fmt.Fprintf(out, "- %s %s %s\n", ui.Muted.Render("🔒"), def.Name,
						ui.Muted.Render(fmt.Sprintf("%s %d/%d", def.Description, progress, def.Requirement)))
				}
				return nil
			})
		},
	}
	return cmd
}
