package root

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cove/internal/engine"
	"cove/internal/ui"
)

func requireArg(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New(name + " is required")
		}
		return nil
	}
}

func parseLevelFlag(name, value string) (engine.Level, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "m", "medium":
		return engine.LevelMedium, nil
	case "h", "high", "l", "low":
		return engine.ParseLevel(v), nil
	default:
		return "", fmt.Errorf("%s must be high, medium or low", name)
	}
}

func printTask(w io.Writer, t *engine.Task) {
	est := ""
	if t.EstimatedMinutes != nil {
		est = ui.Muted.Render(fmt.Sprintf(" ~%dm", *t.EstimatedMinutes))
	}
	fmt.Fprintf(w, "- %s %s %s%s %s %s\n",
		ui.Key.Render(shortID(t.ID)), t.Title, ui.StatusText(t.Status), est,
		ui.LevelTag(t.Interest, t.Energy), ui.Gold.Render(fmt.Sprintf("%dxp", t.XPValue)))
}
