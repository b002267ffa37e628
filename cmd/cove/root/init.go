package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cove/internal/config"
	"cove/internal/storage"
	"cove/internal/ui"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the cove home, default config and database",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.ResolveHome(homeFlag)
			if err != nil {
				return err
			}
			created, err := config.WriteDefault(home)
			if err != nil {
				return err
			}
			cfg, err := config.Load(home)
			if err != nil {
				return err
			}
			db, err := storage.Open(context.Background(), cfg.DBPath())
			if err != nil {
				return err
			}
			_ = db.Close()

			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "%s %s\n", ui.Good.Render(ui.IconSparkle+" Created"), ui.Muted.Render(cfg.Path()))
			} else {
				fmt.Fprintf(out, "%s %s\n", ui.Muted.Render("Config already exists:"), cfg.Path())
			}
			fmt.Fprintln(out, ui.LabelValue("Database", cfg.DBPath()))
			fmt.Fprintln(out, ui.LabelValue("Log", cfg.LogPath()))
			return nil
		},
	}
	return cmd
}
