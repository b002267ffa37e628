package root

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cove/internal/capture"
	"cove/internal/service"
	"cove/internal/ui"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Land a classifier result (JSON) as backlog tasks; reads stdin without a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read classification: %w", err)
			}
			res, err := capture.Parse(string(raw))
			if err != nil {
				return err
			}
			return withService(func(ctx context.Context, svc *service.Service) error {
				tasks, err := svc.ImportClassification(ctx, res)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %d task(s) into %s\n", ui.Good.Render(ui.IconPlus+" Landed"), len(tasks), res.Bucket)
				for _, t := range tasks {
					printTask(out, t)
				}
				return nil
			})
		},
	}
	return cmd
}
