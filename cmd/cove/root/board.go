package root

import (
	"context"

	"github.com/spf13/cobra"

	"cove/internal/service"
	"cove/internal/tui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the TUI board for today's contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				return tui.RunBoard(ctx, svc, cmd.OutOrStdout())
			})
		},
	}
	return cmd
}
