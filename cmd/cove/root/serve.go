package root

import (
	"context"

	"github.com/spf13/cobra"

	"cove/internal/mcp"
	"cove/internal/service"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve cove as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.Service) error {
				return mcp.Serve(mcp.NewServer(svc, nil))
			})
		},
	}
	return cmd
}
