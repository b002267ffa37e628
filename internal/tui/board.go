package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"cove/internal/service"
)

func RunBoard(ctx context.Context, svc *service.Service, out io.Writer) error {
	m := newBoardModel(ctx, svc)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
