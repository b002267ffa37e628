package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cove/internal/engine"
	"cove/internal/service"
	"cove/internal/ui"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Start    key.Binding
	Complete key.Binding
	Snooze   key.Binding
	Meltdown key.Binding
	Goblin   key.Binding
	Calm     key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Complete, k.Snooze, k.Meltdown, k.Goblin, k.Calm, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, k.ShortHelp()}
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Complete: key.NewBinding(key.WithKeys("c", " "), key.WithHelp("c", "complete")),
	Snooze:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "snooze")),
	Meltdown: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "meltdown")),
	Goblin:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "goblin")),
	Calm:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end meltdown")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type boardModel struct {
	ctx context.Context
	svc *service.Service

	width  int
	height int

	ledger   *engine.Ledger
	contract *engine.Contract
	// goblin rotates through the self-care list while a meltdown is active.
	goblin int

	selected int
	help     help.Model

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	snap     *service.Snapshot
	contract *engine.Contract
	err      error
}

// actionMsg carries the log line of a finished command; the board reloads after it.
type actionMsg struct {
	log string
	err error
}

func newBoardModel(ctx context.Context, svc *service.Service) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		help:    help.New(),
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		c, err := m.svc.Today(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		snap, err := m.svc.Status(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{snap: snap, contract: c}
	}
}

func (m boardModel) taskCmd(verb string, id string, fn func(context.Context, string) (*engine.Task, error)) tea.Cmd {
	return func() tea.Msg {
		t, err := fn(m.ctx, id)
		if err != nil {
			return actionMsg{err: fmt.Errorf("%s failed: %w", verb, err)}
		}
		return actionMsg{log: fmt.Sprintf("%s: %s", verb, t.Title)}
	}
}

func (m boardModel) completeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteTask(m.ctx, id, nil)
		if err != nil {
			return actionMsg{err: fmt.Errorf("complete failed: %w", err)}
		}
		return actionMsg{log: completeLog(res)}
	}
}

func completeLog(res *service.CompleteResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s +%d XP (level %d → %d)", ui.IconDone, res.XPAwarded, res.LevelBefore, res.LevelAfter)
	if res.LevelUp {
		b.WriteString(" " + ui.BadgeLevelUp)
	}
	if res.ContractCompleted {
		b.WriteString(" " + ui.IconTrophy + " contract complete!")
	}
	for _, a := range res.Unlocked {
		fmt.Fprintf(&b, " %s %s", a.Icon, a.Name)
	}
	return b.String()
}

func (m boardModel) meltdownCmd() tea.Cmd {
	return func() tea.Msg {
		c, err := m.svc.StartMeltdown(m.ctx)
		if err != nil {
			return actionMsg{err: fmt.Errorf("meltdown failed: %w", err)}
		}
		return actionMsg{log: fmt.Sprintf("%s Breathe. Stability %s. Try a goblin task (g).", ui.IconWave, ui.StabilityText(c.StabilityScore))}
	}
}

func (m boardModel) goblinCmd(task string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.svc.CompleteGoblinTask(m.ctx)
		if err != nil {
			return actionMsg{err: fmt.Errorf("goblin failed: %w", err)}
		}
		return actionMsg{log: fmt.Sprintf("%s %s +%d XP", ui.IconGoblin, task, out.XPEarned)}
	}
}

func (m boardModel) calmCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.EndMeltdown(m.ctx)
		if err != nil {
			return actionMsg{err: fmt.Errorf("end meltdown failed: %w", err)}
		}
		if !res.Survived {
			return actionMsg{log: "Meltdown over. Be gentle with yourself."}
		}
		return actionMsg{log: fmt.Sprintf("%s Survived with %d goblin tasks, +%d XP", ui.IconSparkle, res.Goblins, res.Outcome.XPEarned)}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.ledger = msg.snap.Ledger
		m.contract = msg.contract
		m.clampSelection()
		return m, nil
	case actionMsg:
		if msg.err != nil {
			m.lastLog = msg.err.Error()
			return m, nil
		}
		m.lastLog = msg.log
		return m, m.loadCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Refresh):
		m.loading = true
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, m.loadCmd()
	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case key.Matches(msg, keys.Down):
		if m.selected < len(m.rows())-1 {
			m.selected++
		}
		return m, nil
	case key.Matches(msg, keys.Meltdown):
		return m, m.meltdownCmd()
	case key.Matches(msg, keys.Goblin):
		task := engine.GoblinTasks[m.goblin%len(engine.GoblinTasks)]
		m.goblin++
		return m, m.goblinCmd(task)
	case key.Matches(msg, keys.Calm):
		return m, m.calmCmd()
	}

	t := m.current()
	if t == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Start):
		return m, m.taskCmd("Started", t.ID, m.svc.StartTask)
	case key.Matches(msg, keys.Snooze):
		return m, m.taskCmd("Snoozed", t.ID, m.svc.SnoozeTask)
	case key.Matches(msg, keys.Complete):
		if t.Status == engine.TaskCompleted {
			m.lastLog = "Already done."
			return m, nil
		}
		m.lastLog = fmt.Sprintf("Completing %s…", t.Title)
		return m, m.completeCmd(t.ID)
	}
	return m, nil
}

// rows lists anchors first, then side quests, in commit order.
func (m boardModel) rows() []*engine.Task {
	if m.contract == nil {
		return nil
	}
	return append(m.contract.AnchorTasks(), m.contract.SideQuests()...)
}

func (m boardModel) current() *engine.Task {
	rows := m.rows()
	if m.selected < 0 || m.selected >= len(rows) {
		return nil
	}
	return rows[m.selected]
}

func (m *boardModel) clampSelection() {
	n := len(m.rows())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()

	linesLeft := strings.Split(sidebar, "\n")
	leftW := 18
	for _, l := range linesLeft {
		if w := lipgloss.Width(l); w > leftW {
			leftW = w
		}
	}
	if m.width > 0 && leftW > m.width/2 {
		leftW = max(m.width/2, 18)
	}

	linesRight := strings.Split(main, "\n")
	rows := len(linesLeft)
	if len(linesRight) > rows {
		rows = len(linesRight)
	}

	var body strings.Builder
	for i := 0; i < rows; i++ {
		l, r := "", ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + "\n" + m.lastLog + "\n" + m.help.View(keys)
}

func (m boardModel) renderHeader() string {
	if m.ledger == nil {
		return "Cove, loading…"
	}
	line := fmt.Sprintf("Cove | %s | %s %d-day streak", ui.LevelLine(m.ledger, 20), ui.IconFire, m.ledger.CurrentStreak)
	if m.contract != nil {
		line += fmt.Sprintf(" | Stability %s %s", ui.FractionBar(m.contract.StabilityScore, 10), ui.StabilityText(m.contract.StabilityScore))
		if m.contract.MeltdownActive {
			line += " " + ui.BadgeMeltdown
		}
	}
	return line
}

func (m boardModel) renderSidebar() string {
	if m.ledger == nil {
		return "Skills\n\nLoading…"
	}
	lines := []string{"Skills"}
	for _, s := range engine.SkillTypes() {
		xp := m.ledger.Skills[s]
		lines = append(lines, fmt.Sprintf("- %-11s L%d %s", s.DisplayName(), engine.SkillLevelForXP(xp), ui.FractionBar(engine.SkillLevelProgress(xp), 8)))
	}
	if m.contract != nil && m.contract.MeltdownActive {
		lines = append(lines, "", "Goblin tasks")
		for i := 0; i < 3; i++ {
			lines = append(lines, "- "+engine.GoblinTasks[(m.goblin+i)%len(engine.GoblinTasks)])
		}
	}
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	c := m.contract
	if c == nil {
		return "(no contract)"
	}
	out := []string{fmt.Sprintf("Today %s  %s  %d%% done, ~%d min",
		engine.DayKey(c.Day), ui.ContractStatusText(c.Status), int(c.Progress()*100), c.TotalEstimatedMinutes)}

	rows := m.rows()
	if len(rows) == 0 {
		out = append(out, "", "(nothing committed yet: cove commit <id>)")
		return strings.Join(out, "\n")
	}
	out = append(out, "")
	for i, t := range rows {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		out = append(out, fmt.Sprintf("%s%s %s %s %s", cursor, ui.SlotIcon(t.IsAnchor), t.Title, ui.StatusText(t.Status), ui.LevelTag(t.Interest, t.Energy)))
	}
	return strings.Join(out, "\n")
}

// padRight fits s to exactly width cells, truncating when it is wider.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) > width {
		s = lipgloss.NewStyle().MaxWidth(width).Render(s)
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}
