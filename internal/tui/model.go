// Package tui is the terminal front end of the row editor: a table of rows
// with an inline edit form driven by a rowedit.Editor.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/rowedit/internal/logging"
	"github.com/mesh-intelligence/rowedit/pkg/rowedit"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// Fetcher loads the current rows from the remote.
type Fetcher func(ctx context.Context) ([]types.Record, error)

const (
	statusSaving = "saving..."
	statusSaved  = "saved"
)

// commitDoneMsg is sent when an asynchronous commit returns.
type commitDoneMsg struct {
	err error
}

// reloadDoneMsg carries the rows of an asynchronous reload.
type reloadDoneMsg struct {
	records []types.Record
	err     error
}

// Model is the bubbletea model of the editor screen.
type Model struct {
	ctx    context.Context
	editor *rowedit.Editor
	fetch  Fetcher
	logger *slog.Logger
	keys   KeyMap
	title  string

	rows   []types.Record
	edit   types.EditState
	cursor int
	field  int // index into the schema while editing
	input  textinput.Model
	status string
	width  int
}

type Option func(*Model)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTitle sets the header text, usually the remote base url.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// New returns a model over editor. fetch may be nil, which disables reload.
func New(ctx context.Context, editor *rowedit.Editor, fetch Fetcher, opts ...Option) Model {
	input := textinput.New()
	input.Prompt = ""
	m := Model{
		ctx:    ctx,
		editor: editor,
		fetch:  fetch,
		logger: logging.Discard(),
		keys:   DefaultKeyMap(),
		title:  "rowedit",
		rows:   editor.Snapshot(),
		edit:   editor.EditState(),
		input:  input,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case commitDoneMsg:
		saving := m.status == statusSaving
		m.sync()
		switch {
		case msg.err != nil:
			m.status = msg.err.Error()
		case m.edit.Open && m.edit.Error != "":
			// The error renders from the edit state.
			m.status = ""
		case !m.edit.Open && saving:
			// A cancel while saving already set its own status.
			m.status = statusSaved
			m.input.Blur()
		}
		return m, nil

	case reloadDoneMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			m.logger.Warn("reload failed", "error", msg.err)
			return m, nil
		}
		if _, err := m.editor.Reload(msg.records); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.sync()
		if !m.edit.Open {
			m.input.Blur()
		}
		m.status = fmt.Sprintf("reloaded %d rows", len(m.rows))
		return m, nil

	case tea.KeyMsg:
		if m.edit.Open {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Edit):
		if len(m.rows) == 0 {
			return m, nil
		}
		if _, err := m.editor.StartEdit(m.rows[m.cursor].ID); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.sync()
		m.status = ""
		m.field = 0
		cmd := m.focusField()
		return m, cmd
	case key.Matches(msg, m.keys.Reload):
		if m.fetch == nil {
			m.status = "reload unavailable"
			return m, nil
		}
		m.status = "reloading..."
		return m, m.reloadCmd()
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		if _, err := m.editor.Cancel(); err != nil {
			m.status = err.Error()
		}
		m.sync()
		m.input.Blur()
		m.status = "edit cancelled"
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.field = (m.field + 1) % len(m.editor.Schema())
		cmd := m.focusField()
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		n := len(m.editor.Schema())
		m.field = (m.field + n - 1) % n
		cmd := m.focusField()
		return m, cmd
	case key.Matches(msg, m.keys.Commit):
		if m.edit.InFlight {
			return m, nil
		}
		m.status = statusSaving
		return m, m.commitCmd()
	}

	if m.edit.InFlight {
		m.status = types.ErrCommitInFlight.Error()
		return m, nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		if _, err := m.editor.ChangeField(m.fieldName(), after); err != nil {
			m.status = err.Error()
			m.input.SetValue(before)
		}
		m.sync()
	}
	return m, cmd
}

// sync pulls rows and edit state from the editor.
func (m *Model) sync() {
	m.rows = m.editor.Snapshot()
	m.edit = m.editor.EditState()
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m *Model) fieldName() string {
	return m.editor.Schema()[m.field]
}

// focusField loads the staged value of the current field into the input.
func (m *Model) focusField() tea.Cmd {
	m.input.SetValue(m.edit.Staged[m.fieldName()])
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m Model) commitCmd() tea.Cmd {
	ctx, editor := m.ctx, m.editor
	return func() tea.Msg {
		_, err := editor.Commit(ctx)
		return commitDoneMsg{err: err}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	ctx, fetch := m.ctx, m.fetch
	return func() tea.Msg {
		records, err := fetch(ctx)
		return reloadDoneMsg{records: records, err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")

	if m.edit.Open && m.edit.Error != "" {
		b.WriteString(errorStyle.Render("error: " + m.edit.Error))
		b.WriteString("\n")
	}
	if m.edit.InFlight {
		b.WriteString(statusStyle.Render(statusSaving))
		b.WriteString("\n")
	} else if m.status == statusSaved {
		b.WriteString(savedStyle.Render(m.status))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	help := m.keys.browseHelp()
	if m.edit.Open {
		help = m.keys.editHelp()
	}
	b.WriteString(renderHelp(help))
	return b.String()
}

func (m Model) renderTable() string {
	schema := m.editor.Schema()
	headers := append([]string{"id"}, schema...)

	cells := make([][]string, len(m.rows))
	for i, r := range m.rows {
		row := make([]string, len(headers))
		row[0] = r.ID
		for j, name := range schema {
			row[j+1] = r.Get(name)
			if m.editing(r.ID) {
				row[j+1] = m.edit.Staged[name]
			}
		}
		cells[i] = row
	}

	widths := make([]int, len(headers))
	for j, h := range headers {
		widths[j] = lipgloss.Width(h)
		for _, row := range cells {
			widths[j] = max(widths[j], lipgloss.Width(row[j]))
		}
	}

	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(joinCells(headers, widths)))
	b.WriteString("\n")
	if len(m.rows) == 0 {
		b.WriteString(statusStyle.Render("(no rows)"))
		b.WriteString("\n")
	}
	for i, row := range cells {
		line := joinCells(row, widths)
		switch {
		case m.editing(m.rows[i].ID):
			b.WriteString(editingRowStyle.Render(line))
			b.WriteString("\n")
			b.WriteString(m.renderForm(schema))
		case i == m.cursor && !m.edit.Open:
			b.WriteString(tableSelectedStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderForm(schema types.Schema) string {
	var b strings.Builder
	for j, name := range schema {
		if j > 0 {
			b.WriteString("\n")
		}
		label := fmt.Sprintf("  %s: ", name)
		if j == m.field {
			b.WriteString(helpKeyStyle.Render(label))
			b.WriteString(m.input.View())
			continue
		}
		b.WriteString(statusStyle.Render(label))
		b.WriteString(m.edit.Staged[name])
	}
	return b.String()
}

func (m Model) editing(id string) bool {
	return m.edit.Open && m.edit.TargetID == id
}

func joinCells(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
	}
	return strings.Join(parts, "  ")
}

func renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, editor *rowedit.Editor, fetch Fetcher, opts ...Option) error {
	p := tea.NewProgram(New(ctx, editor, fetch, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
