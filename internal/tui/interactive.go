package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fmusim/internal/fmu"
	"github.com/san-kum/fmusim/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const historyLen = 60

type editor struct {
	d  *fmu.Driver
	in *fmu.Instance

	names   []string
	start   []float64
	values  []float64
	nominal []float64
	cursor  int
	editing bool
	input   textinput.Model

	outputs []float64
	aux     map[string]any
	history []float64
	evals   int
	err     error
	dead    bool

	// busy is set while an evaluation runs; pending asks for another one
	// when it returns.
	busy    bool
	pending bool

	width  int
	height int
}

type evalMsg struct {
	outputs []float64
	stats   fmu.Stats
	err     error
}

// NewInteractiveApp edits the inputs of d and re-evaluates the unit on
// every change using one long-lived instance.
func NewInteractiveApp(d *fmu.Driver) *editor {
	in := d.NewInstance()
	idx := d.Index()

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 32
	ti.Width = 12

	return &editor{
		d:       d,
		in:      in,
		names:   idx.In.Names,
		start:   in.Inputs(),
		values:  in.Inputs(),
		nominal: d.Nominal(),
		input:   ti,
		busy:    true,
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  24,
	}
}

func (m editor) Init() tea.Cmd { return m.evaluate() }

// schedule starts an evaluation unless one is running, in which case it is
// queued. The instance is never used by two commands at once.
func (m editor) schedule() (editor, tea.Cmd) {
	if m.dead {
		return m, nil
	}
	if m.busy {
		m.pending = true
		return m, nil
	}
	m.busy = true
	return m, m.evaluate()
}

func (m editor) evaluate() tea.Cmd {
	if m.dead {
		return nil
	}
	in, values := m.in, append([]float64(nil), m.values...)
	n := m.d.Index().Out.Len()
	return func() tea.Msg {
		out := make([]float64, n)
		if err := in.Evaluate(values, out); err != nil {
			return evalMsg{err: err}
		}
		stats, err := in.Snapshot()
		return evalMsg{outputs: out, stats: stats, err: err}
	}
}

func (m editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case evalMsg:
		m.busy = false
		m.evals++
		m.err = msg.err
		if msg.err != nil && !fmu.IsRecoverable(msg.err) {
			m.dead = true
			m.in.Free()
			return m, nil
		}
		if msg.err == nil {
			m.outputs = msg.outputs
			m.aux = msg.stats.Aux()
			if len(m.outputs) > 0 {
				m.history = append(m.history, m.outputs[0])
				if len(m.history) > historyLen {
					m.history = m.history[1:]
				}
			}
		}
		if m.pending {
			m.pending = false
			return m.schedule()
		}
	}
	return m, nil
}

func (m editor) handleKey(msg tea.KeyMsg) (editor, tea.Cmd) {
	if m.editing {
		return m.editKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.in.Free()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "left", "h":
		return m.nudge(-1)
	case "right", "l":
		return m.nudge(1)
	case "enter", " ":
		if len(m.names) > 0 {
			m.editing = true
			m.input.SetValue(strconv.FormatFloat(m.values[m.cursor], 'g', -1, 64))
			m.input.CursorEnd()
			cmd := m.input.Focus()
			return m, cmd
		}
	case "r":
		m.values = append([]float64(nil), m.start...)
		return m.schedule()
	case "e":
		return m.schedule()
	}
	return m, nil
}

func (m editor) editKey(msg tea.KeyMsg) (editor, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.input.Blur()
		val, err := strconv.ParseFloat(strings.TrimSpace(m.input.Value()), 64)
		if err != nil {
			m.err = fmt.Errorf("%s: not a number: %q", m.names[m.cursor], m.input.Value())
			return m, nil
		}
		m.values = append([]float64(nil), m.values...)
		m.values[m.cursor] = val
		return m.schedule()
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// nudge moves the selected input by a tenth of its nominal value.
func (m editor) nudge(dir float64) (editor, tea.Cmd) {
	if len(m.names) == 0 {
		return m, nil
	}
	m.values = append([]float64(nil), m.values...)
	m.values[m.cursor] += dir * 0.1 * m.nominal[m.cursor]
	return m.schedule()
}

func (m editor) View() string {
	var b strings.Builder
	idx := m.d.Index()

	b.WriteString("\n")
	b.WriteString("   " + cyan.Render(m.d.Model().Identifier) + "  " + viz.StateBadge(m.in.State()) +
		dim.Render(fmt.Sprintf("  %d evaluations", m.evals)) + "\n")
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", 40)) + "\n\n")

	b.WriteString("   " + white.Render("inputs") + "\n")
	for i, name := range m.names {
		val := fmt.Sprintf("%12.6g", m.values[i])
		if m.editing && i == m.cursor {
			val = " " + m.input.View()
		}
		if i == m.cursor {
			b.WriteString("   " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-18s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("     " + dim.Render(fmt.Sprintf("%-18s", name)) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n   " + white.Render("outputs") + "\n")
	for i, name := range idx.Out.Names {
		val := dimmer.Render(fmt.Sprintf("%12s", "-"))
		if i < len(m.outputs) {
			val = viz.Value.Render(fmt.Sprintf("%12.6g", m.outputs[i]))
		}
		b.WriteString("     " + dim.Render(fmt.Sprintf("%-18s", name)) + val + "\n")
	}

	if len(m.aux) > 0 {
		b.WriteString("\n   " + white.Render("aux") + "\n")
		for _, line := range strings.Split(strings.TrimRight(viz.Aux(m.aux), "\n"), "\n") {
			b.WriteString("   " + line + "\n")
		}
	}

	if len(m.history) > 1 && len(idx.Out.Names) > 0 {
		b.WriteString("\n   " + dim.Render(idx.Out.Names[0]+" ") + viz.Sparkline(m.history, 30) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("   ↑↓ select  ←→ adjust  enter edit  e evaluate  r reset  q quit") + "\n")
	return b.String()
}

func RunInteractive(d *fmu.Driver) error {
	p := tea.NewProgram(NewInteractiveApp(d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
