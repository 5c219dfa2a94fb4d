package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-ambient/sequencer"
	"go-ambient/theme"
	"go-ambient/widgets"
)

// Screen refresh rate for the progress bars
const refreshFPS = 15

const (
	barWidth = 24

	// brightness of a voice between notes
	idleLevel = 0.45
)

type Model struct {
	Manager  *sequencer.Manager
	Theme    *theme.Theme
	seed     string
	input    string
	editing  bool
	showHelp bool
	err      error
	quitting bool
}

type UpdateMsg struct{}

type tickMsg time.Time

func NewModel(manager *sequencer.Manager, th *theme.Theme, seed string) Model {
	return Model{
		Manager: manager,
		Theme:   th,
		seed:    seed,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/refreshFPS, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Seed returns the seed that the next play will use
func (m Model) Seed() string {
	return m.seed
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Manager),
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateSeedInput(msg), nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Manager.Stop()
			return m, tea.Quit

		case "p", " ":
			m.err = m.Manager.Toggle(m.seed)
			m.rememberSeed()

		case "r":
			// fresh random seed
			m.seed = ""
			m.err = m.Manager.Play("")
			m.rememberSeed()

		case "s":
			m.Manager.Stop()

		case "m":
			if m.Manager.Mode() == sequencer.ModeAmbient {
				m.Manager.SetMode(sequencer.ModeLooper)
			} else {
				m.Manager.SetMode(sequencer.ModeAmbient)
			}

		case "/":
			m.editing = true
			m.input = m.seed

		case "?":
			m.showHelp = !m.showHelp
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case tickMsg:
		return m, tick()
	}

	return m, nil
}

func (m Model) updateSeedInput(msg tea.KeyMsg) Model {
	switch msg.Type {
	case tea.KeyEnter:
		m.seed = m.input
		m.editing = false
	case tea.KeyEsc:
		m.editing = false
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m
}

// rememberSeed keeps a synthesized seed so the performance can be replayed
func (m *Model) rememberSeed() {
	if st := m.Manager.Status(); st.Mode == sequencer.ModeAmbient && st.Seed != "" {
		m.seed = st.Seed
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Manager.Status()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := fmt.Sprintf("%c STOP", m.Theme.Symbols.Stopped)
	if st.Playing {
		playState = fmt.Sprintf("%c PLAY", m.Theme.Symbols.Playing)
	}

	seed := m.seed
	if m.editing {
		seed = m.input + "_"
	} else if seed == "" {
		seed = "(random)"
	}
	header := headerStyle.Render(fmt.Sprintf("go-ambient  %s  %-7s  seed: %s  t=%.1fs", playState, st.Mode, seed, st.Now))

	// Voice table
	var rows []string
	colors := make([][3]uint8, 0, len(st.Voices))
	syms := make([]rune, 0, len(st.Voices))
	for i, v := range st.Voices {
		rgb := m.Theme.Voice(i, len(st.Voices))
		sym := m.Theme.Symbols.Empty
		if v.Active && st.Now >= v.When && st.Now < v.When+v.Duration {
			sym = m.Theme.Symbols.Solid
		} else {
			rgb = m.Theme.Fade(rgb, idleLevel)
		}
		color := [3]uint8(rgb)
		colors = append(colors, color)
		syms = append(syms, sym)

		length := v.Period
		if length == 0 {
			length = v.Duration
		}
		bar := widgets.RenderBar(0, barWidth, m.Theme.Symbols.BarFull, m.Theme.Symbols.BarEmpty, color)
		if v.Active {
			bar = widgets.RenderBar(widgets.Progress(st.Now, v.When, length), barWidth, m.Theme.Symbols.BarFull, m.Theme.Symbols.BarEmpty, color)
		}
		rows = append(rows, fmt.Sprintf("%s %s %s %s",
			widgets.RenderPad(color, sym),
			fgStyle.Render(fmt.Sprintf("%-6s", v.Name)),
			dimStyle.Render(fmt.Sprintf("%7.2fHz", v.Frequency)),
			bar,
		))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderPadRow(colors, syms))
	out.WriteString("\n\n")
	out.WriteString(strings.Join(rows, "\n"))
	out.WriteString("\n\n")

	if note, n := m.Manager.LastNote(); n > 0 {
		out.WriteString(dimStyle.Render(fmt.Sprintf("notes: %d  last: %s at %.2fs for %.2fs", n, note.Voice, note.When, note.Duration)))
		out.WriteString("\n")
	}
	if err := m.err; err != nil {
		out.WriteString(errStyle.Render("error: " + err.Error()))
		out.WriteString("\n")
	} else if st.Err != nil {
		out.WriteString(errStyle.Render("error: " + st.Err.Error()))
		out.WriteString("\n")
	}

	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	} else {
		out.WriteString(dimStyle.Render("p:play/stop  r:random seed  /:edit seed  m:mode  s:stop  ?:help  q:quit"))
	}

	return out.String()
}

var keyHelp = []widgets.KeySection{
	{
		Title: "Playback",
		Keys: []widgets.KeyBinding{
			{Key: "p, space", Desc: "play with the current seed, or stop"},
			{Key: "r", Desc: "play a fresh random seed"},
			{Key: "s", Desc: "stop"},
		},
	},
	{
		Title: "Setup",
		Keys: []widgets.KeyBinding{
			{Key: "/", Desc: "edit the seed (enter to keep, esc to cancel)"},
			{Key: "m", Desc: "switch between ambient and looper"},
		},
	},
	{
		Keys: []widgets.KeyBinding{
			{Key: "?", Desc: "toggle this help"},
			{Key: "q", Desc: "quit"},
		},
	},
}
