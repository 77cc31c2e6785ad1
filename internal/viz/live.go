package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/beamsim/internal/beam"
	"github.com/san-kum/beamsim/internal/elements"
	"github.com/san-kum/beamsim/internal/lattice"
	"github.com/san-kum/beamsim/internal/track"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 512
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

type paramRef struct {
	slot string
	name string
}

// Model is the live tracking view: the bunch's transverse cross
// section on a braille canvas, turn-by-turn centroid history, and
// interactive tuning of magnet parameters between turns.
type Model struct {
	lat     *lattice.Lattice
	tracker *track.Tracker
	bunch   beam.BunchConfig

	ens      *beam.Ensemble
	turn     int
	running  bool
	scale    float64
	canvas   *Canvas
	history  []float64
	params   []paramRef
	selected int
	err      error
}

// NewModel builds the live view for a lattice and bunch description.
func NewModel(lat *lattice.Lattice, bunch beam.BunchConfig) (Model, error) {
	ens, err := beam.GaussianBunch(bunch)
	if err != nil {
		return Model{}, err
	}

	params := make([]paramRef, 0)
	for _, slot := range lat.Slots {
		c, ok := slot.Elem.(elements.Configurable)
		if !ok {
			continue
		}
		names := make([]string, 0)
		for name := range c.GetParams() {
			if name == "length" {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			params = append(params, paramRef{slot: slot.Name, name: name})
		}
	}

	scale := 6 * bunch.SigmaX
	if scale == 0 {
		scale = 1e-3
	}

	return Model{
		lat:     lat,
		tracker: track.New(lat.Elements()),
		bunch:   bunch,
		ens:     ens,
		running: true,
		scale:   scale,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		history: make([]float64, 0, historyCapacity),
		params:  params,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			if len(m.params) > 0 {
				m.selected = (m.selected + 1) % len(m.params)
			}
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "+", "=":
			m.scale /= 1.25
		case "-", "_":
			m.scale *= 1.25
		}
	case TickMsg:
		if m.running && m.ens.AliveCount() > 0 {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	m.tracker.TrackTurn(m.ens)
	m.turn++

	mo := m.ens.Moments()
	m.history = append(m.history, mo.MeanX)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Model) reset() {
	ens, err := beam.GaussianBunch(m.bunch)
	if err != nil {
		m.err = err
		return
	}
	m.ens = ens
	m.turn = 0
	m.history = m.history[:0]
}

func (m *Model) adjustParam(factor float64) {
	if len(m.params) == 0 {
		return
	}
	ref := m.params[m.selected]
	for _, slot := range m.lat.Slots {
		if slot.Name != ref.slot {
			continue
		}
		c, ok := slot.Elem.(elements.Configurable)
		if !ok {
			return
		}
		val := c.GetParams()[ref.name]
		if val == 0 {
			val = 1e-4
		}
		c.SetParam(ref.name, val*factor)
		return
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	cw, ch := canvasWidth*2, canvasHeight*4
	cx, cy := cw/2, ch/2

	m.canvas.DrawLine(0, cy, cw-1, cy)
	m.canvas.DrawLine(cx, 0, cx, ch-1)

	for i := 0; i < m.ens.Len(); i++ {
		p := m.ens.At(i)
		if !p.Alive() {
			continue
		}
		px := cx + int(p.X/m.scale*float64(cw)/2)
		py := cy - int(p.Y/m.scale*float64(ch)/2)
		if px < 0 || px >= cw || py < 0 || py >= ch {
			continue
		}
		m.canvas.Set(px, py)
	}
}

func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\n", m.err)
	}

	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	mo := m.ens.Moments()
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	if m.ens.AliveCount() == 0 {
		status = "BEAM LOST"
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.lat.Name)) + "\n")
	s.WriteString(status + "\n\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("x centroid"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Turn") + valueStyle.Render(fmt.Sprintf("%d", m.turn)) + "\n")
	s.WriteString(labelStyle.Render("Alive") + valueStyle.Render(fmt.Sprintf("%d / %d", mo.Alive, m.ens.Len())) + "\n")
	s.WriteString(labelStyle.Render("rms x") + valueStyle.Render(fmt.Sprintf("%.3e m", mo.RMSX)) + "\n")
	s.WriteString(labelStyle.Render("rms y") + valueStyle.Render(fmt.Sprintf("%.3e m", mo.RMSY)) + "\n")
	s.WriteString(labelStyle.Render("scale") + valueStyle.Render(fmt.Sprintf("±%.1e m", m.scale)) + "\n")

	s.WriteString("\nMAGNETS\n")
	if len(m.params) > 0 {
		for i, ref := range m.params {
			val := 0.0
			for _, slot := range m.lat.Slots {
				if slot.Name == ref.slot {
					if c, ok := slot.Elem.(elements.Configurable); ok {
						val = c.GetParams()[ref.name]
					}
				}
			}
			line := fmt.Sprintf("%-6s %-4s %+.4f", ref.slot, ref.name, val)
			if i == m.selected {
				s.WriteString(activeStyle.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + labelStyle.Render(line) + "\n")
			}
		}
	} else {
		s.WriteString(labelStyle.Render("  (none)") + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nTab:Select ↑↓:Tune +/-:Zoom"))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}
