package monitor

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/sim"
)

const (
	DefaultRefresh = time.Second / 30
	pageSize       = 12
	chartWidth     = 48
)

// Source reports engine counters. *sim.Engine satisfies it.
type Source interface {
	Collisions() uint64
	BodyCount() int
}

type TickMsg time.Time

type Model struct {
	source   Source
	recorder *metrics.Recorder
	refresh  time.Duration
	started  time.Time

	frozen bool
	theme  int
	page   int
	st     styles

	// display copies refreshed on every tick unless frozen
	frame      sim.Frame
	history    []float64
	values     map[string]float64
	collisions uint64
	bodies     int
	elapsed    time.Duration
}

func NewModel(source Source, recorder *metrics.Recorder, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return Model{
		source:   source,
		recorder: recorder,
		refresh:  refresh,
		started:  time.Now(),
		st:       newStyles(Themes[0]),
		values:   map[string]float64{},
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.st = newStyles(Themes[m.theme])
		case "tab":
			pages := (len(m.frame.Bodies) + pageSize - 1) / pageSize
			if pages > 0 {
				m.page = (m.page + 1) % pages
			}
		}
	case TickMsg:
		if !m.frozen {
			m.refreshFrom(time.Time(msg))
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) refreshFrom(now time.Time) {
	m.frame = m.recorder.Last()
	m.history = m.recorder.History()
	m.values = m.recorder.Values()
	m.collisions = m.source.Collisions()
	m.bodies = m.source.BodyCount()
	m.elapsed = now.Sub(m.started)
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(m.st.header.Render("BALLSIM") + "\n")

	status := m.st.ok.Render("RUNNING")
	if m.frozen {
		status = m.st.warn.Render("FROZEN")
	}
	s.WriteString(status + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(6), asciigraph.Width(chartWidth), asciigraph.Caption("Kinetic energy"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	fps := 0.0
	if secs := m.elapsed.Seconds(); secs > 0 {
		fps = float64(m.frame.Number) / secs
	}
	p := metrics.Momentum(m.frame.Bodies)

	s.WriteString(m.row("Frame", fmt.Sprintf("%d", m.frame.Number)))
	s.WriteString(m.row("Frames/s", fmt.Sprintf("%.1f", fps)))
	s.WriteString(m.row("Bodies", fmt.Sprintf("%d", m.bodies)))
	s.WriteString(m.row("Collisions", fmt.Sprintf("%d", m.collisions)))
	s.WriteString(m.row("Kinetic energy", fmt.Sprintf("%.3f", metrics.KineticEnergy(m.frame.Bodies))))
	s.WriteString(m.row("Momentum", fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)))
	s.WriteString(m.row("Energy drift", m.gauge(m.values["energy_drift"], 0.01, 0.1, "%.2e")))
	s.WriteString(m.row("Penetration", m.gauge(m.values["max_penetration"], 1, 5, "%.3f")))
	s.WriteString(m.row("Containment", fmt.Sprintf("%.1f%%", 100*m.values["containment"])))

	s.WriteString("\n" + m.st.panel.Render(m.table()) + "\n")
	s.WriteString(m.st.help.Render("SP:Freeze  T:Theme(" + Themes[m.theme].Name + ")  TAB:Page  Q:Quit"))
	return s.String()
}

func (m Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

// gauge colors v by the warn and bad thresholds.
func (m Model) gauge(v, warn, bad float64, format string) string {
	text := fmt.Sprintf(format, v)
	switch {
	case v >= bad:
		return m.st.bad.Render(text)
	case v >= warn:
		return m.st.warn.Render(text)
	default:
		return m.st.ok.Render(text)
	}
}

func (m Model) table() string {
	bodies := m.frame.Bodies
	if len(bodies) == 0 {
		return m.st.label.Render("(no bodies)")
	}
	start := m.page * pageSize
	if start >= len(bodies) {
		start = 0
	}
	end := min(start+pageSize, len(bodies))

	lines := []string{fmt.Sprintf("%4s %8s %8s %7s %7s %6s", "id", "x", "y", "vx", "vy", "d")}
	for _, b := range bodies[start:end] {
		lines = append(lines, bodyLine(b))
	}
	lines = append(lines, fmt.Sprintf("%d-%d of %d", start+1, end, len(bodies)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func bodyLine(b physics.State) string {
	return fmt.Sprintf("%4d %8.2f %8.2f %7.3f %7.3f %6.1f",
		b.ID, b.Position.X, b.Position.Y, b.Velocity.X, b.Velocity.Y, b.Diameter)
}
