package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"k8s.io/klog/v2"

	"github.com/san-kum/bhsim/internal/metrics"
	"github.com/san-kum/bhsim/internal/sim"
)

const (
	defaultWidth    = 80
	defaultHeight   = 30
	statsWidth      = 44
	historyCapacity = 300
)

var (
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpText   = `
╔══════════════════════════════════╗
║        KEYBOARD SHORTCUTS        ║
╠══════════════════════════════════╣
║  Space  - Toggle quadtree grid   ║
║  P      - Pause/Resume           ║
║  N      - Step one frame (pause) ║
║  T      - Cycle themes           ║
║  ?      - Toggle this help       ║
║  Q      - Quit                   ║
╚══════════════════════════════════╝
`
)

type TickMsg time.Time

// Model steps a simulator on every tick and draws its latest snapshot.
type Model struct {
	sim           *sim.Simulator
	canvas        *Canvas
	width, height int
	interval      time.Duration
	running       bool
	showHelp      bool
	snap          *sim.Snapshot

	drift         *metrics.EnergyDrift
	energyEvery   int
	driftHistory  []float64
	frameDuration []float64
	lastStep      time.Duration
}

type Option func(*Model)

// WithEnergyEvery samples energy drift every n frames; 0 disables it.
func WithEnergyEvery(n int) Option {
	return func(m *Model) { m.energyEvery = n }
}

func WithSize(w, h int) Option {
	return func(m *Model) {
		m.width, m.height = w, h
		m.canvas = NewCanvas(w, h)
	}
}

func NewModel(s *sim.Simulator, opts ...Option) Model {
	cfg := s.Config()
	m := Model{
		sim:           s,
		width:         defaultWidth,
		height:        defaultHeight,
		canvas:        NewCanvas(defaultWidth, defaultHeight),
		interval:      time.Second / time.Duration(cfg.FPS),
		running:       true,
		drift:         metrics.NewEnergyDrift(cfg.Physics.G, cfg.Physics.Softening),
		energyEvery:   10,
		driftHistory:  make([]float64, 0, historyCapacity),
		frameDuration: make([]float64, 0, historyCapacity),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.energyEvery > 0 {
		m.drift.Observe(s.Store().Points())
	}
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			on := m.sim.ToggleGrid()
			klog.V(2).Infof("grid overlay %v", on)
		case "p":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		w := max(msg.Width-statsWidth-6, 10)
		h := max(msg.Height-4, 5)
		m.width, m.height = w, h
		m.canvas = NewCanvas(w, h)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances one frame.
func (m *Model) step() {
	start := time.Now()
	m.snap = m.sim.Step()
	m.lastStep = time.Since(start)

	m.frameDuration = appendCapped(m.frameDuration, float64(m.lastStep)/float64(time.Millisecond))
	if m.energyEvery > 0 && m.snap.Frame%uint64(m.energyEvery) == 0 {
		d := m.drift.Observe(m.sim.Store().Points())
		m.driftHistory = appendCapped(m.driftHistory, d)
	}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// draw renders the current snapshot onto the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	if m.snap == nil {
		return
	}
	cfg := m.sim.Config()
	DrawSnapshot(m.canvas, m.snap, cfg.Domain.Width, cfg.Domain.Height)
}

// DrawSnapshot scales a w x h domain onto c and draws the snapshot's node
// rectangles, if any, then its points. The canvas is not cleared first.
func DrawSnapshot(c *Canvas, snap *sim.Snapshot, w, h float64) {
	pw, ph := c.PixelSize()
	sx := float64(pw-1) / w
	sy := float64(ph-1) / h
	project := func(x, y float64) (int, int) {
		return int(x * sx), int(y * sy)
	}

	for r := range snap.Rects() {
		x0, y0 := project(r.X, r.Y)
		x1, y1 := project(r.X+r.W, r.Y+r.H)
		c.DrawRect(x0, y0, x1, y1)
	}
	for _, p := range snap.Points {
		c.Set(project(p.X, p.Y))
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle().Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(HeaderStyle.Foreground(CurrentTheme.Accent).Render("BARNES-HUT") + "\n")

	status := StatusRunning.Render("RUNNING")
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	cfg := m.sim.Config()
	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}

	row("Bodies", fmt.Sprintf("%d", m.sim.Store().Len()))
	row("Theta", fmt.Sprintf("%.2f", cfg.Physics.Theta))
	row("Grid", onOff(m.sim.GridEnabled()))
	if m.snap != nil {
		row("Frame", fmt.Sprintf("%d", m.snap.Frame))
		row("Time", fmt.Sprintf("%.4fs", m.snap.Time))
		row("Nodes", fmt.Sprintf("%d", m.snap.Tree.Nodes))
		row("Depth", fmt.Sprintf("%d", m.snap.Tree.MaxDepth))
		if m.snap.Dropped > 0 {
			row("Dropped", lipgloss.NewStyle().Foreground(CurrentTheme.Warn).Render(fmt.Sprintf("%d", m.snap.Dropped)))
		}
		row("Step", m.lastStep.Round(time.Microsecond).String())
	}

	if len(m.frameDuration) > 0 {
		s.WriteString("\n" + SparklineChart(m.frameDuration, statsWidth-6) + "\n")
	}
	if len(m.driftHistory) > 1 {
		chart := asciigraph.Plot(m.driftHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy drift"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(KeyHint.Render("SP:Grid P:Pause N:Step\nT:Theme ?:Help Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Run starts the live view and blocks until the user quits.
func Run(s *sim.Simulator, opts ...Option) error {
	_, err := tea.NewProgram(NewModel(s, opts...), tea.WithAltScreen()).Run()
	return err
}
