package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/bhsim/internal/body"
	"github.com/san-kum/bhsim/internal/config"
	"github.com/san-kum/bhsim/internal/sim"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Workers = 1
	store := body.NewStore(2)
	store.Add(body.Point{X: 100, Y: 100, Mass: 1e6})
	store.Add(body.Point{X: 700, Y: 500, Mass: 1e6})
	s, err := sim.New(cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, WithSize(40, 15), WithEnergyEvery(1))
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestTickStepsWhenRunning(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(m, TickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	if m.snap == nil || m.snap.Frame != 0 {
		t.Fatalf("expected frame 0 snapshot, got %+v", m.snap)
	}
	if len(m.driftHistory) != 1 || len(m.frameDuration) != 1 {
		t.Errorf("histories not updated: %d, %d", len(m.driftHistory), len(m.frameDuration))
	}

	m, _ = update(m, key("p"))
	m, _ = update(m, TickMsg(time.Now()))
	if m.snap.Frame != 0 {
		t.Error("paused model advanced on tick")
	}

	m, _ = update(m, key("n"))
	if m.snap.Frame != 1 {
		t.Errorf("single step while paused: frame %d", m.snap.Frame)
	}
}

func TestSpaceTogglesGrid(t *testing.T) {
	m := newTestModel(t)
	if m.sim.GridEnabled() {
		t.Fatal("grid should start disabled")
	}

	m, _ = update(m, key(" "))
	if !m.sim.GridEnabled() {
		t.Fatal("space did not enable the grid")
	}

	m, _ = update(m, TickMsg(time.Now()))
	if !m.snap.HasGrid() {
		t.Error("snapshot after enabling grid has no rectangles")
	}

	m, _ = update(m, key(" "))
	if m.sim.GridEnabled() {
		t.Error("second space did not disable the grid")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := update(m, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestViewDrawsSnapshot(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(m, key(" "))
	m, _ = update(m, TickMsg(time.Now()))
	m, _ = update(m, TickMsg(time.Now()))

	out := m.View()
	for _, want := range []string{"BARNES-HUT", "Bodies", "Nodes", "Grid"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	// the root outline runs along the canvas edges
	pw, _ := m.canvas.PixelSize()
	if !m.canvas.IsSet(0, 0) || !m.canvas.IsSet(pw-1, 0) {
		t.Error("grid outline not drawn")
	}
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.canvas.Width != 120-statsWidth-6 || m.canvas.Height != 36 {
		t.Errorf("canvas %dx%d after resize", m.canvas.Width, m.canvas.Height)
	}
}

func TestDrawSnapshotScalesPoints(t *testing.T) {
	c := NewCanvas(10, 5)
	snap := &sim.Snapshot{Points: []body.Vec{{X: 0, Y: 0}, {X: 100, Y: 50}}}
	DrawSnapshot(c, snap, 100, 50)

	pw, ph := c.PixelSize()
	if !c.IsSet(0, 0) {
		t.Error("origin not drawn")
	}
	if !c.IsSet(pw-1, ph-1) {
		t.Error("far corner not drawn")
	}
}

func TestDriftBaselineIsInitialState(t *testing.T) {
	m := newTestModel(t)
	want := m.sim.Energy()
	if got := m.drift.Initial(); got != want {
		t.Errorf("baseline energy %g, want initial %g", got, want)
	}

	m, _ = update(m, TickMsg(time.Now()))
	if got := m.drift.Initial(); got != want {
		t.Errorf("baseline moved to %g after a frame", got)
	}
}
