package monitor

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/sim"
)

type fakeSource struct {
	frame, collisions uint64
	bodies            int
}

func (f fakeSource) Frame() uint64      { return f.frame }
func (f fakeSource) Collisions() uint64 { return f.collisions }
func (f fakeSource) BodyCount() int     { return f.bodies }

func frameOf(n uint64, count int) sim.Frame {
	f := sim.Frame{Number: n}
	for i := 0; i < count; i++ {
		f.Bodies = append(f.Bodies, physics.State{
			ID:       i,
			Position: dynamo.V(50+float64(i)*30, 100),
			Velocity: dynamo.V(1, -1),
			Diameter: 20,
			Mass:     1,
		})
	}
	return f
}

func newTestModel(count int) (Model, *metrics.Recorder) {
	rec := metrics.NewRecorder(16, metrics.Default(sim.DefaultConfig())...)
	for n := uint64(1); n <= 3; n++ {
		rec.OnFrame(frameOf(n, count))
	}
	return NewModel(fakeSource{frame: 3, collisions: 7, bodies: count}, rec, time.Millisecond), rec
}

func TestUpdate_TickRefreshes(t *testing.T) {
	m, _ := newTestModel(3)

	next, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	view := next.View()

	for _, want := range []string{"BALLSIM", "RUNNING", "Kinetic energy", "Collisions"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if got := next.(Model).frame.Number; got != 3 {
		t.Errorf("expected frame 3, got %d", got)
	}
}

func TestUpdate_Freeze(t *testing.T) {
	m, rec := newTestModel(2)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	rec.OnFrame(frameOf(4, 2))
	next, _ = next.Update(TickMsg(time.Now()))

	if got := next.(Model).frame.Number; got != 0 {
		t.Errorf("frozen monitor should not refresh, got frame %d", got)
	}
	if !strings.Contains(next.View(), "FROZEN") {
		t.Error("view should report frozen state")
	}
}

func TestUpdate_Quit(t *testing.T) {
	m, _ := newTestModel(1)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestUpdate_ThemeAndPaging(t *testing.T) {
	m, _ := newTestModel(pageSize + 3)
	next, _ := m.Update(TickMsg(time.Now()))

	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if got := next.(Model).theme; got != 1 {
		t.Errorf("expected theme 1, got %d", got)
	}

	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := next.(Model).page; got != 1 {
		t.Errorf("expected page 1, got %d", got)
	}
	if !strings.Contains(next.View(), "13-15 of 15") {
		t.Error("second page should list the remaining bodies")
	}

	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := next.(Model).page; got != 0 {
		t.Errorf("paging should wrap, got page %d", got)
	}
}

func TestGetTheme(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" {
		t.Error("expected ocean theme")
	}
	if GetTheme("missing").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the default")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}
