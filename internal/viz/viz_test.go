package viz

import (
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/geom"
)

func TestCanvasPlot(t *testing.T) {
	c := NewCanvas(2, 1)
	if w, h := c.Size(); w != 4 || h != 4 {
		t.Fatalf("size = %dx%d, want 4x4", w, h)
	}

	c.Plot(0, 0)
	c.Plot(3, 3)
	c.Plot(-1, 0)
	c.Plot(4, 0)

	if !c.Lit(0, 0) || !c.Lit(3, 3) || c.Lit(1, 1) {
		t.Error("wrong dots lit")
	}
	if got := c.String(); got != string([]rune{0x2801, 0x2880}) {
		t.Errorf("String() = %q", got)
	}

	c.Clear()
	if c.Lit(0, 0) {
		t.Error("Clear left a dot lit")
	}
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(10, 3)
	c.Line(0, 0, 19, 11)
	if !c.Lit(0, 0) || !c.Lit(19, 11) {
		t.Error("line endpoints not lit")
	}
	lines := strings.Split(c.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d rows, want 3", len(lines))
	}
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n != 10 {
			t.Errorf("row has %d cells, want 10", n)
		}
	}
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera()
	cam.Yaw, cam.Pitch = 0, 0

	x, y, depth, ok := cam.Project(cam.Target, 100, 80)
	if !ok || x != 50 || y != 40 {
		t.Errorf("target projects to (%d, %d, %v), want centre", x, y, ok)
	}
	if depth != cam.Distance {
		t.Errorf("depth = %v, want %v", depth, cam.Distance)
	}

	_, above, _, _ := cam.Project(cam.Target.Add(mgl64.Vec3{0, 1, 0}), 100, 80)
	if above >= 40 {
		t.Errorf("point above target drawn at y=%d, want above centre", above)
	}
	right, _, _, _ := cam.Project(cam.Target.Add(mgl64.Vec3{1, 0, 0}), 100, 80)
	if right <= 50 {
		t.Errorf("point right of target drawn at x=%d", right)
	}

	if _, _, _, ok := cam.Project(cam.Target.Add(mgl64.Vec3{0, 0, 10}), 100, 80); ok {
		t.Error("point behind the camera projected")
	}
}

func TestCameraClamps(t *testing.T) {
	cam := NewCamera()
	cam.Orbit(0, 10)
	if cam.Pitch != maxPitch {
		t.Errorf("pitch = %v, want %v", cam.Pitch, maxPitch)
	}
	for i := 0; i < 100; i++ {
		cam.ZoomBy(2)
	}
	if cam.Zoom != maxZoom {
		t.Errorf("zoom = %v, want %v", cam.Zoom, maxZoom)
	}
}

func TestCube(t *testing.T) {
	segs := Cube(geom.NewPose(mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent()), 2)
	if len(segs) != 12 {
		t.Fatalf("got %d edges, want 12", len(segs))
	}
	for _, s := range segs {
		if d := s.A.Sub(s.B).Len(); d < 2-1e-9 || d > 2+1e-9 {
			t.Errorf("edge length %v, want 2", d)
		}
	}
}

func newTestLive(t *testing.T, name string) *Live {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scenario = name
	m, err := NewLive(name, cfg.Sim, LiveFactory(cfg, nil))
	if err != nil {
		t.Fatalf("NewLive: %v", err)
	}
	return m
}

func TestLiveTicks(t *testing.T) {
	m := newTestLive(t, "throw")

	m.Update(TickMsg{})
	if len(m.history) != m.rate {
		t.Fatalf("history = %d frames after one tick, want %d", len(m.history), m.rate)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	if !m.paused {
		t.Fatal("space did not pause")
	}
	n := len(m.history)
	m.Update(TickMsg{})
	if len(m.history) != n {
		t.Error("paused view advanced on tick")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'.'}})
	if len(m.history) != n+1 {
		t.Error("single step did not advance one frame")
	}

	m.paused = false
	for i := 0; i < 1000 && !m.finished; i++ {
		m.Update(TickMsg{})
	}
	if !m.finished || m.err != nil {
		t.Fatalf("finished = %v, err = %v", m.finished, m.err)
	}
	if len(m.history) != m.stepper.Frames() {
		t.Errorf("history = %d, want %d", len(m.history), m.stepper.Frames())
	}
	if !strings.Contains(m.View(), "detached") {
		t.Error("view does not list the release event")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if len(m.history) != 0 || m.finished {
		t.Error("reset did not restart the run")
	}
}

func TestLiveScrub(t *testing.T) {
	m := newTestLive(t, "hold")
	m.advance(50)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	if m.playHead != 49-scrubStep || !m.paused {
		t.Fatalf("playHead = %d, paused = %v", m.playHead, m.paused)
	}
	cur, _ := m.current()
	if cur != m.history[m.playHead] {
		t.Error("current frame is not the play head")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	if m.playHead != -1 {
		t.Errorf("playHead = %d, want back to live", m.playHead)
	}
}

func TestAppMenus(t *testing.T) {
	a := NewApp(nil)
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if a.screen != screenPreset || a.chosen != a.scenarios[0] {
		t.Fatalf("screen = %v, chosen = %q", a.screen, a.chosen)
	}
	if a.presets[0] != defaultPreset {
		t.Errorf("first preset = %q", a.presets[0])
	}

	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if a.screen != screenLive || a.live == nil {
		t.Fatalf("screen = %v, err = %v", a.screen, a.err)
	}

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.screen != screenPreset || a.live != nil {
		t.Error("esc did not leave the live view")
	}
}
