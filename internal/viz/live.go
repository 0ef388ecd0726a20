package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/grabsim/internal/geom"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/sim"
)

const (
	historyCapacity = 4096
	trailLength     = 90
	scrubStep       = 10
	maxRate         = 32

	defaultFPS  = 60
	canvasCols  = 60
	canvasRows  = 18
	statsWidth  = 40
	plotHeight  = 6
	cubeSize    = 0.2
	handSize    = 0.15
	followBlend = 0.1
	eventLines  = 6
)

type TickMsg time.Time

func tick(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Factory builds the simulator a live view plays. It is called again on
// every reset.
type Factory func() (*sim.Simulator, error)

// Live plays a simulator in the terminal, one batch of host frames per tick.
type Live struct {
	title   string
	cfg     sim.Config
	factory Factory
	fps     int
	rate    int

	sim     *sim.Simulator
	stepper *sim.Stepper
	events  *[]grab.Event

	history  []sim.Sample
	playHead int // -1 follows the newest frame
	paused   bool
	finished bool
	showHelp bool
	err      error

	camera *Camera
	canvas *Canvas
	scene  Scene
}

func NewLive(title string, cfg sim.Config, factory Factory) (*Live, error) {
	m := &Live{
		title:    title,
		cfg:      cfg,
		factory:  factory,
		fps:      defaultFPS,
		rate:     max(1, int(math.Round(1/(defaultFPS*cfg.Dt)))),
		playHead: -1,
		camera:   NewCamera(),
		canvas:   NewCanvas(canvasCols, canvasRows),
	}
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Live) reset() error {
	s, err := m.factory()
	if err != nil {
		return err
	}
	events := &[]grab.Event{}
	s.Grabbable().AddObserver(func(ev grab.Event) { *events = append(*events, ev) })

	st, err := s.Start(m.cfg)
	if err != nil {
		return err
	}
	m.sim, m.stepper, m.events = s, st, events
	m.history = m.history[:0]
	m.playHead = -1
	m.finished = false
	m.err = nil
	m.camera.Target = s.Body().Pose().Position
	return nil
}

// advance steps up to n frames.
func (m *Live) advance(n int) {
	for i := 0; i < n && !m.finished; i++ {
		smp, err := m.stepper.Step()
		if err != nil {
			m.err = err
			m.finished = true
			return
		}
		if len(m.history) == historyCapacity {
			m.history = append(m.history[:0], m.history[1:]...)
		}
		m.history = append(m.history, smp)
		m.finished = m.stepper.Done()
	}
	if cur, ok := m.current(); ok {
		m.camera.Target = geom.Lerp(m.camera.Target, cur.Position, followBlend)
	}
}

func (m *Live) current() (sim.Sample, bool) {
	if len(m.history) == 0 {
		return sim.Sample{}, false
	}
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead], true
	}
	return m.history[len(m.history)-1], true
}

func (m *Live) Init() tea.Cmd { return tick(m.fps) }

func (m *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cols := max(20, msg.Width-statsWidth-6)
		rows := max(8, msg.Height-plotHeight-8)
		m.canvas = NewCanvas(cols, rows)
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	case TickMsg:
		if !m.paused && m.playHead < 0 {
			m.advance(m.rate)
		}
		return m, tick(m.fps)
	}
	return m, nil
}

func (m *Live) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case " ":
		m.paused = !m.paused
	case "r":
		if err := m.reset(); err != nil {
			m.err = err
		}
	case ".":
		if m.paused && m.playHead < 0 {
			m.advance(1)
		}
	case "[":
		if len(m.history) == 0 {
			break
		}
		if m.playHead < 0 {
			m.playHead = len(m.history) - 1
		}
		m.playHead = max(0, m.playHead-scrubStep)
		m.paused = true
	case "]":
		if m.playHead >= 0 {
			m.playHead += scrubStep
			if m.playHead >= len(m.history)-1 {
				m.playHead = -1
			}
		}
	case "left", "h":
		m.camera.Orbit(-0.1, 0)
	case "right", "l":
		m.camera.Orbit(0.1, 0)
	case "up", "k":
		m.camera.Orbit(0, 0.1)
	case "down", "j":
		m.camera.Orbit(0, -0.1)
	case "+", "=":
		m.camera.ZoomBy(1.1)
	case "-":
		m.camera.ZoomBy(1 / 1.1)
	case ">":
		m.rate = min(maxRate, m.rate*2)
	case "<":
		m.rate = max(1, m.rate/2)
	case "?":
		m.showHelp = !m.showHelp
	}
	return nil
}

func (m *Live) status() string {
	switch {
	case m.err != nil:
		return StatusError.Render("ERROR")
	case m.playHead >= 0:
		return StatusPaused.Render(fmt.Sprintf("REPLAY %d/%d", m.playHead+1, len(m.history)))
	case m.finished:
		return StatusPaused.Render("FINISHED")
	case m.paused:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

func (m *Live) drawScene(cur sim.Sample, ok bool) string {
	m.scene.Reset()
	m.scene.Add(Grid(m.camera.Target, 2, 9)...)

	if ok {
		m.scene.Add(Cube(geom.NewPose(cur.Position, cur.Rotation), cubeSize)...)
		if cur.Held {
			m.scene.Add(Cross(cur.Hand, handSize)...)
		}

		end := len(m.history)
		if m.playHead >= 0 {
			end = m.playHead + 1
		}
		start := max(0, end-trailLength)
		for i := start + 1; i < end; i++ {
			m.scene.Add(Segment{m.history[i-1].Position, m.history[i].Position})
		}
	}

	m.canvas.Clear()
	m.scene.Render(m.canvas, m.camera)
	return Panel.Render(m.canvas.String())
}

func (m *Live) statsView(cur sim.Sample) string {
	var b strings.Builder
	b.WriteString(Title.Render(m.title) + "  " + m.status() + "\n\n")

	b.WriteString(metricLine("time", fmt.Sprintf("%.3f s", cur.Time)) + "\n")
	b.WriteString(metricLine("frame", fmt.Sprintf("%d/%d", len(m.history), m.stepper.Frames())) + "\n")
	b.WriteString(metricLine("rate", fmt.Sprintf("%dx", m.rate)) + "\n")

	held := "no"
	movement := m.sim.Grabbable().Params().MovementType
	if sess := m.sim.Grabbable().Session(); sess != nil {
		movement = sess.Movement
		if cur.Held {
			held = string(sess.Interactor.ID())
		}
	}
	b.WriteString(metricLine("held", held) + "\n")
	b.WriteString(metricLine("movement", movement.String()) + "\n")
	b.WriteString(metricLine("position", fmtVec(cur.Position)) + "\n")
	b.WriteString(metricLine("speed", fmt.Sprintf("%.3f m/s", cur.Speed())) + "\n")
	b.WriteString(metricLine("energy", fmt.Sprintf("%.3f J", cur.KineticEnergy)) + "\n")
	b.WriteString(metricLine("tracking", fmt.Sprintf("%.4f m", cur.TrackingError())) + "\n")

	b.WriteString("\n" + Subtle.Render("events") + "\n")
	evs := *m.events
	for _, ev := range evs[max(0, len(evs)-eventLines):] {
		line := fmt.Sprintf("%6.3f %s", ev.Time, ev.Kind)
		if ev.Interactor != nil {
			line += " " + string(ev.Interactor.ID())
		}
		if ev.Kind == grab.EventDetached {
			line += " " + fmtVec(ev.Velocity)
		}
		b.WriteString(Subtle.Render(line) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + StatusError.Render(m.err.Error()) + "\n")
	}
	return Panel.Width(statsWidth).Render(b.String())
}

func (m *Live) plotView() string {
	end := len(m.history)
	if m.playHead >= 0 {
		end = m.playHead + 1
	}
	start := max(0, end-m.canvas.Cols*2)
	if end-start < 2 {
		return ""
	}
	speeds := make([]float64, 0, end-start)
	for _, s := range m.history[start:end] {
		speeds = append(speeds, s.Speed())
	}
	return asciigraph.Plot(speeds,
		asciigraph.Height(plotHeight),
		asciigraph.Width(m.canvas.Cols),
		asciigraph.Caption("speed (m/s)"))
}

func (m *Live) View() string {
	if m.showHelp {
		return helpView()
	}
	cur, ok := m.current()
	top := lipgloss.JoinHorizontal(lipgloss.Top, m.drawScene(cur, ok), m.statsView(cur))
	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		m.plotView(),
		KeyHint.Render("space pause  r reset  [ ] scrub  arrows orbit  +/- zoom  < > rate  ? help  q quit"))
}

func helpView() string {
	keys := [][2]string{
		{"space", "pause or resume"},
		{".", "step one frame while paused"},
		{"r", "restart the scenario"},
		{"[ ]", "scrub back and forward through history"},
		{"arrows / hjkl", "orbit the camera"},
		{"+ -", "zoom"},
		{"< >", "frames per tick"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}
	var b strings.Builder
	b.WriteString(Title.Render("Keys") + "\n\n")
	for _, k := range keys {
		b.WriteString(MetricLabel.Width(16).Render(k[0]) + k[1] + "\n")
	}
	return Panel.Render(b.String())
}

func fmtVec(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X(), v.Y(), v.Z())
}

// RunLive plays one simulator full screen until the user quits.
func RunLive(title string, cfg sim.Config, factory Factory) error {
	m, err := NewLive(title, cfg, factory)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
