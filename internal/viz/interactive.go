package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/experiment"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/sim"
	"go.uber.org/zap"
)

type screen int

const (
	screenScenario screen = iota
	screenPreset
	screenLive
)

const defaultPreset = "(defaults)"

// App picks a scenario and preset from menus, then plays it live. Esc in the
// live view returns to the menus.
type App struct {
	logger *zap.Logger

	screen    screen
	scenarios []string
	presets   []string
	cursor    int
	chosen    string

	live *Live
	err  error
	size tea.WindowSizeMsg
}

func NewApp(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger, scenarios: scenario.Names()}
}

// LiveFactory builds simulators from cfg for a live view.
func LiveFactory(cfg *config.Config, logger *zap.Logger) Factory {
	r := experiment.NewRegistry()
	return func() (*sim.Simulator, error) {
		return experiment.Build(cfg, r, logger)
	}
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) items() []string {
	if a.screen == screenPreset {
		return a.presets
	}
	return a.scenarios
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		a.size = size
	}

	if a.screen == screenLive {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			a.screen, a.live, a.cursor = screenPreset, nil, 0
			return a, nil
		}
		_, cmd := a.live.Update(msg)
		return a, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.items())-1 {
			a.cursor++
		}
	case "esc", "backspace":
		if a.screen == screenPreset {
			a.screen, a.cursor = screenScenario, 0
		}
	case "enter":
		return a, a.choose()
	}
	return a, nil
}

func (a *App) choose() tea.Cmd {
	items := a.items()
	if len(items) == 0 {
		return nil
	}
	pick := items[a.cursor]

	if a.screen == screenScenario {
		a.chosen = pick
		a.presets = append([]string{defaultPreset}, config.ListPresets(pick)...)
		a.screen, a.cursor = screenPreset, 0
		return nil
	}

	cfg := config.GetPreset(a.chosen, pick)
	title := a.chosen + "/" + pick
	if cfg == nil {
		cfg = config.DefaultConfig()
		cfg.Scenario = a.chosen
		title = a.chosen
	}
	live, err := NewLive(title, cfg.Sim, LiveFactory(cfg, a.logger))
	if err != nil {
		a.err = err
		return nil
	}
	a.err = nil
	a.live, a.screen = live, screenLive
	if a.size.Width > 0 {
		live.Update(a.size)
	}
	return live.Init()
}

func (a *App) View() string {
	if a.screen == screenLive {
		return a.live.View()
	}

	var b strings.Builder
	if a.screen == screenScenario {
		b.WriteString(Title.Render("grabsim") + Subtle.Render("  choose a scenario") + "\n\n")
	} else {
		b.WriteString(Title.Render(a.chosen) + Subtle.Render("  choose a preset") + "\n\n")
	}

	for i, item := range a.items() {
		line := "  " + item
		if a.screen == screenScenario {
			if desc, ok := scenario.Describe(item); ok {
				line = fmt.Sprintf("  %-14s %s", item, Subtle.Render(desc))
			}
		}
		if i == a.cursor {
			line = Selected.Render("> " + strings.TrimPrefix(line, "  "))
		}
		b.WriteString(line + "\n")
	}

	if a.err != nil {
		b.WriteString("\n" + StatusError.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n" + KeyHint.Render("up/down move  enter select  esc back  q quit"))
	return Panel.Render(b.String())
}

func RunInteractive(logger *zap.Logger) error {
	_, err := tea.NewProgram(NewApp(logger), tea.WithAltScreen()).Run()
	return err
}
