package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/httop/internal/clock"
	"github.com/tinytelemetry/httop/internal/model"
	"github.com/tinytelemetry/httop/internal/render"
)

const (
	maxEntries = 500
	maxHistory = 240
)

// Window is the part of the aggregator the dashboard drives.
type Window interface {
	Snapshot(n int) []model.Row
	Evict(window time.Duration, now time.Time) int
	Len() int
	Total() int
}

// Config controls the dashboard.
type Config struct {
	Delay   time.Duration
	Window  time.Duration
	Entries int
	Label   string
	Skin    Skin
	Clock   clock.Clock
	// Stats reports ingestion counters; nil shows zeros.
	Stats func() model.IngestStats
	// OnQuit runs when the operator quits from the keyboard.
	OnQuit func()
}

type tickMsg time.Time

// App is the top-level Bubble Tea model. Each tick it samples the window,
// then evicts stale hits, whether or not painting is paused.
type App struct {
	win    Window
	conf   Config
	keys   KeyMap
	help   help.Model
	styles styles

	pages  []Page
	active int
	width  int
	height int

	entries int
	paused  bool
	sample  Sample
	history []int
}

// NewApp creates a new App. Without pages it shows the top keys and stats pages.
func NewApp(win Window, conf Config, pages ...Page) *App {
	if conf.Clock == nil {
		conf.Clock = clock.NewRealClock()
	}
	if conf.Label == "" {
		conf.Label = "Key"
	}
	if conf.Skin.Name == "" {
		conf.Skin = DefaultSkin()
	}
	if len(pages) == 0 {
		pages = []Page{NewTopPage(), NewStatsPage()}
	}
	return &App{
		win:     win,
		conf:    conf,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		styles:  newStyles(conf.Skin),
		pages:   pages,
		entries: max(1, conf.Entries),
	}
}

func (a *App) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg(a.conf.Clock.Now()) }
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case tickMsg:
		a.refresh()
		return a, tea.Tick(a.conf.Delay, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit, a.keys.ForceQuit):
		if a.conf.OnQuit != nil {
			a.conf.OnQuit()
		}
		return tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(msg, a.keys.NextPage):
		a.active = (a.active + 1) % len(a.pages)
	case key.Matches(msg, a.keys.Pause):
		a.paused = !a.paused
	case key.Matches(msg, a.keys.MoreEntries):
		a.setEntries(a.entries + 1)
	case key.Matches(msg, a.keys.FewerEntries):
		a.setEntries(a.entries - 1)
	}
	return nil
}

func (a *App) setEntries(n int) {
	a.entries = min(max(1, n), maxEntries)
	if !a.paused {
		a.sample.Rows = a.win.Snapshot(a.entries)
	}
}

// refresh samples the window unless paused, then evicts.
func (a *App) refresh() {
	if !a.paused {
		a.sample = Sample{
			At:   a.conf.Clock.Now(),
			Rows: a.win.Snapshot(a.entries),
			Keys: a.win.Len(),
			Hits: a.win.Total(),
		}
		if a.conf.Stats != nil {
			a.sample.Stats = a.conf.Stats()
		}
		a.history = append(a.history, a.sample.Hits)
		if len(a.history) > maxHistory {
			a.history = a.history[len(a.history)-maxHistory:]
		}
	}
	a.win.Evict(a.conf.Window, a.conf.Clock.Now())
}

func (a *App) View() string {
	width, height := a.width, a.height
	if width <= 0 || height <= 0 {
		width, height = render.FallbackSize.Width, render.FallbackSize.Height
	}

	header := a.renderHeader(width)
	status := a.renderStatus()
	footer := a.help.View(a.keys)

	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(status) - lipgloss.Height(footer) - 1
	body := a.pages[a.active].View(ViewContext{
		Sample:  a.sample,
		History: a.history,
		Label:   a.conf.Label,
		Window:  a.conf.Window,
		Entries: a.entries,
		Paused:  a.paused,
		Width:   width,
		Height:  max(0, bodyHeight),
		styles:  a.styles,
	})

	return lipgloss.JoinVertical(lipgloss.Left, header, status, "", body, footer)
}

func (a *App) renderHeader(width int) string {
	tabs := make([]string, 0, len(a.pages))
	for i, p := range a.pages {
		if i == a.active {
			tabs = append(tabs, a.styles.tabOn.Render(p.Title()))
		} else {
			tabs = append(tabs, a.styles.tabOff.Render(p.Title()))
		}
	}
	left := a.styles.title.Render("httop") + "  " + strings.Join(tabs, "  ")

	var stamp string
	if !a.sample.At.IsZero() {
		stamp = a.styles.clock.Render(a.sample.At.Format("2006-01-02 15:04:05"))
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(stamp)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + stamp
}

func (a *App) renderStatus() string {
	status := a.styles.status.Render(fmt.Sprintf("delay: %ss  entries: %d  collect window: %ss",
		render.Seconds(a.conf.Delay), a.entries, render.Seconds(a.conf.Window)))
	if a.paused {
		status += "  " + a.styles.paused.Render("PAUSED")
	}
	return status
}

// Entries returns the number of rows currently requested.
func (a *App) Entries() int { return a.entries }

// Paused reports whether painting is frozen.
func (a *App) Paused() bool { return a.paused }
