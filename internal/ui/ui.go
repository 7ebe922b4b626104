package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/jukebox/internal/engine"
	"github.com/desertthunder/jukebox/internal/facade"
	"github.com/desertthunder/jukebox/internal/hub"
	"github.com/desertthunder/jukebox/internal/models"
)

// seekStep is how far the seek keys move within the current track.
const seekStep = 10.0

// Controller is the part of [facade.Facade] the control surface drives.
type Controller interface {
	State() engine.State
	TabContents(index int) ([]models.Track, error)
	Command(ctx context.Context, cmd facade.Command) (models.PlaybackStatus, error)
	SetViewingTab(ctx context.Context, index int) error
	SetPlayingTab(ctx context.Context, index int) error
	RemoveTab(ctx context.Context, index int) error
	RemoveTabTracks(ctx context.Context, tab, start, end int) error
	SaveNow(ctx context.Context) error
	Subscribe() *hub.Subscription
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	ctl    Controller
	sub    *hub.Subscription
	state  engine.State
	tracks list.Model
	notice string
	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model attached to ctl's event stream.
func NewModel(ctx context.Context, ctl Controller) *Model {
	tracks := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	tracks.SetShowHelp(false)
	tracks.SetShowTitle(false)

	m := &Model{
		ctx:    ctx,
		ctl:    ctl,
		sub:    ctl.Subscribe(),
		tracks: tracks,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.refresh(true)
	return m
}

// Init starts listening for hub events.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tracks.SetSize(msg.Width-2, msg.Height-8)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.tracks.FilterState() == list.Filtering {
			break
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.tracks, cmd = m.tracks.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgEvent:
		ev := msg.data.(hub.Event)
		switch ev.Kind {
		case hub.Notice:
			m.notice = ev.Reason
		case hub.PlaybackChanged:
			if ev.Reason != "" {
				m.notice = ev.Reason
			}
		}
		m.refresh(ev.Kind != hub.PositionChanged)
		return m, m.waitForEvent()

	case MsgStreamClosed:
		if m.ctx.Err() != nil {
			return m, nil
		}
		m.notice = "event stream dropped, reconnecting"
		m.sub = m.ctl.Subscribe()
		m.refresh(true)
		return m, m.waitForEvent()

	case MsgCommandDone:
		result := msg.data.(struct {
			action string
			err    error
		})
		if result.err != nil {
			m.notice = fmt.Sprintf("%s: %v", result.action, result.err)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	viewing, playing := m.state.Viewing, m.state.Playing
	selected := m.tracks.Index()

	switch {
	case key.Matches(msg, m.keys.quit):
		m.sub.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.play):
		if len(m.tracks.Items()) == 0 {
			return m, nil
		}
		return m, m.run("play", func(ctx context.Context) error {
			if viewing != playing {
				if err := m.ctl.SetPlayingTab(ctx, viewing); err != nil {
					return err
				}
			}
			_, err := m.ctl.Command(ctx, facade.Command{Action: facade.ActionPlay, Index: &selected})
			return err
		})

	case key.Matches(msg, m.keys.toggle):
		return m, m.command(facade.Command{Action: facade.ActionPauseOrResume})
	case key.Matches(msg, m.keys.next):
		return m, m.command(facade.Command{Action: facade.ActionNext})
	case key.Matches(msg, m.keys.previous):
		return m, m.command(facade.Command{Action: facade.ActionPrevious})
	case key.Matches(msg, m.keys.repeat):
		return m, m.command(facade.Command{Action: facade.ActionRepeatOnce})
	case key.Matches(msg, m.keys.forward):
		return m, m.command(facade.Command{Action: facade.ActionSeek, Offset: m.state.Elapsed.Seconds() + seekStep})
	case key.Matches(msg, m.keys.back):
		return m, m.command(facade.Command{Action: facade.ActionSeek, Offset: max(0, m.state.Elapsed.Seconds()-seekStep)})

	case key.Matches(msg, m.keys.nextTab), key.Matches(msg, m.keys.prevTab):
		n := len(m.state.Tabs)
		if n < 2 {
			return m, nil
		}
		target := (viewing + 1) % n
		if key.Matches(msg, m.keys.prevTab) {
			target = (viewing - 1 + n) % n
		}
		return m, m.run("switch tab", func(ctx context.Context) error {
			return m.ctl.SetViewingTab(ctx, target)
		})

	case key.Matches(msg, m.keys.closeTab):
		return m, m.run("close tab", func(ctx context.Context) error {
			return m.ctl.RemoveTab(ctx, viewing)
		})

	case key.Matches(msg, m.keys.remove):
		if len(m.tracks.Items()) == 0 {
			return m, nil
		}
		return m, m.run("remove track", func(ctx context.Context) error {
			return m.ctl.RemoveTabTracks(ctx, viewing, selected, selected+1)
		})

	case key.Matches(msg, m.keys.save):
		return m, m.run("save", m.ctl.SaveNow)
	}

	var cmd tea.Cmd
	m.tracks, cmd = m.tracks.Update(msg)
	return m, cmd
}

// refresh re-reads the published state, rebuilding the track list when items changed.
func (m *Model) refresh(items bool) {
	m.state = m.ctl.State()
	if !items {
		return
	}

	tracks, err := m.ctl.TabContents(m.state.Viewing)
	if err != nil {
		m.notice = err.Error()
		return
	}

	current, ok := m.state.CurrentIndex()
	playingHere := ok && m.state.Viewing == m.state.Playing

	listItems := make([]list.Item, len(tracks))
	for i, t := range tracks {
		listItems[i] = trackItem{index: i, track: t, current: playingHere && i == current}
	}

	selected := m.tracks.Index()
	m.tracks.SetItems(listItems)
	if selected >= len(listItems) {
		selected = len(listItems) - 1
	}
	if selected >= 0 {
		m.tracks.Select(selected)
	}
}

func (m *Model) command(cmd facade.Command) tea.Cmd {
	return m.run(string(cmd.Action), func(ctx context.Context) error {
		_, err := m.ctl.Command(ctx, cmd)
		return err
	})
}

func (m *Model) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return commandDoneMsg(action, fn(ctx))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.sub.Events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg()
		}
		return eventMsg(ev)
	}
}

// View renders the UI.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.tracks.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(m.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(m.state.Tabs))
	for i, t := range m.state.Tabs {
		label := fmt.Sprintf("%s (%d)", t.Name, t.Len)
		if i == m.state.Playing {
			label = "♪ " + label
		}
		style := styles.tab
		if i == m.state.Viewing {
			style = styles.activeTab
		}
		tabs[i] = style.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderStatus() string {
	s := m.state

	var status string
	switch s.Status {
	case models.Playing:
		status = styles.ok.Render("▶ playing")
	case models.Paused:
		status = styles.warn.Render("⏸ paused")
	default:
		status = styles.help.Render("■ stopped")
	}

	line := status
	if track, ok := s.CurrentTrack(); ok {
		line = fmt.Sprintf("%s  %s", line, track.DisplayName())
	}
	if s.Status.IsActive() {
		line = fmt.Sprintf("%s  %s / %s", line, clock(s.Elapsed.Seconds()), clock(s.Duration.Seconds()))
	}
	if s.RepeatOnce {
		line += "  " + styles.title.UnsetMarginBottom().Render("[repeat once]")
	}
	return line
}
