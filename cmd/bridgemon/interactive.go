package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mosaicrtc/bridge/event"
	"github.com/mosaicrtc/bridge/media"
	"github.com/mosaicrtc/bridge/registry"
	"github.com/mosaicrtc/bridge/server"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	frameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	eosStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type monitorModel struct {
	srv        *server.Server
	streams    map[registry.Handle]*simStream
	vp         viewport.Model
	lines      []string
	err        error
	framesSeen int
	eosSeen    int
	ready      bool
	encryptOn  bool
}

type streamEventMsg struct {
	ev event.StreamEvent
	ok bool
}

func newMonitorModel(cfg simConfig) (*monitorModel, error) {
	srv, streams, err := buildSession(cfg)
	if err != nil {
		return nil, err
	}
	return &monitorModel{
		srv:       srv,
		streams:   streams,
		encryptOn: srv.E2EE().Enabled(),
	}, nil
}

func (m *monitorModel) Init() tea.Cmd {
	return m.listen
}

// listen blocks on the next bridge event and feeds it into the TUI loop.
func (m *monitorModel) listen() tea.Msg {
	ev, ok := <-m.srv.Events()
	return streamEventMsg{ev: ev, ok: ok}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.srv.Close()
			return m, tea.Quit

		case "e":
			if m.srv.E2EE().Initialized() {
				m.encryptOn = !m.encryptOn
				m.srv.E2EE().SetEnabled(m.encryptOn)
				m.appendLine(statusStyle.Render(
					fmt.Sprintf("-- encryption %v --", m.encryptOn)))
			}

		case "s":
			if h, ok := m.nextOpenStream(); ok {
				if err := m.srv.Release(h); err == nil {
					m.appendLine(statusStyle.Render(
						fmt.Sprintf("-- released stream %d --", h)))
				}
			}

		case "up", "k":
			m.vp.LineUp(1)

		case "down", "j":
			m.vp.LineDown(1)
		}

	case tea.WindowSizeMsg:
		headerHeight := 4
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - headerHeight
		}
		m.vp.SetContent(strings.Join(m.lines, "\n"))

	case streamEventMsg:
		if !msg.ok {
			m.appendLine(eosStyle.Render("-- event channel closed --"))
			return m, nil
		}
		m.recordEvent(msg.ev)
		return m, m.listen
	}

	return m, nil
}

func (m *monitorModel) recordEvent(ev event.StreamEvent) {
	st := m.streams[ev.Stream]
	sid := "?"
	if st != nil {
		sid = st.trackSID
	}

	switch payload := ev.Payload.(type) {
	case event.FrameReceived:
		m.framesSeen++
		m.appendLine(frameStyle.Render(fmt.Sprintf(
			"stream %-3d %s frame handle=%d %s",
			ev.Stream, sid, payload.Frame, describeFrame(payload.Info))))
		_ = m.srv.Release(payload.Frame)

	case event.EndOfStream:
		m.eosSeen++
		m.appendLine(eosStyle.Render(fmt.Sprintf(
			"stream %-3d %s end of stream", ev.Stream, sid)))
	}
}

func (m *monitorModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > 500 {
		m.lines = m.lines[len(m.lines)-500:]
	}
	if m.ready {
		m.vp.SetContent(strings.Join(m.lines, "\n"))
		m.vp.GotoBottom()
	}
}

// nextOpenStream picks the lowest-handle stream that has not ended yet.
func (m *monitorModel) nextOpenStream() (registry.Handle, bool) {
	var handles []registry.Handle
	for h := range m.streams {
		if _, ok := m.srv.Registry().Get(h); ok {
			handles = append(handles, h)
		}
	}
	if len(handles) == 0 {
		return registry.InvalidHandle, false
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles[0], true
}

func (m *monitorModel) View() string {
	if m.err != nil {
		return eosStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Bridge Monitor"))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"handles: %-4d frames: %-5d eos: %d/%d  encryption: %v",
		m.srv.Registry().Len(), m.framesSeen, m.eosSeen, len(m.streams), m.encryptOn)))
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.vp.View())
	} else {
		b.WriteString("starting…")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("e toggle encryption • s release stream • ↑/↓ scroll • q quit"))
	return b.String()
}

func describeFrame(info media.FrameInfo) string {
	switch info.Kind {
	case media.KindVideo:
		return fmt.Sprintf("%dx%d %s", info.Width, info.Height, info.Buffer)
	case media.KindAudio:
		return fmt.Sprintf("%dHz ch=%d", info.SampleRate, info.NumChannels)
	default:
		return ""
	}
}

func runInteractive(cfg simConfig) error {
	m, err := newMonitorModel(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
