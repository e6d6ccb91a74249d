// CodeRoom terminal client.
//
// A thin debugging companion for the hub: joins a room, shows presence and
// chat, and prints the raw event stream a browser client would consume.
//
// Concurrency
// -----------
//	A single goroutine reads frames from the websocket and forwards raw bytes
//	to the frames channel. The Bubbletea event loop consumes one frame at a
//	time via waitForFrame (a tea.Cmd), immediately queuing the next read after
//	each frame is processed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/coderoom/hub/internal/domain"
	"github.com/coderoom/hub/internal/protocol"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("82")
	red    = lipgloss.Color("196")
	yellow = lipgloss.Color("220")
	gray   = lipgloss.Color("241")
	white  = lipgloss.Color("255")
	blue   = lipgloss.Color("75")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(purple).
			Foreground(white).
			Padding(0, 1)

	footerBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), true, false, false, false).
				BorderForeground(gray).
				Padding(0, 1)

	sysStyle   = lipgloss.NewStyle().Foreground(yellow).Italic(true)
	errStyle   = lipgloss.NewStyle().Foreground(red)
	joinStyle  = lipgloss.NewStyle().Foreground(green)
	peerStyle  = lipgloss.NewStyle().Bold(true).Foreground(blue)
	tsStyle    = lipgloss.NewStyle().Foreground(gray)
	hintStyle  = lipgloss.NewStyle().Foreground(gray).Italic(true)
)

type frameMsg []byte
type disconnectedMsg struct{}

type model struct {
	conn   *websocket.Conn
	frames chan []byte

	room string
	name string

	ready    bool
	viewport viewport.Model
	input    textinput.Model
	lines    []string

	width, height int
}

func newModel(conn *websocket.Conn, frames chan []byte, room, name string) model {
	in := textinput.New()
	in.Placeholder = "Type a message…"
	in.CharLimit = 500
	in.Focus()

	return model{
		conn:   conn,
		frames: frames,
		room:   room,
		name:   name,
		input:  in,
	}
}

func waitForFrame(frames chan []byte) tea.Cmd {
	return func() tea.Msg {
		data, ok := <-frames
		if !ok {
			return disconnectedMsg{}
		}
		return frameMsg(data)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForFrame(m.frames))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		headerH := lipgloss.Height(m.headerView())
		footerH := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerH-footerH)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerH - footerH
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			_ = m.conn.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.send(protocol.ChatMessage{
					Type:     protocol.TypeChatMessage,
					Room:     domain.RoomID(m.room),
					Text:     text,
					Username: m.name,
					Time:     time.Now().Format("15:04"),
				})
				m.input.Reset()
			}
			return m, nil
		}

	case frameMsg:
		m.handleFrame([]byte(msg))
		m.refresh()
		return m, waitForFrame(m.frames)

	case disconnectedMsg:
		m.lines = append(m.lines, errStyle.Render("✗ disconnected from hub"))
		m.refresh()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) handleFrame(data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}
	switch env.Type {
	case protocol.TypeExistingMembers:
		var em protocol.ExistingMembers
		if json.Unmarshal(data, &em) != nil {
			return
		}
		if len(em.Members) == 0 {
			m.lines = append(m.lines, sysStyle.Render("you are alone in this room"))
			return
		}
		names := make([]string, 0, len(em.Members))
		for _, mi := range em.Members {
			names = append(names, mi.Name)
		}
		m.lines = append(m.lines, sysStyle.Render("already here: "+strings.Join(names, ", ")))
	case protocol.TypeMemberJoined:
		var mj protocol.MemberJoined
		if json.Unmarshal(data, &mj) != nil {
			return
		}
		m.lines = append(m.lines, joinStyle.Render(fmt.Sprintf("→ %s joined", mj.Username)))
	case protocol.TypeMemberLeft:
		var ml protocol.MemberLeft
		if json.Unmarshal(data, &ml) != nil {
			return
		}
		m.lines = append(m.lines, sysStyle.Render(fmt.Sprintf("← %s left", ml.ID)))
	case protocol.TypeChatMessage:
		var cm protocol.ChatMessage
		if json.Unmarshal(data, &cm) != nil {
			return
		}
		m.lines = append(m.lines, fmt.Sprintf("%s %s %s",
			tsStyle.Render(cm.Time), peerStyle.Render(cm.Username+":"), cm.Text))
	case protocol.TypeContentUpdate:
		m.lines = append(m.lines, sysStyle.Render("✎ editor content updated by a peer"))
	case protocol.TypeDrawOp:
		m.lines = append(m.lines, sysStyle.Render("✎ whiteboard stroke from a peer"))
	case protocol.TypeClearCanvas:
		m.lines = append(m.lines, sysStyle.Render("✎ whiteboard cleared"))
	case protocol.TypeError:
		var ef protocol.ErrorFrame
		if json.Unmarshal(data, &ef) != nil {
			return
		}
		m.lines = append(m.lines, errStyle.Render("hub error: "+ef.Error))
	}
}

func (m *model) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = m.conn.WriteMessage(websocket.TextMessage, b)
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m model) headerView() string {
	return headerStyle.Render(fmt.Sprintf("CodeRoom · %s · %s", m.room, m.name))
}

func (m model) View() string {
	if !m.ready {
		return "connecting…"
	}
	footer := footerBorderStyle.Width(m.width).Render(
		m.input.View() + "\n" + hintStyle.Render("enter: send · esc: quit"))
	return m.headerView() + "\n" + m.viewport.View() + "\n" + footer
}

func main() {
	addr := flag.String("addr", "localhost:5000", "hub host:port")
	room := flag.String("room", "", "room to join")
	name := flag.String("name", "guest", "display name")
	flag.Parse()

	if *room == "" {
		fmt.Fprintln(os.Stderr, "usage: client -room <room> [-name <name>] [-addr host:port]")
		os.Exit(1)
	}

	url := fmt.Sprintf("ws://%s/api/ws", *addr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", url, err)
		os.Exit(1)
	}

	joinFrame, _ := json.Marshal(protocol.JoinRoom{
		Type:     protocol.TypeJoinRoom,
		Room:     domain.RoomID(*room),
		Username: *name,
	})
	if err := conn.WriteMessage(websocket.TextMessage, joinFrame); err != nil {
		fmt.Fprintf(os.Stderr, "join: %v\n", err)
		os.Exit(1)
	}

	frames := make(chan []byte, 16)
	go func() {
		defer close(frames)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- data
		}
	}()

	p := tea.NewProgram(newModel(conn, frames, *room, *name), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
