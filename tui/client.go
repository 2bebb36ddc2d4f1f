// Package tui is a terminal chat client for the gateway. It connects to
// the /ws endpoint, sends user messages and renders the streamed
// reasoning steps and final answers.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/nvaldez/news-agent-go/tui/styles"
)

// wireEvent mirrors the gateway's streamed event shape.
type wireEvent struct {
	Type     string    `json:"type"`
	Content  string    `json:"content"`
	Step     *wireStep `json:"step"`
	Response string    `json:"response"`
	Error    string    `json:"error"`
}

type wireStep struct {
	Number   int             `json:"step"`
	Type     string          `json:"type"`
	Content  string          `json:"content"`
	ToolName string          `json:"tool_name"`
	Args     json.RawMessage `json:"args"`
	Response string          `json:"response"`
}

// Messages delivered into the bubbletea loop.
type connectedMsg struct {
	conn   *websocket.Conn
	events chan wireEvent
}

type eventMsg wireEvent

type connClosedMsg struct{ err error }

type connFailedMsg struct{ err error }

// chatLine is one rendered line in the conversation view.
type chatLine struct {
	role    string
	content string
}

// Model is the chat client's bubbletea model.
type Model struct {
	addr   string
	conn   *websocket.Conn
	events chan wireEvent

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	styles   *styles.Styles

	lines        []chatLine
	isProcessing bool
	connected    bool
	width        int
	height       int
	ready        bool
}

// New creates a chat client that will connect to the gateway at addr.
func New(addr string) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about the news..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false) // Enter sends message

	st := styles.NewStyles(styles.DefaultTheme)

	s := spinner.New(spinner.WithSpinner(spinner.Line))
	s.Style = st.Spinner

	return Model{
		addr:     addr,
		textarea: ta,
		spinner:  s,
		styles:   st,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		connect(m.addr),
		m.spinner.Tick,
		textarea.Blink,
	)
}

// connect dials the gateway and starts the read loop.
func connect(addr string) tea.Cmd {
	return func() tea.Msg {
		url := fmt.Sprintf("ws://%s/ws", addr)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return connFailedMsg{err: err}
		}

		events := make(chan wireEvent, 16)
		go func() {
			defer close(events)
			for {
				var event wireEvent
				if err := conn.ReadJSON(&event); err != nil {
					return
				}
				events <- event
			}
		}()

		return connectedMsg{conn: conn, events: events}
	}
}

// waitForEvent delivers the next server event into the update loop.
func waitForEvent(events chan wireEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return connClosedMsg{}
		}
		return eventMsg(event)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-7)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 7
		}
		m.textarea.SetWidth(msg.Width - 4)

	case connectedMsg:
		m.conn = msg.conn
		m.events = msg.events
		m.connected = true
		m.addLine("system", fmt.Sprintf("Connected to %s", m.addr))
		m.updateView()
		cmds = append(cmds, waitForEvent(m.events))

	case connFailedMsg:
		m.addLine("error", fmt.Sprintf("Connection failed: %v", msg.err))
		m.updateView()

	case connClosedMsg:
		m.connected = false
		m.isProcessing = false
		m.addLine("system", "Disconnected from gateway")
		m.updateView()

	case eventMsg:
		m.handleEvent(wireEvent(msg))
		m.updateView()
		if m.events != nil {
			cmds = append(cmds, waitForEvent(m.events))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlD:
			m.close()
			return m, tea.Quit

		case tea.KeyCtrlL:
			m.lines = nil
			m.viewport.SetContent("")
			return m, nil

		case tea.KeyEnter:
			if !m.isProcessing {
				value := strings.TrimSpace(m.textarea.Value())
				if value != "" {
					m.textarea.Reset()
					cmds = append(cmds, m.send(value))
				}
			}
			return m, tea.Batch(cmds...)

		case tea.KeyCtrlC:
			if m.textarea.Value() != "" {
				m.textarea.Reset()
			} else {
				m.close()
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		if m.isProcessing {
			s, cmd := m.spinner.Update(msg)
			m.spinner = s
			cmds = append(cmds, cmd)
		}
	}

	if !m.isProcessing {
		ta, cmd := m.textarea.Update(msg)
		m.textarea = ta
		cmds = append(cmds, cmd)
	}

	vp, cmd := m.viewport.Update(msg)
	m.viewport = vp
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) handleEvent(event wireEvent) {
	switch event.Type {
	case "thinking":
		m.addLine("step", event.Content)

	case "reasoning_step":
		if event.Step == nil {
			return
		}
		line := fmt.Sprintf("Step %d: %s", event.Step.Number, event.Step.Content)
		if event.Step.ToolName != "" {
			line += fmt.Sprintf(" [%s", event.Step.ToolName)
			if len(event.Step.Args) > 0 {
				line += " " + string(event.Step.Args)
			}
			line += "]"
		}
		if event.Step.Response != "" {
			line += "\n    " + event.Step.Response
		}
		m.addLine("step", line)

	case "final_complete":
		m.isProcessing = false
		m.addLine("assistant", event.Response)

	case "error":
		m.isProcessing = false
		m.addLine("error", event.Error)

	default:
		if event.Error != "" {
			m.isProcessing = false
			m.addLine("error", event.Error)
		}
	}
}

func (m *Model) send(message string) tea.Cmd {
	if !m.connected || m.conn == nil {
		m.addLine("error", "Not connected to a gateway")
		m.updateView()
		return nil
	}

	m.addLine("user", message)
	m.updateView()
	m.isProcessing = true

	conn := m.conn
	return tea.Batch(
		func() tea.Msg {
			_ = conn.WriteJSON(map[string]string{"message": message})
			return nil
		},
		m.spinner.Tick,
	)
}

func (m *Model) addLine(role, content string) {
	m.lines = append(m.lines, chatLine{role: role, content: content})
}

func (m *Model) updateView() {
	if !m.ready {
		return
	}

	var content strings.Builder
	for _, line := range m.lines {
		switch line.role {
		case "user":
			content.WriteString("\n" + m.styles.UserMessage.Render("> "+line.content) + "\n")
		case "assistant":
			content.WriteString("\n" + m.styles.AssistantMessage.Render(line.content) + "\n")
		case "step":
			content.WriteString(m.styles.Step.Render("  "+line.content) + "\n")
		case "error":
			content.WriteString("\n" + m.styles.ErrorMessage.Render(line.content) + "\n")
		default:
			content.WriteString(m.styles.SystemMessage.Render("["+line.content+"]") + "\n")
		}
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func (m *Model) close() {
	if m.conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = m.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = m.conn.Close()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "\nInitializing..."
	}

	var b strings.Builder

	status := "connecting..."
	if m.connected {
		status = "connected"
	}
	b.WriteString(m.styles.Header.Render(fmt.Sprintf("News Agent | %s (%s)", m.addr, status)) + "\n")
	b.WriteString(m.styles.Help.Render("Enter to send | Ctrl+L clear | Ctrl+D quit") + "\n")
	b.WriteString(strings.Repeat("─", max(m.width, 1)) + "\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.isProcessing {
		b.WriteString(fmt.Sprintf("%s Waiting for response...\n", m.spinner.View()))
	} else {
		b.WriteString(m.textarea.View())
	}

	return b.String()
}
