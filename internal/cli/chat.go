package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/haneoka/mygo-cli/internal/chat"
	"github.com/haneoka/mygo-cli/internal/client"
	"github.com/haneoka/mygo-cli/internal/personas"
)

var chatCmd = &cobra.Command{
	Use:   "chat [character]",
	Short: "Talk one-on-one with a band member",
	Long: `Start an interactive chat with one band member persona.

Keys inside the chat:
  enter    send the current message
  tab      switch to the next member (starts a fresh conversation)
  ctrl+l   clear the conversation
  ctrl+c   quit

Examples:
  mygo chat           # chat with 高松灯
  mygo chat taki      # chat with 椎名立希`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	key := personas.Tomori
	if len(args) == 1 {
		key = personas.Key(args[0])
	}
	persona, err := personas.Get(key)
	if err != nil {
		return fmt.Errorf("unknown character %q (valid: %s)", key, keyList())
	}

	session := chat.NewSession(apiClient, logger)
	model := newChatModel(session, persona, cfg.ClientTimeout)

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}

func keyList() string {
	keys := personas.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// chatReplyMsg carries the resolved chat turn.
type chatReplyMsg struct {
	resp *client.ChatResponse
	err  error
}

// chatModel is the bubbletea model for the chat view. All transcript state
// lives in the session; the model only renders it and feeds it input.
type chatModel struct {
	session *chat.Session
	persona personas.Persona
	input   textinput.Model
	spin    spinner.Model
	theme   Theme
	timeout time.Duration // bound on one chat turn, from config
	width   int
	sendErr error
}

func newChatModel(session *chat.Session, persona personas.Persona, timeout time.Duration) chatModel {
	input := textinput.New()
	input.Placeholder = "说点什么..."

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return chatModel{
		session: session,
		persona: persona,
		input:   input,
		spin:    spin,
		theme:   defaultTheme,
		timeout: timeout,
		width:   80,
	}
}

// Init returns the initial command (focus the input).
func (m chatModel) Init() tea.Cmd {
	return m.input.Focus()
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "ctrl+l":
			m.session.Clear()
			m.sendErr = nil
			return m, nil

		case "tab":
			// Switching persona discards the conversation.
			if !m.session.Busy() {
				m.persona = nextPersona(m.persona)
				m.session.Clear()
				m.sendErr = nil
			}
			return m, nil

		case "enter":
			if m.session.Busy() {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.sendErr = nil
			return m, tea.Batch(m.sendMessage(text), m.spin.Tick)
		}

	case chatReplyMsg:
		// Transcript and busy flag are already updated by the session; keep
		// the error around so the view can hint at it under the fallback.
		m.sendErr = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.session.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendMessage dispatches one chat turn off the UI loop.
func (m chatModel) sendMessage(text string) tea.Cmd {
	session, key, timeout := m.session, m.persona.Key, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		resp, err := session.SendMessage(ctx, text, key)
		return chatReplyMsg{resp: resp, err: err}
	}
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	var b strings.Builder

	header := fmt.Sprintf("%s %s · %s", m.persona.Avatar,
		personaStyle(m.persona).Render(m.persona.Name), m.persona.Role)
	b.WriteString(header + "\n")
	b.WriteString(m.theme.hintStyle().Render(m.persona.Description) + "\n\n")

	for _, msg := range m.session.Messages() {
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(m.theme.userStyle().Render("你") + "  " + msg.Content + "\n")
		case chat.RoleAssistant:
			name := msg.Philosopher
			if name == "" {
				name = "…"
			}
			line := personaStyle(m.persona).Render(name) + "  " + msg.Content
			if msg.CriticalHit {
				line += " " + m.theme.errorStyle().Render("💥")
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if m.session.Busy() {
		b.WriteString(m.spin.View() + m.theme.hintStyle().Render(m.persona.Name+" 正在思考...") + "\n")
	} else {
		if m.sendErr != nil {
			b.WriteString(m.theme.errorStyle().Render("连接失败，稍后再试") + "\n")
		}
		b.WriteString(m.input.View() + "\n")
	}

	b.WriteString(m.theme.hintStyle().Render("enter 发送 · tab 换人 · ctrl+l 清空 · ctrl+c 退出"))
	return b.String()
}

// nextPersona cycles through the roster in display order.
func nextPersona(current personas.Persona) personas.Persona {
	roster := personas.All()
	for i, p := range roster {
		if p.Key == current.Key {
			return roster[(i+1)%len(roster)]
		}
	}
	return roster[0]
}
