package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/haneoka/mygo-cli/internal/client"
	"github.com/haneoka/mygo-cli/internal/debate"
	"github.com/haneoka/mygo-cli/internal/personas"
)

// debateStage tracks which screen of the debate flow is active.
type debateStage int

const (
	stageSetup debateStage = iota
	stageWatch
)

// tickMsg triggers the next status poll.
type tickMsg time.Time

// startedMsg carries the result of the debate submission.
type startedMsg struct {
	snap *client.DebateSnapshot
	err  error
}

// polledMsg carries the result of one poll cycle.
type polledMsg struct {
	cont bool
	err  error
}

// debateModel is the bubbletea model for the debate flow: a setup screen for
// topic and teams, then a live view of the polled debate. All lifecycle state
// lives in the orchestrator; the model renders its snapshot.
type debateModel struct {
	orch  *debate.Orchestrator
	cfg   debate.Config
	theme Theme
	spin  spinner.Model

	stage    debateStage
	cursor   int // roster index on the setup screen
	preset   int // selected preset topic
	done     bool
	quitting bool
	err      error
}

func newDebateModel(orch *debate.Orchestrator, cfg debate.Config, skipSetup bool) debateModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	stage := stageSetup
	if skipSetup {
		stage = stageWatch
	}

	return debateModel{
		orch:  orch,
		cfg:   cfg,
		theme: defaultTheme,
		spin:  spin,
		stage: stage,
	}
}

// Init starts the debate immediately when setup was skipped.
func (m debateModel) Init() tea.Cmd {
	if m.stage == stageWatch {
		return tea.Batch(m.startDebate(), m.spin.Tick)
	}
	return nil
}

// Update handles messages and returns the updated model.
func (m debateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case startedMsg:
		if msg.err != nil {
			// The orchestrator stored a synthetic failed snapshot; show it.
			m.done = true
			m.err = msg.err
			return m, tea.Quit
		}
		// First poll right away; the interval applies between polls.
		return m, m.pollOnce()

	case tickMsg:
		return m, m.pollOnce()

	case polledMsg:
		if msg.err != nil {
			m.done = true
			m.err = msg.err
			return m, tea.Quit
		}
		if !msg.cont {
			m.done = true
			return m, tea.Quit
		}
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m debateModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.stage == stageWatch {
		switch msg.String() {
		case "ctrl+c", "q":
			// Stop scheduling polls; an in-flight response is dropped.
			m.orch.StopPolling()
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	roster := personas.All()
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(roster)-1 {
			m.cursor++
		}

	case "t":
		m.preset = (m.preset + 1) % len(presetTopics)
		m.cfg.Topic = presetTopics[m.preset].topic
		m.cfg.ProStance = presetTopics[m.preset].proStance
		m.cfg.ConStance = presetTopics[m.preset].conStance

	case "p":
		m.cfg.ToggleMember(debate.TeamPro, roster[m.cursor].Key)

	case "c":
		m.cfg.ToggleMember(debate.TeamCon, roster[m.cursor].Key)

	case "enter":
		if err := m.cfg.Validate(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.stage = stageWatch
		return m, tea.Batch(m.startDebate(), m.spin.Tick)
	}
	return m, nil
}

// startDebate submits the configuration off the UI loop.
func (m debateModel) startDebate() tea.Cmd {
	orch, cfg := m.orch, m.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		snap, err := orch.Start(ctx, cfg)
		return startedMsg{snap: snap, err: err}
	}
}

// pollOnce fetches one status snapshot off the UI loop.
func (m debateModel) pollOnce() tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cont, err := orch.PollOnce(ctx)
		return polledMsg{cont: cont, err: err}
	}
}

// tick schedules the next poll after the configured interval. It is only
// issued once the previous poll has resolved, so polls never overlap.
func (m debateModel) tick() tea.Cmd {
	return tea.Tick(m.orch.Interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View renders the current stage.
func (m debateModel) View() tea.View {
	if m.stage == stageSetup {
		return tea.NewView(m.renderSetup())
	}
	return tea.NewView(m.renderWatch())
}

func (m debateModel) renderSetup() string {
	var b strings.Builder

	b.WriteString("🎸 乐队讨论会\n")
	b.WriteString(m.theme.hintStyle().Render("选择话题和参与成员，开始一场讨论") + "\n\n")

	b.WriteString(m.theme.statusStyle().Render("辩题: ") + m.cfg.Topic + "\n")
	b.WriteString("  正方: " + m.cfg.ProStance + "\n")
	b.WriteString("  反方: " + m.cfg.ConStance + "\n\n")

	for i, p := range personas.All() {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		team := "    "
		if slices.Contains(m.cfg.Pro, p.Key) {
			team = m.theme.successStyle().Render("[正]")
		} else if slices.Contains(m.cfg.Con, p.Key) {
			team = m.theme.errorStyle().Render("[反]")
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s · %s\n", cursor, team, p.Avatar,
			personaStyle(p).Render(p.Name), p.Role))
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(m.theme.errorStyle().Render(m.err.Error()) + "\n")
	}
	b.WriteString(m.theme.hintStyle().Render("p 正方 · c 反方 · t 换话题 · enter 开始 · q 退出"))
	return b.String()
}

func (m debateModel) renderWatch() string {
	snap := m.orch.Snapshot()

	var b strings.Builder
	b.WriteString(m.theme.statusStyle().Render("辩题: ") + m.cfg.Topic + "\n\n")

	if snap == nil {
		b.WriteString(m.spin.View() + "提交讨论...\n")
		return b.String()
	}

	for _, rec := range snap.Records {
		phase := debate.Phase(rec.Phase)
		tag := lipgloss.NewStyle().Foreground(phase.Color()).Render("[" + phase.Label() + "]")
		b.WriteString(fmt.Sprintf("%s %s\n%s\n\n", tag, speakerStyled(rec.SpeakerName), rec.Content))
	}

	switch {
	case m.quitting:
		b.WriteString(m.theme.hintStyle().Render("已停止跟踪，讨论在服务器上继续。"))
	case snap.Status == client.DebateFailed:
		b.WriteString(m.theme.errorStyle().Render("✗ 讨论失败: " + snap.Error))
	case snap.Status == client.DebateCompleted:
		b.WriteString(m.theme.successStyle().Render(fmt.Sprintf("✓ 讨论结束，共 %d 条发言", len(snap.Records))))
	case m.err != nil:
		b.WriteString(m.theme.errorStyle().Render("✗ 状态查询失败，以上为最后已知进度"))
	default:
		status := m.spin.View() + string(snap.Status)
		if snap.CurrentPhase != "" {
			status += " · 当前阶段: " + debate.Phase(snap.CurrentPhase).Label()
		}
		b.WriteString(status + "\n")
		b.WriteString(m.theme.hintStyle().Render("q 停止跟踪"))
	}
	b.WriteString("\n")
	return b.String()
}

// speakerStyled colors a speaker by matching the display name back to the
// roster; names outside the roster render unstyled.
func speakerStyled(name string) string {
	for _, p := range personas.All() {
		if p.Name == name {
			return personaStyle(p).Render(name)
		}
	}
	return name
}
