package cli

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/haneoka/mygo-cli/internal/client"
	"github.com/haneoka/mygo-cli/internal/debate"
	"github.com/haneoka/mygo-cli/internal/personas"
)

var (
	debateTopic     string
	debateProStance string
	debateConStance string
	debateProTeam   []string
	debateConTeam   []string
	debatePlain     bool
)

// presetTopic pairs a topic with its two stances.
type presetTopic struct {
	topic     string
	proStance string
	conStance string
}

var presetTopics = []presetTopic{
	{
		topic:     "乐队对我们来说意味着什么？",
		proStance: "乐队是我们表达自我、寻找归属的地方",
		conStance: "乐队让我们学会了面对困难和成长",
	},
	{
		topic:     "迷茫的时候应该怎么办？",
		proStance: "迷茫时应该停下来倾听内心的声音",
		conStance: "迷茫时应该继续前进，在行动中找到方向",
	},
	{
		topic:     "友情和梦想哪个更重要？",
		proStance: "友情是支撑我们追逐梦想的力量",
		conStance: "梦想是让友情更有意义的目标",
	},
}

var debateCmd = &cobra.Command{
	Use:   "debate",
	Short: "Run a structured debate between two teams",
	Long: `Set up a debate between two teams of band members and watch the server
run it through four phases: opening statements, cross-examination, free
debate and closing remarks.

Without flags an interactive setup screen lets you pick topic and teams.
With --topic, --pro and --con the setup screen is skipped.

Examples:
  mygo debate
  mygo debate --topic "迷茫的时候应该怎么办？" \
      --pro-stance "停下来倾听内心" --con-stance "在行动中找方向" \
      --pro tomori,anon --con taki,soyo
  mygo debate --pro tomori --con taki --plain`,
	RunE: runDebate,
}

func init() {
	debateCmd.Flags().StringVar(&debateTopic, "topic", "", "debate topic")
	debateCmd.Flags().StringVar(&debateProStance, "pro-stance", "", "affirmative stance")
	debateCmd.Flags().StringVar(&debateConStance, "con-stance", "", "negative stance")
	debateCmd.Flags().StringSliceVar(&debateProTeam, "pro", nil, "affirmative team members")
	debateCmd.Flags().StringSliceVar(&debateConTeam, "con", nil, "negative team members")
	debateCmd.Flags().BoolVar(&debatePlain, "plain", false, "print records to stdout instead of the interactive view")
}

func runDebate(cmd *cobra.Command, args []string) error {
	dcfg, fromFlags := configFromFlags()
	orch := debate.NewOrchestrator(apiClient, cfg.PollInterval, logger)

	if debatePlain {
		if err := dcfg.Validate(); err != nil {
			return err
		}
		return runDebatePlain(orch, dcfg)
	}

	model := newDebateModel(orch, dcfg, fromFlags)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("debate UI error: %w", err)
	}
	if m, ok := finalModel.(debateModel); ok && m.err != nil && !m.quitting {
		return m.err
	}
	return nil
}

// configFromFlags builds the initial config. The second return value reports
// whether the flags fully specify it, in which case the setup screen is skipped.
func configFromFlags() (debate.Config, bool) {
	preset := presetTopics[0]
	c := debate.Config{
		Topic:     preset.topic,
		ProStance: preset.proStance,
		ConStance: preset.conStance,
		Pro:       []personas.Key{personas.Tomori, personas.Anon},
		Con:       []personas.Key{personas.Taki, personas.Soyo},
	}

	complete := debateTopic != "" && debateProStance != "" && debateConStance != "" &&
		len(debateProTeam) > 0 && len(debateConTeam) > 0

	if debateTopic != "" {
		c.Topic = debateTopic
	}
	if debateProStance != "" {
		c.ProStance = debateProStance
	}
	if debateConStance != "" {
		c.ConStance = debateConStance
	}
	if len(debateProTeam) > 0 || len(debateConTeam) > 0 {
		c.Pro, c.Con = nil, nil
		for _, k := range debateProTeam {
			c.Pro = append(c.Pro, personas.Key(k))
		}
		for _, k := range debateConTeam {
			c.Con = append(c.Con, personas.Key(k))
		}
	}
	return c, complete
}

// runDebatePlain streams debate records to stdout as they arrive.
func runDebatePlain(orch *debate.Orchestrator, cfg debate.Config) error {
	ctx := context.Background()

	snap, err := orch.Start(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("辩题: %s\n", cfg.Topic)
	fmt.Printf("正方: %s\n", cfg.ProStance)
	fmt.Printf("反方: %s\n", cfg.ConStance)
	fmt.Printf("讨论开始 (id=%s)\n\n", snap.ID)

	printed := 0
	err = orch.Watch(ctx, func(s client.DebateSnapshot) {
		// Snapshots are replaced wholesale; only print records not seen yet.
		if len(s.Records) < printed {
			printed = 0
		}
		for _, rec := range s.Records[printed:] {
			phase := debate.Phase(rec.Phase)
			fmt.Printf("[%s] %s: %s\n\n", phase.Label(), rec.SpeakerName, rec.Content)
		}
		printed = len(s.Records)
	})
	if err != nil {
		return err
	}

	final := orch.Snapshot()
	switch {
	case final == nil:
		return fmt.Errorf("no debate state")
	case final.Status == client.DebateFailed:
		return fmt.Errorf("讨论失败: %s", final.Error)
	default:
		fmt.Printf("讨论结束，共 %d 条发言\n", len(final.Records))
		return nil
	}
}
