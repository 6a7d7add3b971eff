package debate

import (
	"slices"
	"testing"

	"github.com/haneoka/mygo-cli/internal/personas"
)

func TestToggleMember(t *testing.T) {
	tests := []struct {
		name    string
		pro     []personas.Key
		con     []personas.Key
		team    Team
		key     personas.Key
		ok      bool
		wantPro []personas.Key
		wantCon []personas.Key
	}{
		{
			name: "add to pro",
			pro:  []personas.Key{personas.Tomori}, con: []personas.Key{personas.Taki},
			team: TeamPro, key: personas.Anon, ok: true,
			wantPro: []personas.Key{personas.Tomori, personas.Anon},
			wantCon: []personas.Key{personas.Taki},
		},
		{
			name: "remove from pro",
			pro:  []personas.Key{personas.Tomori, personas.Anon}, con: []personas.Key{personas.Taki},
			team: TeamPro, key: personas.Anon, ok: true,
			wantPro: []personas.Key{personas.Tomori},
			wantCon: []personas.Key{personas.Taki},
		},
		{
			name: "removing last member is rejected",
			pro:  []personas.Key{personas.Tomori}, con: []personas.Key{personas.Taki},
			team: TeamCon, key: personas.Taki, ok: false,
			wantPro: []personas.Key{personas.Tomori},
			wantCon: []personas.Key{personas.Taki},
		},
		{
			name: "stealing the other team's last member is rejected",
			pro:  []personas.Key{personas.Tomori}, con: []personas.Key{personas.Taki},
			team: TeamPro, key: personas.Taki, ok: false,
			wantPro: []personas.Key{personas.Tomori},
			wantCon: []personas.Key{personas.Taki},
		},
		{
			name: "adding steals from the other team",
			pro:  []personas.Key{personas.Tomori}, con: []personas.Key{personas.Taki, personas.Soyo},
			team: TeamPro, key: personas.Soyo, ok: true,
			wantPro: []personas.Key{personas.Tomori, personas.Soyo},
			wantCon: []personas.Key{personas.Taki},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Pro: slices.Clone(tt.pro), Con: slices.Clone(tt.con)}
			ok := cfg.ToggleMember(tt.team, tt.key)
			if ok != tt.ok {
				t.Errorf("ToggleMember() = %v, want %v", ok, tt.ok)
			}
			if !slices.Equal(cfg.Pro, tt.wantPro) {
				t.Errorf("Pro = %v, want %v", cfg.Pro, tt.wantPro)
			}
			if !slices.Equal(cfg.Con, tt.wantCon) {
				t.Errorf("Con = %v, want %v", cfg.Con, tt.wantCon)
			}
		})
	}
}

// TestToggleMemberInvariants walks a long toggle sequence and checks that
// after every single step the teams stay disjoint and non-empty.
func TestToggleMemberInvariants(t *testing.T) {
	cfg := Config{
		Pro: []personas.Key{personas.Tomori},
		Con: []personas.Key{personas.Taki},
	}

	keys := personas.Keys()
	teams := []Team{TeamPro, TeamCon}
	for i := 0; i < 200; i++ {
		team := teams[i%2]
		key := keys[(i*7+3)%len(keys)]
		cfg.ToggleMember(team, key)

		if len(cfg.Pro) == 0 || len(cfg.Con) == 0 {
			t.Fatalf("step %d: empty team: pro=%v con=%v", i, cfg.Pro, cfg.Con)
		}
		for _, k := range cfg.Pro {
			if slices.Contains(cfg.Con, k) {
				t.Fatalf("step %d: %s on both teams: pro=%v con=%v", i, k, cfg.Pro, cfg.Con)
			}
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Topic:     "T",
		ProStance: "A",
		ConStance: "B",
		Pro:       []personas.Key{personas.Tomori},
		Con:       []personas.Key{personas.Taki},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing topic", func(c *Config) { c.Topic = "" }},
		{"missing pro stance", func(c *Config) { c.ProStance = "" }},
		{"missing con stance", func(c *Config) { c.ConStance = "" }},
		{"empty pro team", func(c *Config) { c.Pro = nil }},
		{"empty con team", func(c *Config) { c.Con = nil }},
		{"unknown persona", func(c *Config) { c.Pro = []personas.Key{"sakiko"} }},
		{"overlapping teams", func(c *Config) { c.Con = []personas.Key{personas.Tomori} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Pro = slices.Clone(valid.Pro)
			cfg.Con = slices.Clone(valid.Con)
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestRequestPayload(t *testing.T) {
	cfg := Config{
		Topic:     "T",
		ProStance: "A",
		ConStance: "B",
		Pro:       []personas.Key{personas.Tomori, personas.Anon},
		Con:       []personas.Key{personas.Taki},
		ForcedStances: map[personas.Key]string{
			personas.Taki: "嘴硬到底",
		},
	}

	req := cfg.request()
	if !req.Async {
		t.Error("request must ask for asynchronous execution")
	}
	if !slices.Equal(req.ProPhilosophers, []string{"tomori", "anon"}) {
		t.Errorf("ProPhilosophers = %v", req.ProPhilosophers)
	}
	if !slices.Equal(req.ConPhilosophers, []string{"taki"}) {
		t.Errorf("ConPhilosophers = %v", req.ConPhilosophers)
	}
	if req.ForcedStances["taki"] != "嘴硬到底" {
		t.Errorf("ForcedStances = %v", req.ForcedStances)
	}
}

func TestPhaseLabel(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseOpening, "开场发言"},
		{PhaseQuestioning, "质询交锋"},
		{PhaseFreeDebate, "自由辩论"},
		{PhaseClosing, "总结陈词"},
		{Phase("rebuttal"), "rebuttal"}, // unknown tags render raw
	}
	for _, tt := range tests {
		if got := tt.phase.Label(); got != tt.want {
			t.Errorf("Phase(%q).Label() = %q, want %q", tt.phase, got, tt.want)
		}
	}

	if PhaseOpening.Color() == Phase("rebuttal").Color() {
		t.Error("known phase should not use the fallback color")
	}
}
