package debate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/haneoka/mygo-cli/internal/client"
	"github.com/haneoka/mygo-cli/internal/personas"
)

// Team names one side of a debate.
type Team string

const (
	TeamPro Team = "pro"
	TeamCon Team = "con"
)

// Config describes a debate before submission. The two rosters are kept
// disjoint and non-empty by ToggleMember; build configs through it rather
// than editing the slices directly.
type Config struct {
	Topic         string
	ProStance     string
	ConStance     string
	Pro           []personas.Key
	Con           []personas.Key
	ForcedStances map[personas.Key]string
}

// ToggleMember flips key's membership on the named team.
//
// Removing the last member of a team is rejected. Adding a member also removes
// it from the opposing team, so a persona is never on both sides; both
// mutations happen together, and the add is rejected when that removal would
// leave the opposing team empty.
//
// Returns false when the toggle was rejected, leaving the config unchanged.
func (c *Config) ToggleMember(team Team, key personas.Key) bool {
	target, other := &c.Pro, &c.Con
	if team == TeamCon {
		target, other = &c.Con, &c.Pro
	}

	if slices.Contains(*target, key) {
		if len(*target) <= 1 {
			return false
		}
		*target = remove(*target, key)
		return true
	}

	if slices.Contains(*other, key) && len(*other) <= 1 {
		return false
	}
	*target = append(*target, key)
	*other = remove(*other, key)
	return true
}

func remove(keys []personas.Key, key personas.Key) []personas.Key {
	return slices.DeleteFunc(keys, func(k personas.Key) bool { return k == key })
}

// Validate checks a config built outside ToggleMember (e.g. from CLI flags).
func (c *Config) Validate() error {
	if c.Topic == "" {
		return errors.New("topic is required")
	}
	if c.ProStance == "" || c.ConStance == "" {
		return errors.New("both stances are required")
	}
	if len(c.Pro) == 0 || len(c.Con) == 0 {
		return errors.New("each team needs at least one member")
	}
	for _, key := range append(slices.Clone(c.Pro), c.Con...) {
		if !personas.Valid(key) {
			return fmt.Errorf("unknown persona: %s", key)
		}
	}
	for _, key := range c.Pro {
		if slices.Contains(c.Con, key) {
			return fmt.Errorf("%s cannot be on both teams", key)
		}
	}
	return nil
}

// request converts the config into the wire payload, always requesting
// asynchronous execution.
func (c *Config) request() client.DebateStartRequest {
	req := client.DebateStartRequest{
		Topic:           c.Topic,
		ProStance:       c.ProStance,
		ConStance:       c.ConStance,
		ProPhilosophers: keyStrings(c.Pro),
		ConPhilosophers: keyStrings(c.Con),
		Async:           true,
	}
	if len(c.ForcedStances) > 0 {
		req.ForcedStances = make(map[string]string, len(c.ForcedStances))
		for k, v := range c.ForcedStances {
			req.ForcedStances[string(k)] = v
		}
	}
	return req
}

func keyStrings(keys []personas.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
