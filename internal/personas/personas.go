// Package personas holds the static roster of band member personas the
// server can role-play as. The roster is embedded at build time and never
// changes at runtime, so reads need no synchronization.
package personas

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Key identifies a persona. The set of keys is closed and part of the wire
// contract with the server.
type Key string

const (
	Tomori Key = "tomori"
	Anon   Key = "anon"
	Rana   Key = "rana"
	Soyo   Key = "soyo"
	Taki   Key = "taki"
)

// ErrNotFound indicates the requested persona key is not in the roster.
var ErrNotFound = errors.New("persona not found")

// Persona describes one character.
type Persona struct {
	Key         Key    `yaml:"key"`
	Name        string `yaml:"name"`    // native-script display name
	NameJP      string `yaml:"name_jp"` // romanized name
	Role        string `yaml:"role"`    // position in the band
	Color       string `yaml:"color"`   // hex color for terminal rendering
	Description string `yaml:"description"`
	Avatar      string `yaml:"avatar"`
}

//go:embed personas.yaml
var rosterYAML []byte

var (
	roster []Persona
	byKey  map[Key]Persona
)

func init() {
	if err := yaml.Unmarshal(rosterYAML, &roster); err != nil {
		panic(fmt.Sprintf("personas: invalid embedded roster: %v", err))
	}
	byKey = make(map[Key]Persona, len(roster))
	for _, p := range roster {
		byKey[p.Key] = p
	}
}

// All returns the roster in its fixed display order.
func All() []Persona {
	out := make([]Persona, len(roster))
	copy(out, roster)
	return out
}

// Get returns the persona for key, or ErrNotFound for a key outside the set.
func Get(key Key) (Persona, error) {
	p, ok := byKey[key]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return p, nil
}

// Keys returns the persona keys in roster order.
func Keys() []Key {
	keys := make([]Key, len(roster))
	for i, p := range roster {
		keys[i] = p.Key
	}
	return keys
}

// Valid reports whether key is part of the closed persona set.
func Valid(key Key) bool {
	_, ok := byKey[key]
	return ok
}
