// Package voice drives one conversational turn of the interview: transcribe
// the candidate's audio, generate the interviewer's reply, and synthesize it
// back to audio. Transcription and synthesis failures are fatal to the turn;
// generation failures substitute the persona's trouble line so the candidate
// always hears something.
package voice

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prepstage/prepstage/internal/common/apperrors"
)

// Persona fixes the interviewer's tone for a session. The system prompt is
// constant per persona; per-turn context is appended separately.
type Persona struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
	TroubleLine  string `yaml:"trouble_line"`
}

// personaFile is the on-disk shape of the persona definitions.
type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// Registry resolves persona names to definitions.
type Registry struct {
	personas    map[string]Persona
	defaultName string
}

// ErrPersona is returned when persona definitions cannot be loaded.
var ErrPersona apperrors.Error = apperrors.New("unable to load personas")

// builtinPersona is used when no persona file is configured or the requested
// persona is unknown.
var builtinPersona = Persona{
	Name: "standard",
	SystemPrompt: "You are a professional, encouraging technical interviewer. " +
		"Ask focused follow-up questions, give brief hints when the candidate is stuck, " +
		"and never reveal full solutions. Keep replies under three sentences since they " +
		"will be spoken aloud.",
	TroubleLine: "I'm sorry, I'm having a little trouble on my end. Could you say that again?",
}

// LoadRegistry reads persona definitions from a YAML file. An empty path
// returns a registry containing only the built-in persona; a missing or
// malformed file is an error.
func LoadRegistry(path, defaultName string) (*Registry, error) {
	r := &Registry{
		personas:    map[string]Persona{builtinPersona.Name: builtinPersona},
		defaultName: builtinPersona.Name,
	}
	if defaultName != "" {
		r.defaultName = defaultName
	}
	if path == "" {
		return r, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrPersona.MsgErr("unable to read persona file", err)
	}
	var pf personaFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, ErrPersona.MsgErr("unable to parse persona file", err)
	}
	for _, p := range pf.Personas {
		if p.Name == "" {
			continue
		}
		if p.TroubleLine == "" {
			p.TroubleLine = builtinPersona.TroubleLine
		}
		r.personas[p.Name] = p
	}
	return r, nil
}

// Get returns the named persona, falling back to the default and then the
// built-in persona.
func (r *Registry) Get(name string) Persona {
	if p, ok := r.personas[name]; ok {
		return p
	}
	if p, ok := r.personas[r.defaultName]; ok {
		return p
	}
	return builtinPersona
}
