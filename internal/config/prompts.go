package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Prompt keys used by the handlers.
const (
	PromptChat     = "chat"
	PromptWorkouts = "workouts"
	PromptWellness = "wellness"
)

// Prompt is a system prompt plus the generation parameters sent with it.
type Prompt struct {
	System          string  `yaml:"system"`
	Temperature     float64 `yaml:"temperature"`
	TopP            float64 `yaml:"top_p"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// Prompts maps endpoint names to prompts.
type Prompts map[string]Prompt

// Get returns the prompt for key; the boolean is false when it is not defined.
func (p Prompts) Get(key string) (Prompt, bool) {
	v, ok := p[key]
	return v, ok
}

// DefaultPrompts returns the catalogue compiled into the binary.
func DefaultPrompts() Prompts {
	p, err := parsePrompts(defaultPromptsYAML)
	if err != nil {
		// embedded file is validated by tests
		panic(fmt.Sprintf("config: embedded prompts invalid: %v", err))
	}
	return p
}

// LoadPrompts returns the embedded catalogue merged with entries from path.
// An empty path yields the defaults unchanged.
func LoadPrompts(path string) (Prompts, error) {
	out := DefaultPrompts()
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	// #nosec G304 -- operator supplied configuration file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=config.LoadPrompts: read %s: %w", path, err)
	}
	override, err := parsePrompts(content)
	if err != nil {
		return nil, fmt.Errorf("op=config.LoadPrompts: %s: %w", path, err)
	}
	for k, v := range override {
		base := out[k]
		if strings.TrimSpace(v.System) != "" {
			base.System = v.System
		}
		if v.Temperature > 0 {
			base.Temperature = v.Temperature
		}
		if v.TopP > 0 {
			base.TopP = v.TopP
		}
		if v.MaxOutputTokens > 0 {
			base.MaxOutputTokens = v.MaxOutputTokens
		}
		out[k] = base
	}
	return out, nil
}

func parsePrompts(content []byte) (Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if p == nil {
		p = Prompts{}
	}
	for k, v := range p {
		v.System = strings.TrimSpace(v.System)
		p[k] = v
	}
	return p, nil
}
