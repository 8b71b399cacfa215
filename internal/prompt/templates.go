// Package prompt composes the generation prompts for each story phase.
package prompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brendenrossin/collectivelore/internal/story"
)

// defaultTemplate covers phases the template file leaves out.
const defaultTemplate = "Continue the ongoing story. Keep it engaging and suitable for a short social post."

// TemplateStore holds the per-phase guideline templates.
type TemplateStore struct {
	templates map[story.Phase]string
}

// LoadTemplates reads the phase template mapping from a YAML file.
func LoadTemplates(path string) (*TemplateStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phase templates: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing phase templates: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("phase template file %s is empty", path)
	}

	templates := make(map[story.Phase]string, len(raw))
	for name, text := range raw {
		if text == "" {
			return nil, fmt.Errorf("phase template %q is empty", name)
		}
		templates[story.Phase(name)] = text
	}

	return &TemplateStore{templates: templates}, nil
}

// Get returns the template for a phase, falling back to a generic
// continuation template when the phase has no entry.
func (s *TemplateStore) Get(phase story.Phase) string {
	if text, ok := s.templates[phase]; ok {
		return text
	}
	return defaultTemplate
}
