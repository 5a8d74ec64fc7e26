package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Workflow is the optional per-project override loaded from a YAML file by
// an external workflow loader (out of scope for this module per spec.md
// §6) and handed to the core as resolved input values. It carries only the
// agent/model default overrides the core actually consumes — not a full
// multi-step workflow engine, which belongs to that external collaborator.
type Workflow struct {
	DefaultAgentModel string `yaml:"default_agent_model"`
	DefaultSmallModel string `yaml:"default_small_model"`
}

// knownWorkflowKeys enforces strict mode: spec.md §6 says unknown options
// are rejected rather than silently ignored, so we decode into a generic
// map first and check its keys before decoding into the typed struct.
var knownWorkflowKeys = map[string]bool{
	"default_agent_model": true,
	"default_small_model": true,
}

// LoadWorkflowOverride reads and strictly validates a workflow override
// file. A missing file is not an error — it returns a zero Workflow, since
// the override is optional and the core's own defaults apply.
func LoadWorkflowOverride(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Workflow{}, nil
		}
		return nil, fmt.Errorf("failed to read workflow override: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse workflow override: %w", err)
	}
	for key := range raw {
		if !knownWorkflowKeys[key] {
			return nil, fmt.Errorf("unknown workflow override key: %s", key)
		}
	}

	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow override: %w", err)
	}
	return &wf, nil
}

// ResolveModel returns the override's agent model if set, otherwise
// fallback.
func (w *Workflow) ResolveModel(fallback string) string {
	if w == nil || w.DefaultAgentModel == "" {
		return fallback
	}
	return w.DefaultAgentModel
}

// ResolveSmallModel returns the override's small model if set, otherwise
// fallback.
func (w *Workflow) ResolveSmallModel(fallback string) string {
	if w == nil || w.DefaultSmallModel == "" {
		return fallback
	}
	return w.DefaultSmallModel
}
