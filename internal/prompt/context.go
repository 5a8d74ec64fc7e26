// Package prompt assembles the two templated prompts the orchestrator
// sends the model: the system prompt (environment facts, tool catalog,
// native-tool-call capability) and the user prompt (the task plus any
// @path file attachments it references). Both render in strict mode —
// an undefined template variable aborts rendering rather than silently
// producing an empty string.
package prompt

import (
	"github.com/simonyos/zcode-core/internal/domain"
)

// SystemContext carries the variables the system template renders:
// {env, tool_information, tool_supported} per spec.md §4.3.
type SystemContext struct {
	Env             domain.Environment
	ToolInformation string
	ToolSupported   bool
}

// NewSystemContext builds a SystemContext from the running environment and
// tool registry usage prompt, deciding ToolSupported from the resolved
// provider's Parameters — mirrors the teacher's NewPromptContext reading
// CWD/OS/Shell from the process, but sources everything here from the
// already-resolved domain values instead of the OS directly, since the
// orchestrator (not this package) owns environment discovery.
func NewSystemContext(env domain.Environment, toolInformation string, toolSupported bool) SystemContext {
	return SystemContext{Env: env, ToolInformation: toolInformation, ToolSupported: toolSupported}
}

// File is one attachment resolved from an @path token in the user's task
// text.
type File struct {
	Path    string
	Content string
}

// UserContext carries the variables the user template renders:
// {task, files} per spec.md §4.3.
type UserContext struct {
	Task  string
	Files []File
}
