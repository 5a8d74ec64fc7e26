package tools

import (
	"encoding/json"
	"fmt"

	"github.com/simonyos/zcode-core/internal/domain"
)

// Assemble concatenates a turn's streamed ToolCallPart fragments into a
// single domain.ToolCall. Name and call id are fixed by the first part that
// carries them; argument fragments are joined verbatim and parsed as JSON
// exactly once, here, at the end of the stream — never incrementally,
// since a partial JSON fragment is not valid JSON and there is nothing
// useful to do with it until the whole thing has arrived.
//
// Returns ok=false if parts is empty (no native tool call was made this
// turn). The orchestrator calls Assemble only after a ToolCalls finish with
// parts present; text from a Stop finish goes to xml_recover.go instead.
func Assemble(parts []domain.ToolCallPart) (domain.ToolCall, bool, error) {
	if len(parts) == 0 {
		return domain.ToolCall{}, false, nil
	}

	var name domain.ToolName
	var callID domain.ToolCallId
	var args string
	for _, p := range parts {
		if name == "" && p.Name != "" {
			name = p.Name
		}
		if callID == "" && p.CallId != "" {
			callID = p.CallId
		}
		args += p.ArgumentsFragment
	}

	if name == "" {
		return domain.ToolCall{}, false, fmt.Errorf("tool call parts carry no tool name")
	}

	if args == "" {
		args = "{}"
	}
	var decoded json.RawMessage
	if err := json.Unmarshal([]byte(args), &decoded); err != nil {
		return domain.ToolCall{}, false, fmt.Errorf("tool call %q: arguments are not valid JSON: %w", name, err)
	}

	return domain.ToolCall{Name: name, CallId: callID, Arguments: decoded}, true, nil
}
