package tools

import (
	"encoding/json"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/xmltag"
)

// RecoverXMLToolCall scans assistant text for the outermost tag whose name
// matches a registered tool and turns it into a domain.ToolCall. Children
// become argument name/value pairs, coerced to strings and stripped of
// surrounding whitespace — the XML fallback channel has no attributes and
// no nested objects, so this is the entire grammar. Returns ok=false if no
// registered tool name appears as a tag.
func (r *Registry) RecoverXMLToolCall(text string) (domain.ToolCall, bool) {
	defs := r.List()
	candidates := make([]string, len(defs))
	for i, def := range defs {
		candidates[i] = def.Name
	}

	el, ok := xmltag.FindOutermost(text, candidates)
	if !ok {
		return domain.ToolCall{}, false
	}

	args := make(map[string]string, len(el.Children))
	for _, child := range el.Children {
		args[child.Name] = child.Text
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return domain.ToolCall{}, false
	}

	return domain.ToolCall{Name: domain.ToolName(el.Name), Arguments: raw}, true
}
