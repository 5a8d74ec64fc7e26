package tools

import (
	"fmt"
	"sort"
	"strings"
)

// UsagePrompt renders the tool catalog as deterministic text: one block
// per tool, sorted by name, in the form
//
//	<name>
//	<description>
//
//	Usage:
//	<name><param>...</param></name>
//
// This is fed into the system prompt for providers without native tool
// support, which are instructed to emit calls in the same XML shape so
// xml_recover.go can parse them back out.
func (r *Registry) UsagePrompt() string {
	defs := r.List()
	var sb strings.Builder
	for i, def := range defs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(def.Name)
		sb.WriteString("\n")
		sb.WriteString(def.Description)
		sb.WriteString("\n\nUsage:\n")
		sb.WriteString(usageExample(def))
	}
	return sb.String()
}

func usageExample(def ToolDefinition) string {
	var params []string
	if def.Parameters != nil {
		for name := range def.Parameters.Properties {
			params = append(params, name)
		}
		sort.Strings(params)
	}

	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(def.Name)
	sb.WriteString(">")
	for _, p := range params {
		sb.WriteString(fmt.Sprintf("<%s>...</%s>", p, p))
	}
	sb.WriteString("</")
	sb.WriteString(def.Name)
	sb.WriteString(">")
	return sb.String()
}
