package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// strictTemplate parses src with Option("missingkey=error"), the stdlib
// equivalent of the Handlebars strict mode the original implementation
// relied on (`handlebars.Handlebars::set_strict_mode(true)`): a template
// variable absent from the data aborts rendering instead of rendering
// empty.
func strictTemplate(name, src string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	return tmpl, nil
}

// render executes tmpl against data, converting any render-time error
// (including a missing key) into a plain Go error the caller propagates as
// an InputError up in the orchestrator.
func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template render failed: %w", err)
	}
	return buf.String(), nil
}
