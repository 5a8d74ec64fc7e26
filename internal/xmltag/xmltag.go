// Package xmltag implements the lenient tag-based scanner shared by the
// tools package's XML tool-call recovery and the facade package's <title>
// extraction. It is intentionally not a conformant XML parser:
// it accepts fragments that may be split across streaming boundaries,
// tolerates unescaped text content, and only understands the one shape
// both callers need — a named element whose children are either more
// named elements or plain text.
package xmltag

import "strings"

// Element is one parsed tag: its name, its direct text content (for leaf
// elements), and its children in document order.
type Element struct {
	Name     string
	Text     string
	Children []Element
}

// FindOutermost scans text for the outermost occurrence of a tag named one
// of candidates, returning the parsed element. When more than one
// candidate tag appears, the one whose opening tag occurs latest in text
// wins — this mirrors a model correcting itself mid-turn and re-emitting
// the call, regardless of the order candidates are given in.
func FindOutermost(text string, candidates []string) (Element, bool) {
	var best Element
	bestOffset := -1
	found := false
	for _, name := range candidates {
		el, offset, ok := findTag(text, name)
		if !ok {
			continue
		}
		if offset > bestOffset {
			best = el
			bestOffset = offset
			found = true
		}
	}
	return best, found
}

// FindLeafText returns the trimmed text content of the last <name>...</name>
// span in text — for single-value tags like <title>...</title> where the
// caller wants the raw inner string rather than a parsed child list.
func FindLeafText(text, name string) (string, bool) {
	el, offset, ok := findTag(text, name)
	if !ok {
		return "", false
	}
	if len(el.Children) > 0 {
		return "", false
	}
	open := "<" + name + ">"
	close := "</" + name + ">"
	closeIdx := strings.Index(text[offset:], close)
	inner := text[offset+len(open) : offset+closeIdx]
	return strings.TrimSpace(inner), true
}

// findTag locates the last complete <name>...</name> span in text, parses
// its children, and reports the byte offset of its opening tag so callers
// comparing matches across different tag names can tell which occurs later
// in the text.
func findTag(text, name string) (Element, int, bool) {
	open := "<" + name + ">"
	close := "</" + name + ">"

	lastOpen := strings.LastIndex(text, open)
	if lastOpen == -1 {
		return Element{}, -1, false
	}
	closeIdx := strings.Index(text[lastOpen:], close)
	if closeIdx == -1 {
		return Element{}, -1, false
	}
	inner := text[lastOpen+len(open) : lastOpen+closeIdx]

	return Element{Name: name, Children: parseChildren(inner)}, lastOpen, true
}

// parseChildren parses a sequence of sibling <tag>text</tag> elements from
// inner, skipping whitespace between them. Nesting beyond one level is not
// needed by either caller and is treated as opaque text of the parent.
func parseChildren(inner string) []Element {
	var children []Element
	rest := inner
	for {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if rest == "" {
			break
		}
		if rest[0] != '<' {
			break
		}
		end := strings.Index(rest, ">")
		if end == -1 {
			break
		}
		tagName := rest[1:end]
		if tagName == "" || strings.HasPrefix(tagName, "/") {
			break
		}
		closeTag := "</" + tagName + ">"
		closeIdx := strings.Index(rest[end+1:], closeTag)
		if closeIdx == -1 {
			break
		}
		text := rest[end+1 : end+1+closeIdx]
		children = append(children, Element{Name: tagName, Text: strings.TrimSpace(text)})
		rest = rest[end+1+closeIdx+len(closeTag):]
	}
	return children
}
