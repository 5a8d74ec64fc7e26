package prompt

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

// userTemplateSource renders the task verbatim followed by any resolved
// file attachments, each wrapped in a tag the lenient xmltag parser (used
// elsewhere for XML tool-call recovery) can also parse back out if a
// later stage needs to re-extract attachment boundaries from rendered
// text — the same tagging convention, not a shared call path.
const userTemplateSource = `{{.Task}}
{{range .Files}}
<file path="{{.Path}}">
{{.Content}}
</file>
{{end}}`

var userTemplateCompiled *template.Template

func init() {
	tmpl, err := strictTemplate("user", userTemplateSource)
	if err != nil {
		panic(err)
	}
	userTemplateCompiled = tmpl
}

// atPathPattern matches an @path token: '@' followed by a run of
// non-whitespace characters, the same token shape forge_prompt::Prompt::parse
// scans for.
var atPathPattern = regexp.MustCompile(`@([^\s]+)`)

// FileReader abstracts the file-reader/walker external collaborator named
// in spec.md §6 — consumed here as read(path) -> bytes.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// osFileReader reads directly off fs.FS rooted at a working directory.
type osFileReader struct {
	root fs.FS
}

// NewFSFileReader adapts an fs.FS (typically os.DirFS(cwd)) into a
// FileReader.
func NewFSFileReader(root fs.FS) FileReader {
	return osFileReader{root: root}
}

func (r osFileReader) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(r.root, path)
}

// ScanAttachments finds every @path token in task, resolves each path
// relative to cwd through reader, and returns the files that were
// readable. Unreadable references are dropped silently per spec.md §4.3 —
// never an error, never aborts the turn.
func ScanAttachments(task string, reader FileReader) []File {
	matches := atPathPattern.FindAllStringSubmatch(task, -1)
	if matches == nil {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var files []File
	for _, m := range matches {
		raw := m[1]
		path := filepath.Clean(raw)
		if path == "." || path == ".." || strings.HasPrefix(path, "../") {
			continue
		}
		if seen[path] {
			continue
		}
		seen[path] = true

		content, err := reader.ReadFile(path)
		if err != nil {
			continue
		}
		files = append(files, File{Path: raw, Content: string(content)})
	}
	return files
}

// BuildUserPrompt resolves task's @path attachments via reader and renders
// the user prompt template.
func BuildUserPrompt(task string, reader FileReader) (string, error) {
	uctx := UserContext{Task: task, Files: ScanAttachments(task, reader)}
	return render(userTemplateCompiled, uctx)
}
