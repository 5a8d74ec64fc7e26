package tools

import (
	"fmt"
	"path/filepath"
)

// requireAbsolutePath rejects relative paths for tools that mutate the
// filesystem. A relative path resolves against whatever directory the
// process happened to start in, which is invisible to the model — forcing
// absolute paths means every write names its target file independently of
// the process's working directory.
func requireAbsolutePath(path string) error {
	if path == "" {
		return fmt.Errorf("missing path")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path %q must be absolute", path)
	}
	return nil
}
