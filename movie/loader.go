package movie

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/phanxgames/reel"
)

// FileLoader resolves level-load urls to documents under Root. It
// implements reel.Loader.
type FileLoader struct {
	Root     string
	Compiler Compiler
}

// Load parses the document named by url. Urls are relative to Root and may
// not escape it.
func (l FileLoader) Load(url string) (reel.Definition, error) {
	name := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(url, "file://")))
	if filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
		return nil, fmt.Errorf("load %q: path escapes loader root", url)
	}
	s, err := Load(filepath.Join(l.Root, name), l.Compiler)
	if err != nil {
		return nil, err
	}
	return s, nil
}
