package theme

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader resolves theme names to themes.
type Loader struct {
	ConfigDir string
	SystemDir string
	// Inline holds themes defined in the configuration file, keyed by name.
	Inline map[string]*Theme
}

// NewLoader creates a Loader using the standard directories.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "mangareader", "themes"),
		SystemDir: "/usr/share/mangareader/themes",
	}
}

// Load resolves name to a theme, trying in order: an existing file path,
// an inline theme from the config, the embedded themes, ConfigDir and
// SystemDir. An empty name yields Default.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}

	if fi, err := os.Stat(name); err == nil && fi.Mode().IsRegular() {
		return parseFile(name)
	}

	if t, ok := l.Inline[name]; ok && t != nil {
		return t, nil
	}

	filename := name
	if !strings.HasSuffix(filename, ".theme") {
		filename += ".theme"
	}

	if f, err := EmbeddedThemes.Open("defaults/" + strings.ToLower(filename)); err == nil {
		defer f.Close()
		return Parse(f)
	}

	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, filename)
		if _, err := os.Stat(p); err == nil {
			return parseFile(p)
		}
	}

	return nil, fmt.Errorf("theme '%s' not found", name)
}

func parseFile(path string) (*Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", path, err)
	}
	return t, nil
}

// EmbeddedNames lists the themes compiled into the binary.
func EmbeddedNames() []string {
	entries, err := fs.ReadDir(EmbeddedThemes, "defaults")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".theme"); ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
