// Package config reads and writes the reader's rc file.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/theme"
	"github.com/example/mangareader/internal/transform"
)

// DefaultDebounceMS is the quiet period before a changed page is reloaded.
const DefaultDebounceMS = 200

// Notify holds desktop notification settings.
type Notify struct {
	Error bool
	Open  bool
	Copy  bool
}

// Watch controls reloading pages when their files change.
type Watch struct {
	Enabled    bool
	DebounceMS int
}

// Config holds the application configuration.
type Config struct {
	Layout   controller.Layout
	Sizing   controller.Sizing
	Rotation transform.RotationModel
	Width    int
	Height   int
	Theme    string
	LogFile  string
	Notify   Notify
	Watch    Watch
	Themes   map[string]*theme.Theme
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		Layout:   controller.LayoutSingle,
		Sizing:   controller.SizingFitHeightWidth,
		Rotation: transform.RotationLegacy,
		Width:    800,
		Height:   450,
		Notify:   Notify{Error: true},
		Watch:    Watch{DebounceMS: DefaultDebounceMS},
		Themes:   make(map[string]*theme.Theme),
	}
}

// String returns the configuration in rc format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "layout = %s\n", c.Layout.Key())
	fmt.Fprintf(&sb, "sizing = %s\n", c.Sizing.Key())
	fmt.Fprintf(&sb, "rotation = %s\n", c.Rotation)
	fmt.Fprintf(&sb, "width = %d\n", c.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Height)
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.LogFile != "" {
		fmt.Fprintf(&sb, "log_file = %s\n", c.LogFile)
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "error = %v\n", c.Notify.Error)
	fmt.Fprintf(&sb, "open = %v\n", c.Notify.Open)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	sb.WriteString("[watch]\n")
	fmt.Fprintf(&sb, "enabled = %v\n", c.Watch.Enabled)
	fmt.Fprintf(&sb, "debounce_ms = %d\n", c.Watch.DebounceMS)
	sb.WriteString("\n")

	var names []string
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, field := range theme.ColorFields() {
			col, _ := t.Color(field)
			fmt.Fprintf(&sb, "%s: %s\n", field, theme.FormatColor(col))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
