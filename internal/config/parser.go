package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/theme"
	"github.com/example/mangareader/internal/transform"
)

// Parse reads configuration from an io.Reader. Unknown keys and sections
// are ignored; malformed values are errors.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var current *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			current = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				current = theme.Default()
				current.Name = name
				cfg.Themes[name] = current
			}
			continue
		}

		key, value, ok := splitPair(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case current != nil:
			err = current.Set(key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case section == "watch":
			err = setWatchField(&cfg.Watch, key, value)
		case section == "":
			err = setRootField(cfg, key, value)
		}
		if err != nil {
			name := section
			if name == "" {
				name = "root"
			}
			return nil, fmt.Errorf("line %d [%s]: %w", lineNo, name, err)
		}
	}

	return cfg, scanner.Err()
}

// splitPair accepts "key = value" and "key: value". Surrounding double
// quotes are removed from the value.
func splitPair(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		key, value, ok = strings.Cut(line, ":")
	}
	if !ok {
		return "", "", false
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		value = value[1 : len(value)-1]
	}
	return strings.TrimSpace(key), value, true
}

func setRootField(cfg *Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "layout":
		cfg.Layout, err = controller.ParseLayout(value)
	case "sizing":
		cfg.Sizing, err = controller.ParseSizing(value)
	case "rotation":
		cfg.Rotation, err = transform.ParseRotationModel(value)
	case "width":
		cfg.Width, err = parseDimension(key, value)
	case "height":
		cfg.Height, err = parseDimension(key, value)
	case "theme":
		cfg.Theme = value
	case "log_file":
		cfg.LogFile = value
	}
	return err
}

func parseDimension(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "error":
		n.Error = b
	case "open":
		n.Open = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func setWatchField(w *Watch, key, value string) error {
	switch strings.ToLower(key) {
	case "enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		w.Enabled = b
	case "debounce_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for key %s: %w", key, err)
		}
		if n < 0 {
			return fmt.Errorf("debounce_ms must not be negative, got %d", n)
		}
		w.DebounceMS = n
	}
	return nil
}
