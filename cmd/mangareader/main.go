package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/example/mangareader/internal/config"
	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/notify"
	"github.com/example/mangareader/internal/theme"
	"github.com/example/mangareader/internal/transform"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs       *flag.FlagSet
	program  string
	config   *config.Config
	notifier *notify.Notifier
	stdout   io.Writer

	layout    string
	sizing    string
	rotation  string
	width     int
	height    int
	themeName string
	logFile   string
	debug     bool
	pretty    bool

	errorAlerts bool
	openAlerts  bool
	copyAlerts  bool
	watch       bool

	activeTheme *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	return newRootWith(cfg)
}

func newRootWith(cfg *config.Config) *root {
	r := &root{
		fs:       flag.NewFlagSet("mangareader", flag.ExitOnError),
		program:  "mangareader",
		config:   cfg,
		notifier: notify.New(notify.LoadPreferences()),
		stdout:   os.Stdout,

		activeTheme: theme.Default(),
	}
	r.fs.StringVar(&r.layout, "layout", cfg.Layout.Key(), "page layout (continuous, double-normal, double-manga, single)")
	r.fs.StringVar(&r.sizing, "sizing", cfg.Sizing.Key(), "page sizing (actual, fit-height, fit, fit-width, manual)")
	r.fs.StringVar(&r.rotation, "rotation", cfg.Rotation.String(), "rotation model (legacy, quadrant)")
	r.fs.IntVar(&r.width, "width", cfg.Width, "view width in pixels")
	r.fs.IntVar(&r.height, "height", cfg.Height, "view height in pixels")
	// Precedence: CLI > Env > Config > Default. An empty flag falls back in Run.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark, a theme name or a file)")
	r.fs.StringVar(&r.logFile, "log", cfg.LogFile, "also write logs to this file, rotated")
	r.fs.BoolVar(&r.debug, "debug", false, "enable debug logging")
	r.fs.BoolVar(&r.pretty, "pretty", false, "human readable console logs")
	r.fs.BoolVar(&r.errorAlerts, "notify-error", cfg.Notify.Error, "show a desktop notification when a page fails to load")
	r.fs.BoolVar(&r.openAlerts, "notify-open", cfg.Notify.Open, "show a desktop notification when a page is opened")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying a page")
	r.fs.BoolVar(&r.watch, "watch", cfg.Watch.Enabled, "reload pages when their files change")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	setupLogging(r.debug, r.pretty, r.logFile)
	if r.notifier != nil {
		r.notifier.Enable(notify.EventError, r.errorAlerts)
		r.notifier.Enable(notify.EventOpen, r.openAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "view":
		cmd, err = parseViewCmd(subArgs, r)
	case "layout":
		cmd, err = parseLayoutCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("MANGAREADER_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	loader := theme.NewLoader()
	loader.Inline = r.config.Themes
	t, err := loader.Load(name)
	if err != nil {
		if name != "default" {
			log.Warn().Err(err).Str("theme", name).Msg("failed to load theme, using default")
		}
		return theme.Default()
	}
	return t
}

// newController builds a controller from the view flags.
func (r *root) newController() (*controller.Controller, error) {
	layout, err := controller.ParseLayout(r.layout)
	if err != nil {
		return nil, err
	}
	sizing, err := controller.ParseSizing(r.sizing)
	if err != nil {
		return nil, err
	}
	model, err := transform.ParseRotationModel(r.rotation)
	if err != nil {
		return nil, err
	}
	if r.width <= 0 || r.height <= 0 {
		return nil, fmt.Errorf("view size %dx%d must be positive", r.width, r.height)
	}
	return controller.New(
		controller.WithLayout(layout),
		controller.WithSizing(sizing),
		controller.WithRotationModel(model),
		controller.WithViewDimension(r.height, r.width),
		controller.WithLogger(log.Logger),
	), nil
}

func (r *root) subProgram(name string) string {
	return strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
}

func setupLogging(debug, pretty bool, path string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	var console io.Writer = os.Stderr
	if pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	if path == "" {
		log.Logger = log.Output(console)
		return
	}
	log.Logger = log.Output(zerolog.MultiLevelWriter(console, &lumberjack.Logger{
		Filename:   path,
		MaxAge:     14,
		MaxBackups: 10,
	}))
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
