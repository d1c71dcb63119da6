package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/mangareader/internal/appstate"
	"github.com/example/mangareader/internal/watch"
)

// viewCmd opens the reader window.
type viewCmd struct {
	*root
	fs       *flag.FlagSet
	files    []string
	debounce int
}

func (v *viewCmd) Program() string {
	return v.subProgram("view")
}

func (v *viewCmd) FlagSet() *flag.FlagSet {
	return v.fs
}

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	v := &viewCmd{root: r, fs: fs}
	fs.Usage = usageFunc(v)
	fs.IntVar(&v.debounce, "debounce", r.config.Watch.DebounceMS, "milliseconds a changed file must be quiet before reloading")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v.files = fs.Args()
	if len(v.files) > 2 {
		return nil, &UsageError{of: v}
	}
	return v, nil
}

func (v *viewCmd) Run() error {
	ctrl, err := v.newController()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := loadPages(ctx, ctrl, v.files); err != nil {
		v.notifier.Error(firstOr(v.files, ""), err)
		return fmt.Errorf("view: %w", err)
	}

	title := "Manga Reader"
	if len(v.files) > 0 {
		title = fmt.Sprintf("%s - Manga Reader", filepath.Base(v.files[0]))
	}
	opts := []appstate.Option{
		appstate.WithController(ctrl),
		appstate.WithTheme(v.activeTheme),
		appstate.WithNotifier(v.notifier),
		appstate.WithTitle(title),
		appstate.WithLogger(log.Logger),
		appstate.WithOnClose(cancel),
	}

	var (
		app     *appstate.AppState
		watcher *watch.Watcher
	)
	if v.watch {
		w, err := watch.New(time.Duration(v.debounce)*time.Millisecond, func(path string) {
			app.Reload(path)
		}, watch.WithLogger(log.Logger))
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.Set(v.files...); err != nil {
			log.Warn().Err(err).Msg("watch pages")
		}
		watcher = w
		opts = append(opts, appstate.WithWatcher(w))
	}
	app = appstate.New(opts...)
	if watcher != nil {
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("watcher stopped")
			}
		}()
	}
	app.Run()
	return nil
}

func firstOr(s []string, def string) string {
	if len(s) == 0 {
		return def
	}
	return s[0]
}
