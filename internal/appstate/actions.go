package appstate

import (
	"context"

	"golang.org/x/mobile/event/key"

	"github.com/example/mangareader/internal/controller"
)

// actionHooks connects the action table to the event loop that owns the
// window state.
type actionHooks struct {
	show       func(result)
	background func(name string, fn func(ctx context.Context) result)
	reload     func(path string)
	prompt     func()
	quit       func()
}

// actionTable maps action names to handlers and key presses to action names.
// Menu items refer to the same names.
type actionTable struct {
	actions map[string]func()
	keys    map[KeyShortcut]string
}

func buildActions(v *viewer, h actionHooks) actionTable {
	t := actionTable{actions: map[string]func(){}, keys: map[KeyShortcut]string{}}
	register := func(name string, shortcuts KeyboardShortcuts, fn func()) {
		t.actions[name] = fn
		if shortcuts == nil {
			return
		}
		for _, sc := range shortcuts.KeyboardShortcuts() {
			t.keys[sc.normalized()] = name
		}
	}

	register("open", shortcutList{{Rune: 'o', Modifiers: key.ModControl}}, h.prompt)
	register("next", shortcutList{{Code: key.CodePageDown}, {Rune: 'o'}, {Rune: ' '}}, func() {
		h.background("next", func(ctx context.Context) result { return v.step(ctx, 1) })
	})
	register("prev", shortcutList{{Code: key.CodePageUp}, {Rune: 'o', Modifiers: key.ModShift}}, func() {
		h.background("prev", func(ctx context.Context) result { return v.step(ctx, -1) })
	})
	register("reload", shortcutList{{Code: key.CodeF5}}, func() {
		for idx := 0; idx < controller.SlotCount; idx++ {
			if p := v.ctrl.Path(idx); p != "" {
				h.reload(p)
			}
		}
	})
	register("copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, func() {
		h.background("copy", func(context.Context) result { return v.copyPage() })
	})
	register("paste", shortcutList{{Rune: 'v', Modifiers: key.ModControl}}, func() {
		h.background("paste", func(context.Context) result { return v.pastePage() })
	})
	register("quit", shortcutList{{Rune: 'q'}, {Rune: 'q', Modifiers: key.ModControl}}, h.quit)
	register("rotate-cw", shortcutList{{Rune: 'r'}}, func() { h.show(v.rotate(1, true)) })
	register("rotate-ccw", shortcutList{{Rune: 'r', Modifiers: key.ModShift}}, func() { h.show(v.rotate(1, false)) })
	register("rotate-180", nil, func() { h.show(v.rotate(2, true)) })
	register("layout-cycle", shortcutList{{Rune: 'l'}}, func() { h.show(v.cycleLayout()) })
	register("sizing-cycle", shortcutList{{Rune: 's'}}, func() { h.show(v.cycleSizing()) })
	for _, l := range controller.Layouts {
		l := l
		register("layout:"+l.Key(), nil, func() { h.show(v.setLayout(l)) })
	}
	for _, sz := range controller.Sizings {
		sz := sz
		register("sizing:"+sz.Key(), nil, func() { h.show(v.setSizing(sz)) })
	}
	register("pan-left", shortcutList{{Code: key.CodeLeftArrow}}, func() { h.show(v.pan(keyPanStep, 0)) })
	register("pan-right", shortcutList{{Code: key.CodeRightArrow}}, func() { h.show(v.pan(-keyPanStep, 0)) })
	register("pan-up", shortcutList{{Code: key.CodeUpArrow}}, func() { h.show(v.pan(0, keyPanStep)) })
	register("pan-down", shortcutList{{Code: key.CodeDownArrow}}, func() { h.show(v.pan(0, -keyPanStep)) })
	return t
}

// lookup returns the action bound to a key press.
func (t actionTable) lookup(e key.Event) (string, bool) {
	name, ok := t.keys[shortcutFor(e)]
	return name, ok
}

// run invokes the named action and reports whether it exists.
func (t actionTable) run(name string) bool {
	fn, ok := t.actions[name]
	if !ok || fn == nil {
		return false
	}
	fn()
	return true
}
