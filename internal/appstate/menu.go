package appstate

import (
	"image"
	"image/draw"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"

	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/theme"
)

const (
	menuHeight   = 20
	statusHeight = 18
	itemHeight   = 18
	menuPad      = 8
	// textBaseline is the y offset of the baseline inside a 13px face row.
	textBaseline = 14
)

var uiFace font.Face = basicfont.Face7x13

// KeyShortcut identifies a key combination. Printable keys are matched by
// their lower case rune and non-printing keys by their code, so the same
// shortcut is found whichever of the two a driver fills in.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

func (k KeyShortcut) normalized() KeyShortcut {
	if k.Rune > 0 {
		return KeyShortcut{Rune: unicode.ToLower(k.Rune), Modifiers: k.Modifiers}
	}
	return KeyShortcut{Code: k.Code, Modifiers: k.Modifiers}
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// shortcutFor normalises a key event into the form used as a map key.
func shortcutFor(e key.Event) KeyShortcut {
	r := e.Rune
	// Ctrl+letter may arrive as the ASCII control character.
	if e.Modifiers&key.ModControl != 0 && r >= 1 && r <= 26 {
		r = 'a' + r - 1
	}
	return KeyShortcut{Rune: r, Code: e.Code, Modifiers: e.Modifiers}.normalized()
}

// ButtonState describes the visual state of a menu entry.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

type menuItem struct {
	label    string
	shortcut string
	action   string
	// radio items show whether they are the selected choice.
	radio   bool
	checked bool
}

type menu struct {
	title string
	items []menuItem
}

// buildMenus returns the menu bar reflecting the current modes.
func buildMenus(layout controller.Layout, sizing controller.Sizing) []menu {
	file := menu{title: "File", items: []menuItem{
		{label: "Open...", shortcut: "Ctrl+O", action: "open"},
		{label: "Next page", shortcut: "PgDn", action: "next"},
		{label: "Previous page", shortcut: "PgUp", action: "prev"},
		{label: "Reload", shortcut: "F5", action: "reload"},
		{label: "Copy page", shortcut: "Ctrl+C", action: "copy"},
		{label: "Paste page", shortcut: "Ctrl+V", action: "paste"},
		{label: "Exit", shortcut: "Q", action: "quit"},
	}}
	lay := menu{title: "Layout"}
	for _, l := range controller.Layouts {
		lay.items = append(lay.items, menuItem{label: l.String(), action: "layout:" + l.Key(), radio: true, checked: l == layout})
	}
	size := menu{title: "Sizing"}
	for _, s := range controller.Sizings {
		size.items = append(size.items, menuItem{label: s.String(), action: "sizing:" + s.Key(), radio: true, checked: s == sizing})
	}
	rot := menu{title: "Rotate", items: []menuItem{
		{label: "90 degrees clockwise", shortcut: "R", action: "rotate-cw"},
		{label: "90 degrees counter-clockwise", shortcut: "Shift+R", action: "rotate-ccw"},
		{label: "180 degrees", action: "rotate-180"},
	}}
	return []menu{file, lay, size, rot}
}

func textWidth(s string) int {
	return font.MeasureString(uiFace, s).Ceil()
}

// titleRects lays the menu titles out left to right along the bar.
func titleRects(menus []menu) []image.Rectangle {
	rects := make([]image.Rectangle, len(menus))
	x := 0
	for i, m := range menus {
		w := textWidth(m.title) + 2*menuPad
		rects[i] = image.Rect(x, 0, x+w, menuHeight)
		x += w
	}
	return rects
}

const radioWidth = 16

// dropdownRect is the area of the open menu's item list.
func dropdownRect(m menu, title image.Rectangle) image.Rectangle {
	labelW, keyW := 0, 0
	for _, it := range m.items {
		labelW = max(labelW, textWidth(it.label))
		keyW = max(keyW, textWidth(it.shortcut))
	}
	w := radioWidth + labelW + 2*menuPad
	if keyW > 0 {
		w += keyW + 2*menuPad
	}
	w = max(w, title.Dx())
	return image.Rect(title.Min.X, menuHeight, title.Min.X+w, menuHeight+len(m.items)*itemHeight)
}

// titleAt returns the index of the title under p, or -1.
func titleAt(rects []image.Rectangle, p image.Point) int {
	for i, r := range rects {
		if p.In(r) {
			return i
		}
	}
	return -1
}

// itemAt returns the index of the item under p in a dropdown, or -1.
func itemAt(drop image.Rectangle, count int, p image.Point) int {
	if !p.In(drop) {
		return -1
	}
	i := (p.Y - drop.Min.Y) / itemHeight
	if i < 0 || i >= count {
		return -1
	}
	return i
}

// menuView is what the painter needs to draw the menu bar.
type menuView struct {
	menus      []menu
	open       int
	hoverTitle int
	hoverItem  int
}

func drawText(dst draw.Image, x, baseline int, s string, c image.Image) {
	d := &font.Drawer{Dst: dst, Src: c, Face: uiFace, Dot: fixed.P(x, baseline)}
	d.DrawString(s)
}

func fill(dst draw.Image, r image.Rectangle, c image.Image) {
	draw.Draw(dst, r, c, image.Point{}, draw.Src)
}

func drawMenuBar(dst *image.RGBA, mv menuView, th *theme.Theme) {
	width := dst.Bounds().Dx()
	bar := image.Rect(0, 0, width, menuHeight)
	fill(dst, bar, image.NewUniform(th.MenuBackground))
	fill(dst, image.Rect(0, menuHeight-1, width, menuHeight), image.NewUniform(th.MenuBorder))

	rects := titleRects(mv.menus)
	for i, m := range mv.menus {
		state := StateDefault
		switch {
		case i == mv.open:
			state = StatePressed
		case i == mv.hoverTitle:
			state = StateHover
		}
		text := th.MenuText
		switch state {
		case StatePressed:
			fill(dst, rects[i], image.NewUniform(th.MenuActive))
			text = th.MenuActiveText
		case StateHover:
			fill(dst, rects[i], image.NewUniform(th.MenuHover))
		}
		drawText(dst, rects[i].Min.X+menuPad, textBaseline, m.title, image.NewUniform(text))
	}

	if mv.open < 0 || mv.open >= len(mv.menus) {
		return
	}
	m := mv.menus[mv.open]
	drop := dropdownRect(m, rects[mv.open])
	fill(dst, drop, image.NewUniform(th.ItemBackground))
	keyX := drop.Max.X - menuPad
	for i, it := range m.items {
		row := image.Rect(drop.Min.X, drop.Min.Y+i*itemHeight, drop.Max.X, drop.Min.Y+(i+1)*itemHeight)
		if i == mv.hoverItem {
			fill(dst, row, image.NewUniform(th.ItemHover))
		}
		ink := image.NewUniform(th.ItemText)
		if it.radio {
			mark := image.Rect(row.Min.X+5, row.Min.Y+5, row.Min.X+11, row.Min.Y+11)
			drawOutline(dst, mark, th.ItemText)
			if it.checked {
				fill(dst, mark.Inset(2), ink)
			}
		}
		base := row.Min.Y + textBaseline - 1
		drawText(dst, row.Min.X+radioWidth+menuPad/2, base, it.label, ink)
		if it.shortcut != "" {
			drawText(dst, keyX-textWidth(it.shortcut), base, it.shortcut, ink)
		}
	}
	drawOutline(dst, drop, th.MenuBorder)
}
