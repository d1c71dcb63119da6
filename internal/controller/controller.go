// Package controller owns the reader state: the two page slots, their
// transforms, the layout and sizing modes, the rotation and the view area.
// It is the only thing that mutates that state and it recomputes the page
// transforms whenever one of their inputs changes.
package controller

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/mangareader/internal/imageio"
	"github.com/example/mangareader/internal/transform"
)

// SlotCount is the number of page slots.
const SlotCount = 2

const (
	defaultViewHeight = 450
	defaultViewWidth  = 800
)

// ErrSlotOutOfRange is returned for a slot index outside [0, SlotCount).
var ErrSlotOutOfRange = errors.New("slot index out of range")

// ErrNoImage is returned when a nil image is stored into a slot.
var ErrNoImage = errors.New("no image")

// Decoder turns a file path into an image.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(path string) (image.Image, error)

func (f DecoderFunc) Decode(path string) (image.Image, error) { return f(path) }

type slot struct {
	img       image.Image
	path      string
	placement transform.Placement
	xform     transform.Affine
}

func (s *slot) size() (float64, float64) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Controller holds the reader state. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	slots      [SlotCount]slot
	layout     Layout
	sizing     Sizing
	rotation   int
	viewHeight int
	viewWidth  int
	model      transform.RotationModel

	decoder Decoder
	logger  zerolog.Logger
}

// Option modifies a Controller during creation.
type Option func(*Controller)

// WithDecoder replaces the image decoder.
func WithDecoder(d Decoder) Option { return func(c *Controller) { c.decoder = d } }

// WithLayout sets the initial layout.
func WithLayout(l Layout) Option { return func(c *Controller) { c.layout = l } }

// WithSizing sets the initial sizing mode.
func WithSizing(s Sizing) Option { return func(c *Controller) { c.sizing = s } }

// WithViewDimension sets the initial view area.
func WithViewDimension(height, width int) Option {
	return func(c *Controller) {
		c.viewHeight = height
		c.viewWidth = width
	}
}

// WithRotationModel selects how rotation quadrants are turned into angles.
func WithRotationModel(m transform.RotationModel) Option {
	return func(c *Controller) { c.model = m }
}

// WithLogger sets the logger used for state changes.
func WithLogger(l zerolog.Logger) Option { return func(c *Controller) { c.logger = l } }

// New creates a Controller with both slots empty.
func New(opts ...Option) *Controller {
	c := &Controller{
		layout:     LayoutSingle,
		sizing:     SizingFitHeightWidth,
		viewHeight: defaultViewHeight,
		viewWidth:  defaultViewWidth,
		decoder:    DecoderFunc(imageio.Decode),
		logger:     log.Logger,
	}
	for _, o := range opts {
		o(c)
	}
	for i := range c.slots {
		c.slots[i].xform = transform.Identity
	}
	return c
}

// Layout returns the current layout.
func (c *Controller) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

// SetLayout changes the layout and relays out the pages if it differs.
func (c *Controller) SetLayout(l Layout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layout == l {
		return
	}
	c.layout = l
	c.relayout()
}

// Sizing returns the current sizing mode.
func (c *Controller) Sizing() Sizing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizing
}

// SetSizing changes the sizing mode and relays out the pages if it differs.
func (c *Controller) SetSizing(s Sizing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sizing == s {
		return
	}
	c.sizing = s
	c.relayout()
}

// Rotation returns the rotation in quadrants, within [-3, 3].
func (c *Controller) Rotation() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation
}

// RotationModel returns how quadrants are turned into angles.
func (c *Controller) RotationModel() transform.RotationModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// ViewDimension returns the view area height and width.
func (c *Controller) ViewDimension() (height, width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewHeight, c.viewWidth
}

// SetViewDimension records a new view area and relays out the pages.
func (c *Controller) SetViewDimension(height, width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewHeight = height
	c.viewWidth = width
	c.relayout()
}

// LoadFile decodes path into slot idx. Decoding happens without holding the
// state lock. On failure the slot keeps its previous image and transform.
func (c *Controller) LoadFile(ctx context.Context, path string, idx int) error {
	if idx < 0 || idx >= SlotCount {
		return fmt.Errorf("load %s into slot %d: %w", path, idx, ErrSlotOutOfRange)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := c.decoder.Decode(path)
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("load %s: %w", path, ErrNoImage)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.SetImage(idx, img, path)
}

// SetImage stores an already decoded image into slot idx. path may be empty
// when the image did not come from a file.
func (c *Controller) SetImage(idx int, img image.Image, path string) error {
	if idx < 0 || idx >= SlotCount {
		return fmt.Errorf("slot %d: %w", idx, ErrSlotOutOfRange)
	}
	if img == nil {
		return fmt.Errorf("slot %d: %w", idx, ErrNoImage)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("slot %d: empty image %v", idx, b)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[idx].img = img
	c.slots[idx].path = path
	c.relayout()
	c.logger.Debug().Int("slot", idx).Str("path", path).Msg("image set")
	return nil
}

// Path returns the file that slot idx was loaded from.
func (c *Controller) Path(idx int) string {
	if idx < 0 || idx >= SlotCount {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots[idx].path
}

// Placement returns the scale and offset slot idx was last laid out with.
func (c *Controller) Placement(idx int) (transform.Placement, bool) {
	if idx < 0 || idx >= SlotCount {
		return transform.Placement{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots[idx].img == nil {
		return transform.Placement{}, false
	}
	return c.slots[idx].placement, true
}

// Pan moves the page by (dx, dy) pixels. Only the single layout pans, and
// only slot 0. It reports whether the page actually moved.
func (c *Controller) Pan(dx, dy int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layout != LayoutSingle {
		return false
	}
	s := &c.slots[0]
	if s.img == nil {
		return false
	}
	w, h := s.size()
	ew, eh := transform.EffectiveDimension(w, h, s.placement.Scale, c.rotation)
	p := s.placement
	p.DX = transform.ClampPan(ew, float64(c.viewWidth), p.DX, float64(dx))
	p.DY = transform.ClampPan(eh, float64(c.viewHeight), p.DY, float64(dy))
	if p == s.placement {
		return false
	}
	s.placement = p
	s.xform = c.model.Compose(p, c.rotation, w, h)
	return true
}

// Rotate turns the pages by count quadrants, clockwise when cw is set. It
// reports whether the rotation changed and a redraw is needed.
func (c *Controller) Rotate(count int, cw bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.rotation
	if cw {
		c.rotation -= count
	} else {
		c.rotation += count
	}
	c.rotation %= 4
	if c.rotation == old {
		return false
	}
	c.relayout()
	return true
}

// Images returns the slot images in slot order. Empty slots are nil.
func (c *Controller) Images() []image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]image.Image, SlotCount)
	for i := range c.slots {
		out[i] = c.slots[i].img
	}
	return out
}

// Transforms returns the slot transforms, index-aligned with Images.
func (c *Controller) Transforms() []transform.Affine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]transform.Affine, SlotCount)
	for i := range c.slots {
		out[i] = c.slots[i].xform
	}
	return out
}

// Snapshot is a consistent copy of everything a painter needs.
type Snapshot struct {
	Images     []image.Image
	Transforms []transform.Affine
	Paths      []string
	Layout     Layout
	Sizing     Sizing
	Rotation   int
	ViewHeight int
	ViewWidth  int
}

// Snapshot copies the current state under a single lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Images:     make([]image.Image, SlotCount),
		Transforms: make([]transform.Affine, SlotCount),
		Paths:      make([]string, SlotCount),
		Layout:     c.layout,
		Sizing:     c.sizing,
		Rotation:   c.rotation,
		ViewHeight: c.viewHeight,
		ViewWidth:  c.viewWidth,
	}
	for i := range c.slots {
		s.Images[i] = c.slots[i].img
		s.Transforms[i] = c.slots[i].xform
		s.Paths[i] = c.slots[i].path
	}
	return s
}

// relayout recomputes the page transforms. The caller must hold c.mu.
func (c *Controller) relayout() {
	switch c.layout {
	case LayoutSingle:
		s := &c.slots[0]
		if s.img == nil {
			return
		}
		if c.viewWidth <= 0 || c.viewHeight <= 0 {
			// A collapsed window has nothing to fit into; keep the last layout.
			return
		}
		w, h := s.size()
		s.placement = c.placeSingle(w, h)
		s.xform = c.model.Compose(s.placement, c.rotation, w, h)
		c.logger.Debug().
			Float64("scale", s.placement.Scale).
			Float64("dx", s.placement.DX).
			Float64("dy", s.placement.DY).
			Int("rotation", c.rotation).
			Msg("relayout")
	case LayoutContinuous, LayoutDoubleNormal, LayoutDoubleManga:
		// Not laid out; transforms keep their previous values.
	}
}

func (c *Controller) placeSingle(w, h float64) transform.Placement {
	viewW, viewH := float64(c.viewWidth), float64(c.viewHeight)
	ew, eh := transform.EffectiveDimension(w, h, 1, c.rotation)
	scale := 1.0
	switch c.sizing {
	case SizingActual, SizingManual:
		scale = 1
	case SizingFitHeight:
		scale = viewH / eh
	case SizingFitWidth:
		scale = viewW / ew
	case SizingFitHeightWidth:
		scale = transform.FitScale(eh, ew, viewH, viewW)
	}
	ew, eh = transform.EffectiveDimension(w, h, scale, c.rotation)
	return transform.Placement{
		Scale: scale,
		DX:    transform.CenterOffset(viewW, ew),
		DY:    transform.CenterOffset(viewH, eh),
	}
}
