package controller

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/example/mangareader/internal/transform"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

var errBroken = errors.New("broken file")

// fakeDecoder serves images by path without touching the disk.
type fakeDecoder map[string]image.Image

func (f fakeDecoder) Decode(path string) (image.Image, error) {
	img, ok := f[path]
	if !ok {
		return nil, errBroken
	}
	return img, nil
}

func page(w, h int) image.Image {
	return image.NewGray(image.Rect(0, 0, w, h))
}

func newTestController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	dec := fakeDecoder{
		"big.png":  page(1600, 1200),
		"tall.png": page(400, 2000),
		"tiny.png": page(100, 50),
	}
	return New(append([]Option{WithDecoder(dec)}, opts...)...)
}

func TestDefaults(t *testing.T) {
	c := New()
	if c.Layout() != LayoutSingle {
		t.Errorf("layout = %v", c.Layout())
	}
	if c.Sizing() != SizingFitHeightWidth {
		t.Errorf("sizing = %v", c.Sizing())
	}
	if h, w := c.ViewDimension(); h != 450 || w != 800 {
		t.Errorf("view = %dx%d", w, h)
	}
	imgs, xforms := c.Images(), c.Transforms()
	if len(imgs) != SlotCount || len(xforms) != SlotCount {
		t.Fatalf("got %d images and %d transforms", len(imgs), len(xforms))
	}
	for i := range imgs {
		if imgs[i] != nil {
			t.Errorf("slot %d not empty", i)
		}
		if xforms[i] != transform.Identity {
			t.Errorf("slot %d transform = %v", i, xforms[i])
		}
	}
}

func TestLoadFitsHeightAndWidth(t *testing.T) {
	c := newTestController(t)
	if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	p, ok := c.Placement(0)
	if !ok {
		t.Fatal("no placement for loaded slot")
	}
	want := transform.Placement{Scale: 0.375, DX: 100, DY: 0}
	if diff := cmp.Diff(want, p, approx); diff != "" {
		t.Fatalf("placement mismatch (-want +got):\n%s", diff)
	}
	ew, eh := transform.EffectiveDimension(1600, 1200, p.Scale, c.Rotation())
	if diff := cmp.Diff([2]float64{600, 450}, [2]float64{ew, eh}, approx); diff != "" {
		t.Fatalf("effective dimension mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(transform.Compose(0.375, 100, 0, 0), c.Transforms()[0], approx); diff != "" {
		t.Fatalf("transform mismatch (-want +got):\n%s", diff)
	}
}

func TestSizingModes(t *testing.T) {
	cases := []struct {
		sizing Sizing
		want   transform.Placement
	}{
		{SizingActual, transform.Placement{Scale: 1}},
		{SizingManual, transform.Placement{Scale: 1}},
		{SizingFitHeight, transform.Placement{Scale: 0.375, DX: 100}},
		{SizingFitWidth, transform.Placement{Scale: 0.5, DY: 0}},
		{SizingFitHeightWidth, transform.Placement{Scale: 0.375, DX: 100}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.sizing.Key(), func(t *testing.T) {
			c := newTestController(t, WithSizing(tc.sizing))
			if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			p, _ := c.Placement(0)
			if diff := cmp.Diff(tc.want, p, approx); diff != "" {
				t.Fatalf("placement mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetSizingRelayouts(t *testing.T) {
	c := newTestController(t)
	if err := c.LoadFile(context.Background(), "tiny.png", 0); err != nil {
		t.Fatal(err)
	}
	c.SetSizing(SizingActual)
	p, _ := c.Placement(0)
	want := transform.Placement{Scale: 1, DX: 350, DY: 200}
	if diff := cmp.Diff(want, p, approx); diff != "" {
		t.Fatalf("placement mismatch (-want +got):\n%s", diff)
	}
}

func TestSetViewDimensionRelayouts(t *testing.T) {
	c := newTestController(t)
	if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
		t.Fatal(err)
	}
	c.SetViewDimension(600, 1600)
	p, _ := c.Placement(0)
	want := transform.Placement{Scale: 0.5, DX: 400, DY: 0}
	if diff := cmp.Diff(want, p, approx); diff != "" {
		t.Fatalf("placement mismatch (-want +got):\n%s", diff)
	}
}

func TestCollapsedViewKeepsLayout(t *testing.T) {
	c := newTestController(t)
	if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()
	placed, _ := c.Placement(0)

	for _, dim := range [][2]int{{1, 0}, {0, 1}, {0, 0}, {-5, 800}} {
		c.SetViewDimension(dim[0], dim[1])
		after := c.Snapshot()
		for _, v := range after.Transforms[0] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("view %v produced transform %v", dim, after.Transforms[0])
			}
		}
		if diff := cmp.Diff(before.Transforms, after.Transforms); diff != "" {
			t.Fatalf("view %v changed transforms (-before +after):\n%s", dim, diff)
		}
		if p, _ := c.Placement(0); p != placed {
			t.Fatalf("view %v changed placement to %+v", dim, p)
		}
	}

	c.SetViewDimension(600, 1600)
	p, _ := c.Placement(0)
	want := transform.Placement{Scale: 0.5, DX: 400, DY: 0}
	if diff := cmp.Diff(want, p, approx); diff != "" {
		t.Fatalf("placement after restore (-want +got):\n%s", diff)
	}
}

func TestLoadFailureLeavesSlotUnchanged(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	if err := c.LoadFile(ctx, "big.png", 0); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()

	err := c.LoadFile(ctx, "missing.png", 0)
	if !errors.Is(err, errBroken) {
		t.Fatalf("expected decode error, got %v", err)
	}
	after := c.Snapshot()
	if after.Images[0] != before.Images[0] || after.Paths[0] != "big.png" {
		t.Fatal("failed load replaced the image")
	}
	if diff := cmp.Diff(before.Transforms, after.Transforms); diff != "" {
		t.Fatalf("failed load changed transforms (-before +after):\n%s", diff)
	}
}

func TestLoadRejectsBadSlot(t *testing.T) {
	c := newTestController(t)
	for _, idx := range []int{-1, 2} {
		if err := c.LoadFile(context.Background(), "big.png", idx); !errors.Is(err, ErrSlotOutOfRange) {
			t.Errorf("slot %d: got %v", idx, err)
		}
	}
	if err := c.SetImage(0, nil, ""); !errors.Is(err, ErrNoImage) {
		t.Errorf("nil image: got %v", err)
	}
}

func TestLoadHonoursCancelledContext(t *testing.T) {
	c := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.LoadFile(ctx, "big.png", 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	if c.Images()[0] != nil {
		t.Fatal("cancelled load stored an image")
	}
}

func TestSecondSlotIsNotLaidOutInSingleMode(t *testing.T) {
	c := newTestController(t)
	if err := c.LoadFile(context.Background(), "tiny.png", 1); err != nil {
		t.Fatal(err)
	}
	if c.Images()[1] == nil {
		t.Fatal("slot 1 not stored")
	}
	if got := c.Transforms()[1]; got != transform.Identity {
		t.Fatalf("slot 1 transform = %v", got)
	}
}

func TestRotateRoundTrip(t *testing.T) {
	c := newTestController(t)
	if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
		t.Fatal(err)
	}
	before := c.Transforms()[0]
	if !c.Rotate(1, true) {
		t.Fatal("CW rotation reported no change")
	}
	if c.Rotation() != -1 {
		t.Fatalf("rotation = %d", c.Rotation())
	}
	rotated, _ := c.Placement(0)
	if diff := cmp.Diff(transform.Placement{Scale: 0.28125, DX: 231.25, DY: 0}, rotated, approx); diff != "" {
		t.Fatalf("rotated placement mismatch (-want +got):\n%s", diff)
	}
	if !c.Rotate(1, false) {
		t.Fatal("CCW rotation reported no change")
	}
	if c.Rotation() != 0 {
		t.Fatalf("rotation = %d", c.Rotation())
	}
	if diff := cmp.Diff(before, c.Transforms()[0], approx); diff != "" {
		t.Fatalf("transform not restored (-want +got):\n%s", diff)
	}
}

func TestRotateReduction(t *testing.T) {
	c := New()
	if c.Rotate(4, true) {
		t.Fatal("full turn should not need a redraw")
	}
	c.Rotate(3, false)
	c.Rotate(2, false)
	if got := c.Rotation(); got != 1 {
		t.Fatalf("rotation = %d, want 1", got)
	}
	c.Rotate(5, true)
	if got := c.Rotation(); got != 0 {
		t.Fatalf("rotation = %d, want 0", got)
	}
	c.Rotate(3, true)
	if got := c.Rotation(); got != -3 {
		t.Fatalf("rotation = %d, want -3", got)
	}
}

func TestPan(t *testing.T) {
	c := newTestController(t, WithSizing(SizingActual))
	if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
		t.Fatal(err)
	}
	if c.Pan(10, 10) {
		t.Fatal("panning past the leading edge reported movement")
	}
	if !c.Pan(-300, -100) {
		t.Fatal("pan did not move")
	}
	p, _ := c.Placement(0)
	if diff := cmp.Diff(transform.Placement{Scale: 1, DX: -300, DY: -100}, p, approx); diff != "" {
		t.Fatalf("placement mismatch (-want +got):\n%s", diff)
	}
	c.Pan(-5000, -5000)
	p, _ = c.Placement(0)
	if diff := cmp.Diff(transform.Placement{Scale: 1, DX: -800, DY: -750}, p, approx); diff != "" {
		t.Fatalf("placement mismatch (-want +got):\n%s", diff)
	}
	m := c.Transforms()[0]
	if diff := cmp.Diff([2]float64{-800, -750}, [2]float64{m[4], m[5]}, approx); diff != "" {
		t.Fatalf("translation mismatch (-want +got):\n%s", diff)
	}
	if c.Pan(0, 0) {
		t.Fatal("zero pan reported movement")
	}
}

func TestPanFrozenWhenPageFits(t *testing.T) {
	c := newTestController(t)
	if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
		t.Fatal(err)
	}
	if c.Pan(-50, -50) {
		t.Fatal("fitted page moved")
	}
}

func TestPanOnlyInSingleLayout(t *testing.T) {
	c := newTestController(t, WithSizing(SizingActual))
	if c.Pan(-10, -10) {
		t.Fatal("pan with no image reported movement")
	}
	if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
		t.Fatal(err)
	}
	c.SetLayout(LayoutDoubleManga)
	if c.Pan(-10, -10) {
		t.Fatal("pan outside single layout reported movement")
	}
}

func TestNonSingleLayoutsKeepTransforms(t *testing.T) {
	c := newTestController(t)
	if err := c.LoadFile(context.Background(), "big.png", 0); err != nil {
		t.Fatal(err)
	}
	before := c.Transforms()
	for _, l := range []Layout{LayoutContinuous, LayoutDoubleNormal, LayoutDoubleManga} {
		c.SetLayout(l)
		c.SetViewDimension(100, 100)
		if diff := cmp.Diff(before, c.Transforms()); diff != "" {
			t.Fatalf("%v changed transforms (-want +got):\n%s", l, diff)
		}
	}
}

func TestQuadrantModelKeepsPageInView(t *testing.T) {
	c := newTestController(t, WithRotationModel(transform.RotationQuadrant))
	if err := c.LoadFile(context.Background(), "tall.png", 0); err != nil {
		t.Fatal(err)
	}
	c.Rotate(1, true)
	m := c.Transforms()[0]
	h, w := c.ViewDimension()
	for _, pt := range [][2]float64{{0, 0}, {400, 0}, {0, 2000}, {400, 2000}} {
		x, y := m.Apply(pt[0], pt[1])
		if x < -1e-6 || y < -1e-6 || x > float64(w)+1e-6 || y > float64(h)+1e-6 {
			t.Fatalf("corner %v mapped outside the view to (%v, %v)", pt, x, y)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := newTestController(t, WithSizing(SizingActual))
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.LoadFile(ctx, "big.png", i%SlotCount)
			c.Pan(-i, -i)
			c.Rotate(1, i%2 == 0)
			c.SetViewDimension(400+i, 700+i)
			snap := c.Snapshot()
			if len(snap.Images) != len(snap.Transforms) {
				t.Errorf("snapshot lengths differ")
			}
		}(i)
	}
	wg.Wait()
}

func TestParseModes(t *testing.T) {
	for _, l := range Layouts {
		got, err := ParseLayout(l.Key())
		if err != nil || got != l {
			t.Errorf("ParseLayout(%q) = %v, %v", l.Key(), got, err)
		}
		if got, err := ParseLayout(l.String()); err != nil || got != l {
			t.Errorf("ParseLayout(%q) = %v, %v", l.String(), got, err)
		}
	}
	for _, s := range Sizings {
		got, err := ParseSizing(s.Key())
		if err != nil || got != s {
			t.Errorf("ParseSizing(%q) = %v, %v", s.Key(), got, err)
		}
	}
	if _, err := ParseLayout("spiral"); err == nil {
		t.Error("expected error for unknown layout")
	}
	if _, err := ParseSizing("stretch"); err == nil {
		t.Error("expected error for unknown sizing")
	}
}
