package appstate

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/theme"
)

func TestStatusText(t *testing.T) {
	c := controller.New()
	if got := statusText(c.Snapshot()); got != "no page | Single page | Fit height and width | rotation 0" {
		t.Fatalf("empty status %q", got)
	}
	if err := c.SetImage(0, image.NewRGBA(image.Rect(0, 0, 1600, 1200)), "/tmp/vol1/page01.png"); err != nil {
		t.Fatal(err)
	}
	want := "page01.png | Single page | Fit height and width | rotation 0 | 1600x1200 at 38%"
	if got := statusText(c.Snapshot()); got != want {
		t.Fatalf("status %q, want %q", got, want)
	}
}

func TestViewRectLeavesRoomForChrome(t *testing.T) {
	r := viewRect(800, 500)
	if r != image.Rect(0, menuHeight, 800, 500-statusHeight) {
		t.Fatalf("viewRect = %v", r)
	}
	if r := viewRect(100, 10); r.Dy() != 1 {
		t.Fatalf("tiny window should keep a one pixel view, got %v", r)
	}
}

func framePaintState(c *controller.Controller) paintState {
	h, w := c.ViewDimension()
	return paintState{
		width:  w,
		height: h + menuHeight + statusHeight,
		snap:   c.Snapshot(),
		menu:   menuView{menus: buildMenus(c.Layout(), c.Sizing()), open: -1, hoverTitle: -1, hoverItem: -1},
		theme:  theme.Default(),
	}
}

func TestComposeFramePlacesPageInView(t *testing.T) {
	c := controller.New(controller.WithViewDimension(45, 80))
	red := color.RGBA{R: 255, A: 255}
	if err := c.SetImage(0, solid(160, 120, red), "red.png"); err != nil {
		t.Fatal(err)
	}
	st := framePaintState(c)
	dst := image.NewRGBA(image.Rect(0, 0, st.width, st.height))
	if !composeFrame(context.Background(), dst, st) {
		t.Fatalf("frame was not completed")
	}

	th := theme.Default()
	// The page is scaled to 60x45 and centred: x 10..70 below the menu bar.
	if got := dst.RGBAAt(40, menuHeight+22); got != red {
		t.Fatalf("page pixel = %v, want %v", got, red)
	}
	if got := dst.RGBAAt(2, menuHeight+22); got != th.ViewBackground {
		t.Fatalf("margin pixel = %v, want %v", got, th.ViewBackground)
	}
	if got := dst.RGBAAt(st.width-1, 1); got != th.MenuBackground {
		t.Fatalf("menu pixel = %v, want %v", got, th.MenuBackground)
	}
	if got := dst.RGBAAt(st.width-1, st.height-statusHeight); got != th.StatusBackground {
		t.Fatalf("status pixel = %v, want %v", got, th.StatusBackground)
	}
}

func TestComposeFrameCancelled(t *testing.T) {
	c := controller.New(controller.WithViewDimension(20, 20))
	st := framePaintState(c)
	dst := image.NewRGBA(image.Rect(0, 0, st.width, st.height))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if composeFrame(ctx, dst, st) {
		t.Fatalf("cancelled frame reported complete")
	}
}
