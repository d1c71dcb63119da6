package imageio

import (
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestDecodePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	writePNG(t, path, 16, 9)
	img, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(16, 9) {
		t.Fatalf("size = %v", got)
	}
}

func TestDecodeGIFUsesLogicalScreen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	frame := image.NewPaletted(image.Rect(2, 3, 6, 7), palette.Plan9)
	frame.SetColorIndex(2, 3, 5)
	second := image.NewPaletted(image.Rect(0, 0, 20, 10), palette.Plan9)
	anim := &gif.GIF{
		Image:  []*image.Paletted{frame, second},
		Delay:  []int{10, 10},
		Config: image.Config{ColorModel: color.Palette(palette.Plan9), Width: 20, Height: 10},
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	img, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 20, 10) {
		t.Fatalf("bounds = %v, want logical screen", got)
	}
}

func TestDecodeFailures(t *testing.T) {
	dir := t.TempDir()
	if _, err := Decode(filepath.Join(dir, "missing.png")); err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: got %v", err)
	}
	if _, err := Decode(dir); !errors.Is(err, ErrNotFile) {
		t.Fatalf("directory: got %v", err)
	}
	corrupt := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(corrupt, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(corrupt); err == nil {
		t.Fatal("expected decode error for corrupt data")
	}
	badGIF := filepath.Join(dir, "bad.gif")
	if err := os.WriteFile(badGIF, []byte("GIF89a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(badGIF); err == nil {
		t.Fatal("expected decode error for truncated gif")
	}
}

func TestSupported(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jpg": true, "b.JPEG": true, "c.gif": true, "d.Png": true,
		"e.webp": false, "f.txt": false, "noext": false,
	} {
		if got := Supported(name); got != want {
			t.Errorf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSiblingsAndStep(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"02.png", "01.png", "03.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, idx, err := Siblings(filepath.Join(dir, "02.png"))
	if err != nil {
		t.Fatalf("Siblings: %v", err)
	}
	want := []string{filepath.Join(dir, "01.png"), filepath.Join(dir, "02.png"), filepath.Join(dir, "03.jpg")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
	if idx != 1 {
		t.Fatalf("idx = %d, want 1", idx)
	}

	next, ok, err := Step(filepath.Join(dir, "02.png"), 1)
	if err != nil || !ok || next != want[2] {
		t.Fatalf("Step +1 = %q, %v, %v", next, ok, err)
	}
	if _, ok, _ := Step(filepath.Join(dir, "03.jpg"), 1); ok {
		t.Fatal("Step past the last file should report no file")
	}
	first, ok, _ := Step(filepath.Join(dir, "notes.txt"), 1)
	if !ok || first != want[0] {
		t.Fatalf("Step from unsupported file = %q, %v", first, ok)
	}
}
