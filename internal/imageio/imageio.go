// Package imageio decodes page images from disk.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Extensions lists the file extensions offered when browsing for pages.
var Extensions = []string{"jpg", "jpeg", "gif", "png"}

// ErrNotFile is returned when a path does not name a regular file.
var ErrNotFile = errors.New("not a regular file")

// Supported reports whether path carries one of Extensions.
func Supported(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Decode reads the image stored at path.
func Decode(path string) (image.Image, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotFile)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".gif") {
		img, err := decodeGIF(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// decodeGIF returns the first frame of a GIF drawn onto the logical screen.
// image.Decode only yields the first frame's own rectangle, which is smaller
// than the screen for many animated files. If the full decode fails the
// single-frame decoder is tried on the same data.
func decodeGIF(r io.ReadSeeker) (image.Image, error) {
	all, err := gif.DecodeAll(r)
	if err == nil && len(all.Image) > 0 {
		w, h := all.Config.Width, all.Config.Height
		first := all.Image[0]
		if w <= 0 || h <= 0 {
			w, h = first.Bounds().Max.X, first.Bounds().Max.Y
		}
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("gif: invalid dimensions %dx%d", w, h)
		}
		canvas := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(canvas, first.Bounds(), first, first.Bounds().Min, draw.Over)
		return canvas, nil
	}
	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	img, ferr := gif.Decode(r)
	if ferr != nil {
		if err != nil {
			return nil, errors.Join(err, ferr)
		}
		return nil, ferr
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("gif: invalid dimensions %dx%d", b.Dx(), b.Dy())
	}
	return img, nil
}

// Siblings lists the supported files in the directory containing path, sorted
// by name, and the index of path within that list (-1 when path itself is not
// supported).
func Siblings(path string) ([]string, int, error) {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, -1, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	idx := -1
	clean := filepath.Clean(path)
	for i, f := range files {
		if f == clean {
			idx = i
			break
		}
	}
	return files, idx, nil
}

// Step returns the supported file delta positions away from path in its
// directory without wrapping around. ok is false when there is no such file.
func Step(path string, delta int) (string, bool, error) {
	files, idx, err := Siblings(path)
	if err != nil {
		return "", false, err
	}
	if len(files) == 0 {
		return "", false, nil
	}
	if idx < 0 {
		if delta > 0 {
			return files[0], true, nil
		}
		return files[len(files)-1], true, nil
	}
	next := idx + delta
	if next < 0 || next >= len(files) {
		return "", false, nil
	}
	return files[next], true, nil
}
