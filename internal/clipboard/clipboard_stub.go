//go:build !windows && !linux && !freebsd && !openbsd && !netbsd && !dragonfly && !(darwin && cgo)

package clipboard

import (
	"errors"
	"image"
)

var errUnsupported = errors.New("clipboard image operations are not supported on this platform")

// WriteImage is unsupported on this platform.
func WriteImage(image.Image) error { return errUnsupported }

// ReadImage is unsupported on this platform.
func ReadImage() (image.Image, error) { return nil, errUnsupported }
