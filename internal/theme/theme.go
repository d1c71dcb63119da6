// Package theme holds the colours used to draw the viewer chrome.
package theme

import (
	"image/color"
	"reflect"
)

// Theme defines the colour palette for the reader window.
type Theme struct {
	Name string

	// View area
	ViewBackground color.RGBA
	PageShadow     color.RGBA

	// Menu bar
	MenuBackground color.RGBA
	MenuText       color.RGBA
	MenuHover      color.RGBA
	MenuActive     color.RGBA
	MenuActiveText color.RGBA
	MenuBorder     color.RGBA

	// Drop-down entries
	ItemBackground color.RGBA
	ItemHover      color.RGBA
	ItemText       color.RGBA

	// Status line and transient messages
	StatusBackground  color.RGBA
	StatusText        color.RGBA
	MessageBackground color.RGBA
	MessageText       color.RGBA
	ErrorText         color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		ViewBackground:    color.RGBA{96, 96, 96, 255},
		PageShadow:        color.RGBA{0, 0, 0, 140},
		MenuBackground:    color.RGBA{220, 220, 220, 255},
		MenuText:          color.RGBA{0, 0, 0, 255},
		MenuHover:         color.RGBA{200, 200, 200, 255},
		MenuActive:        color.RGBA{60, 100, 180, 255},
		MenuActiveText:    color.RGBA{255, 255, 255, 255},
		MenuBorder:        color.RGBA{0, 0, 0, 255},
		ItemBackground:    color.RGBA{235, 235, 235, 255},
		ItemHover:         color.RGBA{190, 205, 230, 255},
		ItemText:          color.RGBA{0, 0, 0, 255},
		StatusBackground:  color.RGBA{220, 220, 220, 255},
		StatusText:        color.RGBA{0, 0, 0, 255},
		MessageBackground: color.RGBA{255, 255, 255, 230},
		MessageText:       color.RGBA{0, 0, 0, 255},
		ErrorText:         color.RGBA{180, 0, 0, 255},
	}
}

// ColorFields returns the names of the colour fields in declaration order.
func ColorFields() []string {
	typ := reflect.TypeOf(Theme{})
	rgba := reflect.TypeOf(color.RGBA{})
	var names []string
	for i := 0; i < typ.NumField(); i++ {
		if f := typ.Field(i); f.Type == rgba {
			names = append(names, f.Name)
		}
	}
	return names
}

// Color returns the colour stored in the named field.
func (t *Theme) Color(field string) (color.RGBA, bool) {
	f := reflect.ValueOf(t).Elem().FieldByName(field)
	if !f.IsValid() {
		return color.RGBA{}, false
	}
	c, ok := f.Interface().(color.RGBA)
	return c, ok
}
