// Package viz holds the configuration the reconstruction core hands to an
// external point cloud renderer. The core never drives a render loop; it
// only exposes these options alongside the finished geometry.
package viz

import (
	"fmt"
	"strings"
)

// Background selects the viewer's clear color.
type Background string

const (
	BackgroundDark  Background = "dark"
	BackgroundLight Background = "light"
)

// RGB returns the background clear color as normalized channels.
func (b Background) RGB() [3]float64 {
	if b == BackgroundLight {
		return [3]float64{1, 1, 1}
	}
	return [3]float64{0, 0, 0}
}

// ParseBackground parses the flag form of a Background.
func ParseBackground(s string) (Background, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark", "black", "":
		return BackgroundDark, nil
	case "light", "white":
		return BackgroundLight, nil
	default:
		return BackgroundDark, fmt.Errorf("invalid background %q: supported values are dark or light", s)
	}
}

// RenderOptions is the full configuration surface exposed to a viewer.
// Viewers hold and mutate their own copy (e.g. a key binding toggling the
// background); the core only supplies defaults.
type RenderOptions struct {
	Background   Background `json:"background"`
	PointSize    float64    `json:"point_size"`
	Lighting     bool       `json:"lighting"`
	ShowBackFace bool       `json:"show_back_face"`
}

// DefaultRenderOptions matches the historical viewer setup: dark
// background, slightly enlarged points, lighting on.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Background:   BackgroundDark,
		PointSize:    2.25,
		Lighting:     true,
		ShowBackFace: true,
	}
}

// ToggleBackground flips between dark and light, returning the new value.
func (o *RenderOptions) ToggleBackground() Background {
	if o.Background == BackgroundLight {
		o.Background = BackgroundDark
	} else {
		o.Background = BackgroundLight
	}
	return o.Background
}
