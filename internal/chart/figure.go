// Package chart defines the renderer contract: named geometric traces
// serialized as a JSON figure. The frontend (or any other renderer) owns all
// presentation concerns beyond what a trace carries; in particular it is
// responsible for orienting the polar compass (zero at north, clockwise),
// the projector only supplies angle values in radians.
package chart

import (
	"fmt"

	"github.com/qifengcheng/astroView/internal/orbit"
	"github.com/qifengcheng/astroView/internal/skyview"
)

// Trace types understood by the renderer.
const (
	TraceScatter3D    = "scatter3d"
	TraceScatterPolar = "scatterpolar"
)

// Trace modes.
const (
	ModeLines   = "lines"
	ModeMarkers = "markers"
)

// Marker holds point-marker styling.
type Marker struct {
	Size   int    `json:"size"`
	Color  string `json:"color"`
	Symbol string `json:"symbol,omitempty"`
}

// Trace is one named poly-line or marker set. 3D traces fill X/Y/Z; polar
// traces fill Theta (radians) and R, and name the panel they belong to.
type Trace struct {
	Name   string    `json:"name"`
	Type   string    `json:"type"`
	Mode   string    `json:"mode"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y,omitempty"`
	Z      []float64 `json:"z,omitempty"`
	Theta  []float64 `json:"theta,omitempty"`
	R      []float64 `json:"r,omitempty"`
	Panel  string    `json:"panel,omitempty"`
	Marker *Marker   `json:"marker,omitempty"`
}

// Panel describes one polar subplot.
type Panel struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Background string `json:"background"`
}

// Figure is the displayable artifact handed to the rendering layer.
type Figure struct {
	Title      string   `json:"title"`
	AxisTitles []string `json:"axis_titles,omitempty"`
	Panels     []Panel  `json:"panels,omitempty"`
	Traces     []Trace  `json:"traces"`
}

// OrbitFigure renders an assembled orbit view as exactly five traces: the
// two heliocentric orbit lines, the Sun marker at the origin, and the two
// start-of-year reference markers.
func OrbitFigure(objectID string, asm orbit.Assembly) *Figure {
	return &Figure{
		Title:      fmt.Sprintf("Orbit Around the Sun: Earth and %s", objectID),
		AxisTitles: []string{"X (AU)", "Y (AU)", "Z (AU)"},
		Traces: []Trace{
			{
				Name: "Earth Orbit",
				Type: TraceScatter3D,
				Mode: ModeLines,
				X:    asm.Earth.X, Y: asm.Earth.Y, Z: asm.Earth.Z,
			},
			{
				Name: fmt.Sprintf("%s Orbit", objectID),
				Type: TraceScatter3D,
				Mode: ModeLines,
				X:    asm.Body.X, Y: asm.Body.Y, Z: asm.Body.Z,
			},
			{
				Name: "Sun",
				Type: TraceScatter3D,
				Mode: ModeMarkers,
				X:    []float64{asm.Sun.X}, Y: []float64{asm.Sun.Y}, Z: []float64{asm.Sun.Z},
				Marker: &Marker{Size: 6, Color: "yellow"},
			},
			{
				Name: "Earth (Start of Year)",
				Type: TraceScatter3D,
				Mode: ModeMarkers,
				X:    []float64{asm.EarthRef.X}, Y: []float64{asm.EarthRef.Y}, Z: []float64{asm.EarthRef.Z},
				Marker: &Marker{Size: 6, Color: "blue", Symbol: "circle"},
			},
			{
				Name: fmt.Sprintf("%s (Start of Year)", objectID),
				Type: TraceScatter3D,
				Mode: ModeMarkers,
				X:    []float64{asm.BodyRef.X}, Y: []float64{asm.BodyRef.Y}, Z: []float64{asm.BodyRef.Z},
				Marker: &Marker{Size: 6, Color: "red", Symbol: "circle"},
			},
		},
	}
}

// SkyFigure renders projected sky points as a two-panel polar figure. Every
// object lands in the panel matching its partition; both panels share the
// same radial scale (0 at the zenith, 90 at the horizon).
func SkyFigure(obsCode, obsTime string, points []skyview.ObjectPoint, style skyview.Style) *Figure {
	fig := &Figure{
		Title: fmt.Sprintf("Sky View from Observatory %s – %s", obsCode, obsTime),
		Panels: []Panel{
			{Name: string(skyview.RegionAbove), Title: "Above Horizon", Background: "#f5faff"},
			{Name: string(skyview.RegionBelow), Title: "Below Horizon", Background: "#eaeaea"},
		},
	}

	size := style.MarkerSize
	if size <= 0 {
		size = 6
	}

	for _, p := range points {
		fig.Traces = append(fig.Traces, Trace{
			Name:   p.Name,
			Type:   TraceScatterPolar,
			Mode:   ModeMarkers,
			Theta:  []float64{p.Point.AngleRad},
			R:      []float64{p.Point.Radius},
			Panel:  string(p.Region),
			Marker: &Marker{Size: size, Color: style.ColorFor(p.Name), Symbol: "circle"},
		})
	}

	return fig
}
