// Package skyview projects horizontal (altitude/azimuth) coordinates into a
// bounded polar display space and partitions objects into above- and
// below-horizon groups.
package skyview

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is returned when an altitude or azimuth is outside
// its valid range.
var ErrInvalidCoordinate = errors.New("invalid horizon coordinate")

// HorizonCoordinate is an observer-local horizontal position.
// Altitude in degrees in [-90, 90]; azimuth in degrees in [0, 360),
// measured clockwise from north.
type HorizonCoordinate struct {
	AltitudeDeg float64
	AzimuthDeg  float64
}

// Validate checks the coordinate ranges.
func (h HorizonCoordinate) Validate() error {
	if h.AltitudeDeg < -90 || h.AltitudeDeg > 90 || math.IsNaN(h.AltitudeDeg) {
		return fmt.Errorf("%w: altitude %.3f outside [-90, 90]", ErrInvalidCoordinate, h.AltitudeDeg)
	}
	if h.AzimuthDeg < 0 || h.AzimuthDeg >= 360 || math.IsNaN(h.AzimuthDeg) {
		return fmt.Errorf("%w: azimuth %.3f outside [0, 360)", ErrInvalidCoordinate, h.AzimuthDeg)
	}
	return nil
}

// Region names the horizon partition a point is routed to.
type Region string

const (
	RegionAbove Region = "above"
	RegionBelow Region = "below"
)

// PolarPoint is a display-space position. Angle is the azimuth in radians
// (clockwise-from-north convention preserved; the renderer configures the
// compass orientation). Radius = 90 - |altitude|, so the zenith maps to the
// plot center and the horizon to the edge; points below the horizon use the
// same radial scale.
type PolarPoint struct {
	AngleRad float64
	Radius   float64
}

// Project converts one horizon coordinate into a polar point.
func Project(h HorizonCoordinate) (PolarPoint, error) {
	if err := h.Validate(); err != nil {
		return PolarPoint{}, err
	}
	return PolarPoint{
		AngleRad: h.AzimuthDeg * math.Pi / 180,
		Radius:   90 - math.Abs(h.AltitudeDeg),
	}, nil
}

// PartitionOf returns the region for an altitude. The boundary is inclusive:
// altitude exactly 0 is above the horizon.
func PartitionOf(altitudeDeg float64) Region {
	if altitudeDeg >= 0 {
		return RegionAbove
	}
	return RegionBelow
}

// ObjectPoint is one object's projected position with its assigned region.
type ObjectPoint struct {
	Name   string
	Coord  HorizonCoordinate
	Point  PolarPoint
	Region Region
}

// ProjectAll projects every (object, coordinate) entry, all sampled at one
// shared instant. Map iteration order is not meaningful to the geometry, so
// results carry the object name rather than relying on position.
func ProjectAll(coords map[string]HorizonCoordinate) ([]ObjectPoint, error) {
	points := make([]ObjectPoint, 0, len(coords))
	for name, h := range coords {
		p, err := Project(h)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", name, err)
		}
		points = append(points, ObjectPoint{
			Name:   name,
			Coord:  h,
			Point:  p,
			Region: PartitionOf(h.AltitudeDeg),
		})
	}
	return points, nil
}
