// Package ephemeris wraps the locally stored JPL development ephemeris.
// The binary dataset (de405.bin / de421.bin style) is opened once through an
// explicitly-owned Handle and shared read-only by every adapter built on it.
package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mshafiee/jpleph"

	"github.com/qifengcheng/astroView/internal/orbit"
	"github.com/qifengcheng/astroView/internal/timeaxis"
)

// ErrUnavailable is returned when the local dataset cannot be opened or read.
var ErrUnavailable = errors.New("local ephemeris unavailable")

// Body identifies a solar-system body in the local dataset.
type Body int

const (
	Mercury Body = Body(jpleph.Mercury)
	Venus   Body = Body(jpleph.Venus)
	Earth   Body = Body(jpleph.Earth)
	Mars    Body = Body(jpleph.Mars)
	Jupiter Body = Body(jpleph.Jupiter)
	Saturn  Body = Body(jpleph.Saturn)
	Uranus  Body = Body(jpleph.Uranus)
	Neptune Body = Body(jpleph.Neptune)
	Pluto   Body = Body(jpleph.Pluto)
	Moon    Body = Body(jpleph.Moon)
	Sun     Body = Body(jpleph.Sun)
)

// Source is the local-dataset collaborator contract: the apparent position
// of target as seen from observer at every instant on the axis,
// observer-relative, in astronomical units.
type Source interface {
	ApparentPosition(ctx context.Context, observer, target Body, axis timeaxis.TimeAxis) (orbit.PositionSeries, error)
}

// Handle owns the process-wide ephemeris file. The file is opened lazily on
// first use and reused across all lookups; construction never touches disk,
// so a Handle can be built unconditionally at startup.
type Handle struct {
	path string

	once sync.Once
	eph  *jpleph.Ephemeris
	err  error
}

// NewHandle creates a Handle for the given ephemeris file path.
func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

// open returns the shared ephemeris, opening the file on first call.
func (h *Handle) open() (*jpleph.Ephemeris, error) {
	h.once.Do(func() {
		eph, err := jpleph.NewEphemeris(h.path, false)
		if err != nil {
			h.err = fmt.Errorf("%w: opening %s: %v", ErrUnavailable, h.path, err)
			return
		}
		h.eph = eph
	})
	return h.eph, h.err
}

// Close releases the ephemeris file if it was ever opened.
func (h *Handle) Close() error {
	if h.eph == nil {
		return nil
	}
	return h.eph.Close()
}

// JPL adapts a Handle to the Source contract.
type JPL struct {
	handle *Handle
}

// NewJPL creates the adapter. The handle is owned by the caller and may be
// shared with other adapters.
func NewJPL(handle *Handle) *JPL {
	return &JPL{handle: handle}
}

// ApparentPosition implements Source by interpolating the dataset at every
// instant on the axis. Positions are returned relative to the observer body.
func (j *JPL) ApparentPosition(ctx context.Context, observer, target Body, axis timeaxis.TimeAxis) (orbit.PositionSeries, error) {
	eph, err := j.handle.open()
	if err != nil {
		return orbit.PositionSeries{}, err
	}

	series := orbit.PositionSeries{
		X: make([]float64, len(axis)),
		Y: make([]float64, len(axis)),
		Z: make([]float64, len(axis)),
	}

	for n, inst := range axis {
		if err := ctx.Err(); err != nil {
			return orbit.PositionSeries{}, err
		}

		pos, _, err := eph.CalculatePV(inst.JulianDay(), jpleph.Planet(target), jpleph.CenterBody(observer), false)
		if err != nil {
			return orbit.PositionSeries{}, fmt.Errorf("%w: position of body %d at JD %.5f: %v", ErrUnavailable, target, inst.JulianDay(), err)
		}
		series.X[n] = pos.X
		series.Y[n] = pos.Y
		series.Z[n] = pos.Z
	}

	return series, nil
}
