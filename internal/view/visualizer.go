// Package view ties the providers, the assembler, and the projector together
// into the three public operations: raw heliocentric positions, the 3D orbit
// view, and the polar sky view.
//
// Collaborator calls are I/O-bound and independent, so each request fans out
// (the two orbit series in parallel, one remote query per sky object) and
// joins before any geometry is built. There is no partial-result mode: if
// any query fails the whole request fails and no figure is produced.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/qifengcheng/astroView/internal/chart"
	"github.com/qifengcheng/astroView/internal/ephemeris"
	"github.com/qifengcheng/astroView/internal/horizons"
	"github.com/qifengcheng/astroView/internal/orbit"
	"github.com/qifengcheng/astroView/internal/skyview"
	"github.com/qifengcheng/astroView/internal/timeaxis"
)

// RemoteSource is the remote query collaborator contract.
type RemoteSource interface {
	Vectors(ctx context.Context, target, idType string, epochs []float64) (orbit.PositionSeries, error)
	VectorsRange(ctx context.Context, target, idType string, start, stop timeaxis.Instant, step string) (orbit.PositionSeries, error)
	HorizonCoordinates(ctx context.Context, target, obsCode string, epoch float64) (skyview.HorizonCoordinate, error)
}

// Visualizer orchestrates the local and remote providers into renderable
// figures. Both providers are injected at construction; the Visualizer owns
// no I/O of its own.
type Visualizer struct {
	local  ephemeris.Source
	remote RemoteSource
	style  skyview.Style
	logger *slog.Logger
}

// New creates a Visualizer.
func New(local ephemeris.Source, remote RemoteSource, style skyview.Style, logger *slog.Logger) *Visualizer {
	return &Visualizer{
		local:  local,
		remote: remote,
		style:  style,
		logger: logger,
	}
}

// GetHeliocentricPosition converts each date to an epoch, queries the remote
// service, and returns the three component sequences exactly as the provider
// reported them, in astronomical units.
func (v *Visualizer) GetHeliocentricPosition(ctx context.Context, target string, dates [][3]int, idType string) (x, y, z []float64, err error) {
	if idType == "" {
		idType = horizons.IDTypeSmallBody
	}

	axis, err := timeaxis.BuildFromDates(dates)
	if err != nil {
		return nil, nil, nil, err
	}

	series, err := v.remote.Vectors(ctx, target, idType, axis.JulianDays())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("querying %s: %w", target, err)
	}
	return series.X, series.Y, series.Z, nil
}

// OrbitView fetches Earth's series from the local dataset and the target's
// from the remote service over the same caller-specified window, assembles
// both into heliocentric form, and returns the five-trace orbit figure.
//
// The expected sample count comes from the window, never from whichever
// series the remote query happens to return: a response of any other length
// is orbit.ErrSeriesLengthMismatch.
func (v *Visualizer) OrbitView(ctx context.Context, objectID string, start, stop timeaxis.Instant, stepDays int) (*chart.Figure, error) {
	if stepDays < 1 {
		return nil, fmt.Errorf("%w: step must be at least one day, got %d", timeaxis.ErrInvalidDate, stepDays)
	}

	axis, err := windowAxis(start, stop, stepDays)
	if err != nil {
		return nil, err
	}

	var (
		wg        sync.WaitGroup
		earthRaw  orbit.PositionSeries
		bodyRaw   orbit.PositionSeries
		earthErr  error
		remoteErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		earthRaw, earthErr = v.local.ApparentPosition(ctx, ephemeris.Earth, ephemeris.Sun, axis)
	}()
	go func() {
		defer wg.Done()
		bodyRaw, remoteErr = v.remote.VectorsRange(ctx, objectID, horizons.IDTypeSmallBody, start, stop, fmt.Sprintf("%dd", stepDays))
	}()
	wg.Wait()

	if earthErr != nil {
		return nil, fmt.Errorf("local ephemeris: %w", earthErr)
	}
	if remoteErr != nil {
		return nil, fmt.Errorf("querying %s: %w", objectID, remoteErr)
	}

	if bodyRaw.Len() != len(axis) {
		return nil, fmt.Errorf("%w: requested %d samples, remote returned %d",
			orbit.ErrSeriesLengthMismatch, len(axis), bodyRaw.Len())
	}

	asm, err := orbit.Assemble(earthRaw, bodyRaw)
	if err != nil {
		return nil, err
	}

	v.logger.Debug("orbit view assembled",
		"component", "view",
		"object", objectID,
		"samples", len(axis),
	)

	return chart.OrbitFigure(objectID, asm), nil
}

// SkyView queries every object's horizon coordinates at one shared instant,
// projects them into polar display space, and returns the two-panel figure.
// Queries fan out with a bounded number in flight; results join before
// projection, and the first failure fails the whole request.
func (v *Visualizer) SkyView(ctx context.Context, objects []string, obsCode string, at timeaxis.Instant) (*chart.Figure, error) {
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no objects requested", skyview.ErrInvalidCoordinate)
	}
	if obsCode == "" {
		obsCode = "500"
	}

	epoch := at.JulianDay()
	coords := make([]skyview.HorizonCoordinate, len(objects))
	errs := make([]error, len(objects))

	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, name := range objects {
		wg.Add(1)
		go func(idx int, obj string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}

			coords[idx], errs[idx] = v.remote.HorizonCoordinates(ctx, obj, obsCode, epoch)
		}(i, name)
	}
	wg.Wait()

	byName := make(map[string]skyview.HorizonCoordinate, len(objects))
	for i, name := range objects {
		if errs[i] != nil {
			return nil, fmt.Errorf("querying %s: %w", name, errs[i])
		}
		byName[name] = coords[i]
	}

	points, err := skyview.ProjectAll(byName)
	if err != nil {
		return nil, err
	}
	// Deterministic trace order regardless of map iteration.
	sort.Slice(points, func(a, b int) bool { return points[a].Name < points[b].Name })

	v.logger.Debug("sky view projected",
		"component", "view",
		"objects", len(points),
		"obs_code", obsCode,
	)

	return chart.SkyFigure(obsCode, at.String(), points, v.style), nil
}

// windowAxis derives the local-dataset sampling instants from the
// caller-specified window: start through stop inclusive, stride stepDays.
func windowAxis(start, stop timeaxis.Instant, stepDays int) (timeaxis.TimeAxis, error) {
	startT := start.Time()
	stopT := stop.Time()
	if stopT.Before(startT) {
		return nil, fmt.Errorf("%w: stop %s before start %s", timeaxis.ErrInvalidDate, stop, start)
	}

	var dates [][3]int
	for t := startT; !t.After(stopT); t = t.AddDate(0, 0, stepDays) {
		dates = append(dates, [3]int{t.Year(), int(t.Month()), t.Day()})
	}
	return timeaxis.BuildFromDates(dates)
}
