package horizons

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/qifengcheng/astroView/internal/orbit"
	"github.com/qifengcheng/astroView/internal/skyview"
)

// Report data rows sit between $$SOE and $$EOE marker lines.
const (
	startOfEphem = "$$SOE"
	endOfEphem   = "$$EOE"
)

// dataLines extracts the CSV rows between the ephemeris markers.
func dataLines(report string) ([]string, error) {
	scanner := bufio.NewScanner(strings.NewReader(report))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	inData := false
	sawStart := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == startOfEphem:
			inData = true
			sawStart = true
		case line == endOfEphem:
			inData = false
		case inData && line != "":
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanning report: %v", ErrUnavailable, err)
	}
	if !sawStart {
		return nil, fmt.Errorf("%w: report contains no ephemeris block", ErrUnavailable)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: ephemeris block is empty", ErrUnavailable)
	}
	return lines, nil
}

// parseVectorReport reads a CSV vector table (VEC_TABLE=2). Each row is
//
//	JDTDB, calendar date, X, Y, Z, VX, VY, VZ,
//
// with positions in AU. Only X/Y/Z are consumed.
func parseVectorReport(report string) (orbit.PositionSeries, error) {
	lines, err := dataLines(report)
	if err != nil {
		return orbit.PositionSeries{}, err
	}

	series := orbit.PositionSeries{
		X: make([]float64, 0, len(lines)),
		Y: make([]float64, 0, len(lines)),
		Z: make([]float64, 0, len(lines)),
	}

	for n, line := range lines {
		fields := strings.Split(line, ",")
		if len(fields) < 5 {
			return orbit.PositionSeries{}, fmt.Errorf("%w: vector row %d has %d fields", ErrUnavailable, n, len(fields))
		}

		var xyz [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[2+k]), 64)
			if err != nil {
				return orbit.PositionSeries{}, fmt.Errorf("%w: vector row %d column %d: %v", ErrUnavailable, n, 2+k, err)
			}
			xyz[k] = v
		}
		series.X = append(series.X, xyz[0])
		series.Y = append(series.Y, xyz[1])
		series.Z = append(series.Z, xyz[2])
	}

	return series, nil
}

// parseObserverReport reads a CSV observer table requested with
// QUANTITIES=4 (apparent azimuth and elevation). Rows carry the date, the
// solar/lunar presence flag columns, then azimuth and elevation in degrees;
// the flag columns vary, so the azimuth/elevation pair is taken as the last
// two numeric fields of the row.
func parseObserverReport(report string) (skyview.HorizonCoordinate, error) {
	lines, err := dataLines(report)
	if err != nil {
		return skyview.HorizonCoordinate{}, err
	}

	// One epoch per request: a single data row is expected.
	fields := strings.Split(lines[0], ",")
	var numeric []float64
	for _, f := range fields[1:] { // skip the calendar-date column
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			continue
		}
		numeric = append(numeric, v)
	}
	if len(numeric) < 2 {
		return skyview.HorizonCoordinate{}, fmt.Errorf("%w: observer row has no azimuth/elevation pair: %q", ErrUnavailable, lines[0])
	}

	coord := skyview.HorizonCoordinate{
		AzimuthDeg:  numeric[len(numeric)-2],
		AltitudeDeg: numeric[len(numeric)-1],
	}
	if err := coord.Validate(); err != nil {
		return skyview.HorizonCoordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return coord, nil
}
