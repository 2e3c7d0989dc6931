package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/qifengcheng/astroView/internal/ephemeris"
	"github.com/qifengcheng/astroView/internal/horizons"
	"github.com/qifengcheng/astroView/internal/orbit"
	"github.com/qifengcheng/astroView/internal/skyview"
	"github.com/qifengcheng/astroView/internal/timeaxis"
)

const maxSkyObjects = 50

// positionsResponse carries raw heliocentric vectors for a set of dates.
type positionsResponse struct {
	Target string    `json:"target"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Z      []float64 `json:"z"`
}

// positionsHandler serves GET /api/v1/positions/{target}?dates=YYYY-MM-DD,...&id_type=smallbody
func positionsHandler(logger *slog.Logger, viewer Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.PathValue("target")

		dates, err := parseDateList(r.URL.Query().Get("dates"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		idType := r.URL.Query().Get("id_type")
		x, y, z, err := viewer.GetHeliocentricPosition(r.Context(), target, dates, idType)
		if err != nil {
			writeFailure(w, logger, "positions", err)
			return
		}

		writeJSON(w, http.StatusOK, positionsResponse{Target: target, X: x, Y: y, Z: z})
	}
}

// orbitHandler serves GET /api/v1/orbits/{target}?start=2025-01-01&stop=2025-12-31&step=1d
func orbitHandler(logger *slog.Logger, viewer Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.PathValue("target")
		q := r.URL.Query()

		start, err := parseDate(valueOr(q.Get("start"), "2025-01-01"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		stop, err := parseDate(valueOr(q.Get("stop"), "2025-12-31"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		stepDays, err := parseStep(valueOr(q.Get("step"), "1d"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		fig, err := viewer.OrbitView(r.Context(), target, start, stop, stepDays)
		if err != nil {
			writeFailure(w, logger, "orbit", err)
			return
		}
		writeJSON(w, http.StatusOK, fig)
	}
}

// skyviewHandler serves GET /api/v1/skyview?objects=Sun,301&obs_code=500&time=2025-08-05T10:00
func skyviewHandler(logger *slog.Logger, viewer Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		objects := splitList(q.Get("objects"))
		if len(objects) == 0 {
			writeError(w, http.StatusBadRequest, errors.New("objects parameter is required"))
			return
		}
		if len(objects) > maxSkyObjects {
			writeError(w, http.StatusBadRequest, fmt.Errorf("at most %d objects per request, got %d", maxSkyObjects, len(objects)))
			return
		}

		obsCode := valueOr(q.Get("obs_code"), "500")

		at, err := parseDateTime(q.Get("time"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		fig, err := viewer.SkyView(r.Context(), objects, obsCode, at)
		if err != nil {
			writeFailure(w, logger, "skyview", err)
			return
		}
		writeJSON(w, http.StatusOK, fig)
	}
}

// writeFailure maps domain errors onto HTTP status codes. Provider failures
// surface as 502 since the service is a gateway to the two data sources.
func writeFailure(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var status int
	switch {
	case errors.Is(err, timeaxis.ErrInvalidDate), errors.Is(err, skyview.ErrInvalidCoordinate):
		status = http.StatusBadRequest
	case errors.Is(err, horizons.ErrUnknownTarget):
		status = http.StatusNotFound
	case errors.Is(err, orbit.ErrSeriesLengthMismatch),
		errors.Is(err, horizons.ErrUnavailable),
		errors.Is(err, ephemeris.ErrUnavailable):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		logger.Error("request failed", "component", "api", "op", op, "error", err)
	}
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseDate parses "YYYY-MM-DD" into a calendar triple without accepting
// time.Parse's normalization of out-of-range components.
func parseDate(s string) (timeaxis.Instant, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return timeaxis.Instant{}, fmt.Errorf("%w: %q, want YYYY-MM-DD", timeaxis.ErrInvalidDate, s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return timeaxis.Instant{}, fmt.Errorf("%w: %q, want YYYY-MM-DD", timeaxis.ErrInvalidDate, s)
		}
		nums[i] = n
	}
	return timeaxis.NewInstant(nums[0], nums[1], nums[2])
}

// parseDateTime parses "YYYY-MM-DDTHH:MM" (a space also separates date and
// time, matching the upstream service's format).
func parseDateTime(s string) (timeaxis.Instant, error) {
	if s == "" {
		return timeaxis.Instant{}, fmt.Errorf("%w: time parameter is required", timeaxis.ErrInvalidDate)
	}

	sep := "T"
	if !strings.Contains(s, "T") {
		sep = " "
	}
	datePart, timePart, hasTime := strings.Cut(s, sep)

	date, err := parseDate(datePart)
	if err != nil {
		return timeaxis.Instant{}, err
	}
	if !hasTime || timePart == "" {
		return date, nil
	}

	hm := strings.Split(timePart, ":")
	if len(hm) != 2 {
		return timeaxis.Instant{}, fmt.Errorf("%w: time of day %q, want HH:MM", timeaxis.ErrInvalidDate, timePart)
	}
	hour, err1 := strconv.Atoi(hm[0])
	minute, err2 := strconv.Atoi(hm[1])
	if err1 != nil || err2 != nil {
		return timeaxis.Instant{}, fmt.Errorf("%w: time of day %q, want HH:MM", timeaxis.ErrInvalidDate, timePart)
	}
	return timeaxis.NewInstantAt(date.Year, date.Month, date.Day, hour, minute)
}

func parseDateList(v string) ([][3]int, error) {
	items := splitList(v)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: dates parameter is required", timeaxis.ErrInvalidDate)
	}
	dates := make([][3]int, len(items))
	for i, item := range items {
		inst, err := parseDate(item)
		if err != nil {
			return nil, err
		}
		dates[i] = [3]int{inst.Year, inst.Month, inst.Day}
	}
	return dates, nil
}

// parseStep parses a day-granularity step like "1d" or a bare day count.
func parseStep(s string) (int, error) {
	s = strings.TrimSuffix(strings.ToLower(s), "d")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: step %q, want a positive day count like 1d", timeaxis.ErrInvalidDate, s)
	}
	return n, nil
}
