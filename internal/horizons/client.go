// Package horizons is the remote small-body query adapter. It speaks the
// JPL Horizons API (JSON envelope around a fixed-width/CSV report body) and
// returns either Sun-relative raw position vectors over a set of epochs or
// horizontal (altitude/azimuth) coordinates for one epoch.
//
// The client performs no retries and no caching; failures surface to the
// caller with their original cause attached.
package horizons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qifengcheng/astroView/internal/metrics"
	"github.com/qifengcheng/astroView/internal/orbit"
	"github.com/qifengcheng/astroView/internal/skyview"
	"github.com/qifengcheng/astroView/internal/timeaxis"
)

const defaultBaseURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

// ErrUnavailable is returned for network failures, non-200 responses, and
// responses the report parser cannot make sense of.
var ErrUnavailable = errors.New("horizons service unavailable")

// ErrUnknownTarget is returned when the service reports no match for an
// identifier.
var ErrUnknownTarget = errors.New("unknown target")

// IDType selects how the target identifier is interpreted, mirroring the
// service's small-body/major-body lookup split.
const (
	IDTypeSmallBody   = "smallbody"
	IDTypeMajorBody   = "majorbody"
	IDTypeDesignation = "designation"
)

// Client queries the Horizons API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given API base URL. An empty URL uses
// the public JPL endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Vectors returns Sun-relative raw position vectors for the target at the
// given Julian-day epochs, in astronomical units.
func (c *Client) Vectors(ctx context.Context, target, idType string, epochs []float64) (orbit.PositionSeries, error) {
	if len(epochs) == 0 {
		return orbit.PositionSeries{}, fmt.Errorf("%w: no epochs requested", ErrUnavailable)
	}

	tlist := make([]string, len(epochs))
	for n, jd := range epochs {
		tlist[n] = strconv.FormatFloat(jd, 'f', 8, 64)
	}

	params := c.vectorParams(target, idType)
	params.Set("TLIST", quote(strings.Join(tlist, ",")))

	report, err := c.fetch(ctx, "vectors", params)
	if err != nil {
		return orbit.PositionSeries{}, err
	}
	return parseVectorReport(report)
}

// VectorsRange returns Sun-relative raw vectors over a start/stop window
// sampled at the given step (e.g. "1d").
func (c *Client) VectorsRange(ctx context.Context, target, idType string, start, stop timeaxis.Instant, step string) (orbit.PositionSeries, error) {
	params := c.vectorParams(target, idType)
	params.Set("START_TIME", quote(start.String()))
	params.Set("STOP_TIME", quote(stop.String()))
	params.Set("STEP_SIZE", quote(step))

	report, err := c.fetch(ctx, "vectors", params)
	if err != nil {
		return orbit.PositionSeries{}, err
	}
	return parseVectorReport(report)
}

// HorizonCoordinates returns the target's altitude and azimuth as seen from
// the given MPC observatory code at one Julian-day epoch, in degrees.
func (c *Client) HorizonCoordinates(ctx context.Context, target, obsCode string, epoch float64) (skyview.HorizonCoordinate, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", quote(target))
	params.Set("OBJ_DATA", quote("NO"))
	params.Set("MAKE_EPHEM", quote("YES"))
	params.Set("EPHEM_TYPE", quote("OBSERVER"))
	params.Set("CENTER", quote(obsCode))
	params.Set("QUANTITIES", quote("4")) // apparent azimuth and elevation
	params.Set("ANG_FORMAT", quote("DEG"))
	params.Set("CSV_FORMAT", quote("YES"))
	params.Set("TLIST", quote(strconv.FormatFloat(epoch, 'f', 8, 64)))

	report, err := c.fetch(ctx, "observer", params)
	if err != nil {
		return skyview.HorizonCoordinate{}, err
	}
	return parseObserverReport(report)
}

func (c *Client) vectorParams(target, idType string) url.Values {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", quote(command(target, idType)))
	params.Set("OBJ_DATA", quote("NO"))
	params.Set("MAKE_EPHEM", quote("YES"))
	params.Set("EPHEM_TYPE", quote("VECTORS"))
	params.Set("CENTER", quote("@sun"))
	params.Set("VEC_TABLE", quote("2"))
	params.Set("CSV_FORMAT", quote("YES"))
	return params
}

// fetch performs one API round trip and returns the plain-text report from
// the JSON envelope.
func (c *Client) fetch(ctx context.Context, kind string, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncHorizonsRequest(kind, "error")
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.IncHorizonsRequest(kind, "error")
		return "", fmt.Errorf("%w: unexpected status code %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncHorizonsRequest(kind, "error")
		return "", fmt.Errorf("%w: reading response body: %v", ErrUnavailable, err)
	}

	var envelope struct {
		Result string `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.IncHorizonsRequest(kind, "error")
		return "", fmt.Errorf("%w: decoding response envelope: %v", ErrUnavailable, err)
	}
	if envelope.Error != "" {
		metrics.IncHorizonsRequest(kind, "error")
		return "", fmt.Errorf("%w: %s", ErrUnavailable, envelope.Error)
	}

	if isUnknownTarget(envelope.Result) {
		metrics.IncHorizonsRequest(kind, "unknown_target")
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, firstLine(envelope.Result))
	}

	metrics.IncHorizonsRequest(kind, "ok")
	return envelope.Result, nil
}

// command renders the COMMAND value. Small-body and designation lookups take
// a trailing semicolon so the service searches the small-body database.
func command(target, idType string) string {
	switch idType {
	case IDTypeSmallBody, IDTypeDesignation, "":
		if !strings.HasSuffix(target, ";") {
			return target + ";"
		}
	}
	return target
}

func quote(v string) string {
	return "'" + v + "'"
}

func isUnknownTarget(result string) bool {
	return strings.Contains(result, "No matches found") ||
		strings.Contains(result, "Unknown target") ||
		strings.Contains(result, "Cannot interpret")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
