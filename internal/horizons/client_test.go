package horizons

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qifengcheng/astroView/internal/timeaxis"
)

const vectorReport = `*******************************************************************************
Ephemeris / API_USER ...
*******************************************************************************
JDTDB, Calendar Date (TDB), X, Y, Z, VX, VY, VZ,
$$SOE
2460676.500000000, A.D. 2025-Jan-01 00:00:00.0000, -1.500000000000000E+00,  2.500000000000000E+00,  5.000000000000000E-01, -1.0E-02,  2.0E-03,  1.0E-04,
2460677.500000000, A.D. 2025-Jan-02 00:00:00.0000, -1.400000000000000E+00,  2.600000000000000E+00,  4.000000000000000E-01, -1.0E-02,  2.0E-03,  1.0E-04,
$$EOE
*******************************************************************************
`

const observerReport = `*******************************************************************************
 Date__(UT)__HR:MN, , , Azi____(a-app), Elev___(a-app),
$$SOE
 2025-Aug-05 10:00, , ,       120.1234,        30.5678,
$$EOE
*******************************************************************************
`

func envelope(result string) string {
	b, _ := json.Marshal(map[string]string{"result": result})
	return string(b)
}

// apiServer returns a test server speaking the JSON envelope and records the
// last query received.
func apiServer(t *testing.T, result string, lastQuery *map[string][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastQuery != nil {
			*lastQuery = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(envelope(result)))
	}))
}

func TestVectorsParsesSeries(t *testing.T) {
	var query map[string][]string
	server := apiServer(t, vectorReport, &query)
	defer server.Close()

	client := NewClient(server.URL)
	series, err := client.Vectors(context.Background(), "Ceres", IDTypeSmallBody, []float64{2460676.5, 2460677.5})
	if err != nil {
		t.Fatalf("Vectors: %v", err)
	}

	if series.Len() != 2 {
		t.Fatalf("series length = %d, want 2", series.Len())
	}
	wantX := []float64{-1.5, -1.4}
	wantY := []float64{2.5, 2.6}
	wantZ := []float64{0.5, 0.4}
	for n := 0; n < 2; n++ {
		if series.X[n] != wantX[n] || series.Y[n] != wantY[n] || series.Z[n] != wantZ[n] {
			t.Errorf("sample %d = (%v, %v, %v), want (%v, %v, %v)",
				n, series.X[n], series.Y[n], series.Z[n], wantX[n], wantY[n], wantZ[n])
		}
	}

	// Small-body lookups get the trailing semicolon; raw vectors are
	// requested Sun-centered.
	if got := query["COMMAND"][0]; got != "'Ceres;'" {
		t.Errorf("COMMAND = %q, want 'Ceres;'", got)
	}
	if got := query["CENTER"][0]; got != "'@sun'" {
		t.Errorf("CENTER = %q, want '@sun'", got)
	}
	if got := query["EPHEM_TYPE"][0]; got != "'VECTORS'" {
		t.Errorf("EPHEM_TYPE = %q", got)
	}
}

func TestVectorsRangeQueryWindow(t *testing.T) {
	var query map[string][]string
	server := apiServer(t, vectorReport, &query)
	defer server.Close()

	start, _ := timeaxis.NewInstant(2025, 1, 1)
	stop, _ := timeaxis.NewInstant(2025, 12, 31)

	client := NewClient(server.URL)
	if _, err := client.VectorsRange(context.Background(), "Ceres", IDTypeSmallBody, start, stop, "1d"); err != nil {
		t.Fatalf("VectorsRange: %v", err)
	}

	if got := query["START_TIME"][0]; got != "'2025-01-01'" {
		t.Errorf("START_TIME = %q", got)
	}
	if got := query["STOP_TIME"][0]; got != "'2025-12-31'" {
		t.Errorf("STOP_TIME = %q", got)
	}
	if got := query["STEP_SIZE"][0]; got != "'1d'" {
		t.Errorf("STEP_SIZE = %q", got)
	}
}

func TestHorizonCoordinates(t *testing.T) {
	var query map[string][]string
	server := apiServer(t, observerReport, &query)
	defer server.Close()

	client := NewClient(server.URL)
	coord, err := client.HorizonCoordinates(context.Background(), "Sun", "500", 2460892.9166667)
	if err != nil {
		t.Fatalf("HorizonCoordinates: %v", err)
	}

	if coord.AzimuthDeg != 120.1234 {
		t.Errorf("azimuth = %v, want 120.1234", coord.AzimuthDeg)
	}
	if coord.AltitudeDeg != 30.5678 {
		t.Errorf("altitude = %v, want 30.5678", coord.AltitudeDeg)
	}
	if got := query["CENTER"][0]; got != "'500'" {
		t.Errorf("CENTER = %q, want observatory code", got)
	}
	if got := query["EPHEM_TYPE"][0]; got != "'OBSERVER'" {
		t.Errorf("EPHEM_TYPE = %q", got)
	}
}

func TestHorizonCoordinatesNegativeAltitude(t *testing.T) {
	report := strings.Replace(observerReport, "30.5678", "-15.0000", 1)
	server := apiServer(t, report, nil)
	defer server.Close()

	client := NewClient(server.URL)
	coord, err := client.HorizonCoordinates(context.Background(), "301", "500", 2460892.9166667)
	if err != nil {
		t.Fatalf("HorizonCoordinates: %v", err)
	}
	if coord.AltitudeDeg != -15 {
		t.Errorf("altitude = %v, want -15", coord.AltitudeDeg)
	}
}

func TestUnknownTarget(t *testing.T) {
	server := apiServer(t, "No matches found.\n", nil)
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Vectors(context.Background(), "Nonexistium", IDTypeSmallBody, []float64{2460676.5})
	if !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("error = %v, want ErrUnknownTarget", err)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Vectors(context.Background(), "Ceres", IDTypeSmallBody, []float64{2460676.5})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestMalformedReportIsUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		result string
	}{
		{"no ephemeris block", "Ephemeris output without markers\n"},
		{"empty block", "$$SOE\n$$EOE\n"},
		{"garbage vector row", "$$SOE\nnot,a,vector,row,at,all,\n$$EOE\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := apiServer(t, tt.result, nil)
			defer server.Close()

			client := NewClient(server.URL)
			_, err := client.Vectors(context.Background(), "Ceres", IDTypeSmallBody, []float64{2460676.5})
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "exceeds limits"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Vectors(context.Background(), "Ceres", IDTypeSmallBody, []float64{2460676.5})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestCommandIDTypes(t *testing.T) {
	tests := []struct {
		target string
		idType string
		want   string
	}{
		{"Ceres", IDTypeSmallBody, "Ceres;"},
		{"Ceres;", IDTypeSmallBody, "Ceres;"},
		{"2000 SG344", IDTypeDesignation, "2000 SG344;"},
		{"301", IDTypeMajorBody, "301"},
		{"Ceres", "", "Ceres;"},
	}
	for _, tt := range tests {
		if got := command(tt.target, tt.idType); got != tt.want {
			t.Errorf("command(%q, %q) = %q, want %q", tt.target, tt.idType, got, tt.want)
		}
	}
}
