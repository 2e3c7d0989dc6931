package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/qifengcheng/astroView/internal/ephemeris"
	"github.com/qifengcheng/astroView/internal/horizons"
	"github.com/qifengcheng/astroView/internal/skyview"
	"github.com/qifengcheng/astroView/internal/timeaxis"
	"github.com/qifengcheng/astroView/internal/view"
)

// One-shot live query against the real Horizons API: reconstructs a short
// orbit window for one target and a sky snapshot for a few objects, then
// prints trace summaries. Useful for eyeballing report parsing against the
// production endpoint.
func main() {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	target := "Ceres"
	if len(os.Args) > 1 {
		target = os.Args[1]
	}

	handle := ephemeris.NewHandle(os.Getenv("ASTROVIEW_EPHEMERIS_PATH"))
	defer handle.Close()

	remote := horizons.NewClient(os.Getenv("ASTROVIEW_HORIZONS_URL"))
	v := view.New(ephemeris.NewJPL(handle), remote, skyview.DefaultStyle(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	start, err := timeaxis.NewInstant(now.Year(), 1, 1)
	if err != nil {
		fmt.Println("ERROR building start instant:", err)
		os.Exit(1)
	}
	stop, err := timeaxis.NewInstant(now.Year(), 3, 1)
	if err != nil {
		fmt.Println("ERROR building stop instant:", err)
		os.Exit(1)
	}

	fmt.Printf("Orbit window %s to %s, target %s\n", start, stop, target)
	fig, err := v.OrbitView(ctx, target, start, stop, 5)
	if err != nil {
		fmt.Println("ERROR reconstructing orbit:", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", fig.Title)
	for _, t := range fig.Traces {
		fmt.Printf("  trace %-28q type=%s mode=%s points=%d\n", t.Name, t.Type, t.Mode, max(len(t.X), len(t.Theta)))
	}

	at := timeaxis.FromTime(now.Truncate(time.Minute))
	fmt.Printf("\nSky snapshot at %s (observatory 500)\n", at)
	sky, err := v.SkyView(ctx, []string{"Sun", "301", target}, "500", at)
	if err != nil {
		fmt.Println("ERROR querying sky view:", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", sky.Title)
	for _, t := range sky.Traces {
		fmt.Printf("  %-12s panel=%-5s theta=%.3frad r=%.1f color=%s\n",
			t.Name, t.Panel, t.Theta[0], t.R[0], t.Marker.Color)
	}
}
