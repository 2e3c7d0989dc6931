package ephemeris

import (
	"context"
	"errors"
	"testing"

	"github.com/qifengcheng/astroView/internal/timeaxis"
)

func TestHandleMissingFile(t *testing.T) {
	h := NewHandle(t.TempDir() + "/does-not-exist.bin")
	defer h.Close()

	axis, err := timeaxis.Build(2025, 1, 1, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	src := NewJPL(h)
	_, err = src.ApparentPosition(context.Background(), Earth, Sun, axis)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}

	// The failure is cached on the handle; repeat calls fail the same way
	// without retrying the open.
	_, err2 := src.ApparentPosition(context.Background(), Earth, Sun, axis)
	if !errors.Is(err2, ErrUnavailable) {
		t.Fatalf("second call error = %v, want ErrUnavailable", err2)
	}
}

func TestHandleCloseBeforeOpen(t *testing.T) {
	h := NewHandle("unused.bin")
	if err := h.Close(); err != nil {
		t.Errorf("Close on never-opened handle: %v", err)
	}
}
