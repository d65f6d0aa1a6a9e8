package modules

import (
	"context"
	goruntime "runtime"
	"time"
)

// Device reports information about the host.
type Device struct {
	// Size returns the current window size in cells. Nil reports zero.
	Size func() (width, height int)
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (d *Device) Name() string { return "device" }

// GetInfo returns platform, architecture and window dimensions.
func (d *Device) GetInfo(_ context.Context, _ []any) (any, error) {
	var w, h int
	if d.Size != nil {
		w, h = d.Size()
	}
	return map[string]any{
		"platform": goruntime.GOOS,
		"arch":     goruntime.GOARCH,
		"cpus":     int64(goruntime.NumCPU()),
		"width":    int64(w),
		"height":   int64(h),
	}, nil
}

// GetTime returns the host time in Unix milliseconds.
func (d *Device) GetTime(_ context.Context, _ []any) (any, error) {
	now := time.Now
	if d.Clock != nil {
		now = d.Clock
	}
	return now().UnixMilli(), nil
}
