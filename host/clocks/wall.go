package clocks

import (
	"context"
	"time"
)

type WallClockHost struct {
	now func() time.Time
}

func NewWallClockHost() *WallClockHost {
	return &WallClockHost{now: time.Now}
}

// NewFixedClockHost returns a clock frozen at t.
func NewFixedClockHost(t time.Time) *WallClockHost {
	return &WallClockHost{now: func() time.Time { return t }}
}

func (h *WallClockHost) Namespace() string {
	return "node-compat:clock"
}

func (h *WallClockHost) Now(_ context.Context) time.Time {
	return h.now()
}
