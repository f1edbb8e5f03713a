package clocks

import (
	"context"
	"testing"
	"time"
)

func TestWallClockHost_Now(t *testing.T) {
	h := NewWallClockHost()
	before := time.Now()
	got := h.Now(context.Background())
	if got.Before(before) {
		t.Errorf("Now() = %v is before %v", got, before)
	}
}

func TestFixedClockHost(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	h := NewFixedClockHost(at)
	if !h.Now(context.Background()).Equal(at) {
		t.Error("fixed clock drifted")
	}
}
