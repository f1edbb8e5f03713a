package cli

import (
	"context"
	"runtime"
)

// BuildHost reports the OS, architecture and CPU count the binary runs on.
type BuildHost struct {
	os   string
	arch string
	cpus int
}

func NewBuildHost() *BuildHost {
	return &BuildHost{
		os:   runtime.GOOS,
		arch: runtime.GOARCH,
		cpus: runtime.NumCPU(),
	}
}

// NewStaticBuildHost reports fixed values, for reproducible sandboxes.
func NewStaticBuildHost(goos, goarch string, cpus int) *BuildHost {
	return &BuildHost{os: goos, arch: goarch, cpus: cpus}
}

func (h *BuildHost) Namespace() string {
	return "node-compat:build"
}

func (h *BuildHost) BuildOS(_ context.Context) string {
	return h.os
}

func (h *BuildHost) BuildArch(_ context.Context) string {
	return h.arch
}

func (h *BuildHost) HardwareConcurrency(_ context.Context) int {
	return h.cpus
}
