package cli

import (
	"context"
	"os"
)

type ExitHost struct {
	exit func(int)
}

func NewExitHost() *ExitHost {
	return &ExitHost{exit: os.Exit}
}

// NewExitHostFunc routes exit requests to fn instead of terminating the process.
func NewExitHostFunc(fn func(code int)) *ExitHost {
	return &ExitHost{exit: fn}
}

func (h *ExitHost) Namespace() string {
	return "node-compat:exit"
}

func (h *ExitHost) Exit(_ context.Context, code int) {
	h.exit(code)
}
