package runtime

import (
	"github.com/wippyai/node-compat/host"
	"github.com/wippyai/node-compat/host/cli"
	"github.com/wippyai/node-compat/host/clocks"
	"github.com/wippyai/node-compat/host/filesystem"
	"github.com/wippyai/node-compat/host/hashing"
	"github.com/wippyai/node-compat/host/random"
)

// HostOptions configures the default providers.
type HostOptions struct {
	// Preopens maps script paths to host directories. Empty means no
	// filesystem access.
	Preopens map[string]string
	Cwd      string
	Env      map[string]string
	// Exit replaces os.Exit for process.exit.
	Exit func(code int)
}

// DefaultProviders returns a provider for every capability, backed by the
// real host.
func DefaultProviders(o HostOptions) []host.Provider {
	exit := cli.NewExitHost()
	if o.Exit != nil {
		exit = cli.NewExitHostFunc(o.Exit)
	}
	return []host.Provider{
		filesystem.New(o.Preopens, o.Cwd),
		random.NewSecureRandomHost(),
		hashing.New(),
		cli.NewEnvironmentHost(o.Env, o.Cwd),
		cli.NewBuildHost(),
		exit,
		clocks.NewWallClockHost(),
	}
}
