package shim

import (
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// NodeVersion is reported as process.version.
const NodeVersion = "v20.11.0"

// NodePlatform maps a host OS name to node's platform tag. Unknown hosts
// report linux.
func NodePlatform(goos string) string {
	switch goos {
	case "darwin":
		return "darwin"
	case "linux":
		return "linux"
	case "windows":
		return "win32"
	}
	return "linux"
}

// NodeArch maps a host architecture name to node's arch tag. Unknown
// architectures report x64.
func NodeArch(goarch string) string {
	switch goarch {
	case "amd64", "x86_64":
		return "x64"
	case "arm64", "aarch64":
		return "arm64"
	}
	return "x64"
}

func (b *Builder) platform() string {
	goos, err := b.bridge.Platform(b.ctx)
	if err != nil {
		return "linux"
	}
	return NodePlatform(goos)
}

func (b *Builder) arch() string {
	goarch, err := b.bridge.Arch(b.ctx)
	if err != nil {
		return "x64"
	}
	return NodeArch(goarch)
}

// cwd never fails; hosts without a working directory report "/".
func (b *Builder) cwd() string {
	dir, err := b.bridge.Cwd(b.ctx)
	if err != nil || dir == "" {
		return "/"
	}
	return dir
}

func (b *Builder) buildProcess() (*goja.Object, error) {
	proc := b.vm.NewObject()
	if b.emitterProto != nil {
		if err := proc.SetPrototype(b.emitterProto); err != nil {
			return nil, err
		}
	}

	versions := b.vm.NewObject()
	_ = versions.Set("node", NodeVersion[1:])

	err := b.set(proc, map[string]any{
		"env":      b.vm.NewObject(),
		"argv":     b.vm.NewArray("node"),
		"platform": b.platform(),
		"arch":     b.arch(),
		"version":  NodeVersion,
		"versions": versions,
		"title":    "node",
		"pid":      1,
		"cwd": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(b.cwd())
		}),
		"exit": b.fn(func(call goja.FunctionCall) goja.Value {
			code := 0
			if v := call.Argument(0); present(v) {
				code = int(v.ToInteger())
			}
			if err := b.bridge.Exit(b.ctx, code); err != nil {
				Logger().Debug("process.exit ignored", zap.Int("code", code), zap.Error(err))
			}
			return goja.Undefined()
		}),
		"nextTick": b.fn(func(call goja.FunctionCall) goja.Value {
			fn := b.callable(call.Argument(0), "callback")
			var args []goja.Value
			if len(call.Arguments) > 1 {
				args = append(args, call.Arguments[1:]...)
			}
			b.sched.Defer(func() {
				if _, err := fn(goja.Undefined(), args...); err != nil {
					Logger().Error("nextTick callback threw", zap.Error(err))
				}
			})
			return goja.Undefined()
		}),
		"emitWarning": b.fn(func(call goja.FunctionCall) goja.Value {
			Logger().Warn("process warning", zap.String("warning", call.Argument(0).String()))
			return goja.Undefined()
		}),
	})
	if err != nil {
		return nil, err
	}
	return proc, nil
}
