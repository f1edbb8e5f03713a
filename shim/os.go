package shim

import (
	"github.com/dop251/goja"
)

const defaultCPUCount = 4

func (b *Builder) envFirst(fallback string, keys ...string) string {
	v, ok, err := b.bridge.LookupEnv(b.ctx, keys...)
	if err != nil || !ok || v == "" {
		return fallback
	}
	return v
}

func (b *Builder) cpuCount() int {
	n, err := b.bridge.HardwareConcurrency(b.ctx)
	if err != nil || n <= 0 {
		return defaultCPUCount
	}
	return n
}

func osType(platform string) string {
	switch platform {
	case "darwin":
		return "Darwin"
	case "win32":
		return "Windows_NT"
	}
	return "Linux"
}

func (b *Builder) buildOS() (*goja.Object, error) {
	platform := b.platform()
	arch := b.arch()

	obj := b.vm.NewObject()
	err := b.set(obj, map[string]any{
		"EOL": "\n",
		"platform": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(platform)
		}),
		"arch": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(arch)
		}),
		"type": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(osType(platform))
		}),
		"cpus": b.fn(func(goja.FunctionCall) goja.Value {
			n := b.cpuCount()
			items := make([]any, n)
			for i := range items {
				cpu := b.vm.NewObject()
				_ = cpu.Set("model", "unknown")
				_ = cpu.Set("speed", 0)
				items[i] = cpu
			}
			return b.vm.NewArray(items...)
		}),
		"homedir": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(b.envFirst("/", "HOME", "USERPROFILE"))
		}),
		"tmpdir": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(b.envFirst("/tmp", "TMPDIR", "TMP"))
		}),
		"hostname": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(b.envFirst("localhost", "HOSTNAME"))
		}),
		"endianness": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue("LE")
		}),
		"uptime": b.fn(func(goja.FunctionCall) goja.Value {
			now, err := b.bridge.Now(b.ctx)
			if err != nil {
				b.throw(err)
			}
			return b.vm.ToValue(now.Sub(b.started).Seconds())
		}),
	})
	if err != nil {
		return nil, err
	}
	return b.freeze(obj), nil
}
