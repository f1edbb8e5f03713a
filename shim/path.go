package shim

import (
	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/posixpath"
)

// segments converts call arguments to strings. Falsy arguments
// become empty strings, which the path functions skip.
func segments(args []goja.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if present(a) && a.ToBoolean() {
			out[i] = a.String()
		}
	}
	return out
}

func (b *Builder) pathFunctions() map[string]any {
	str := func(f func(string) string) goja.Value {
		return b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(f(call.Argument(0).String()))
		})
	}
	return map[string]any{
		"sep":       posixpath.Sep,
		"delimiter": posixpath.Delimiter,
		"join": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(posixpath.Join(segments(call.Arguments)...))
		}),
		"resolve": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(posixpath.Resolve(segments(call.Arguments)...))
		}),
		"dirname": str(posixpath.Dirname),
		"extname": str(posixpath.Extname),
		"basename": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(posixpath.Basename(call.Argument(0).String(), b.optString(call.Argument(1))))
		}),
		"relative": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(posixpath.Relative(call.Argument(0).String(), call.Argument(1).String()))
		}),
		"isAbsolute": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(posixpath.IsAbsolute(call.Argument(0).String()))
		}),
	}
}

func (b *Builder) buildPath() (*goja.Object, error) {
	posix := b.vm.NewObject()
	if err := b.set(posix, b.pathFunctions()); err != nil {
		return nil, err
	}

	obj := b.vm.NewObject()
	if err := b.set(obj, b.pathFunctions()); err != nil {
		return nil, err
	}
	if err := obj.Set("posix", b.freeze(posix)); err != nil {
		return nil, err
	}
	return b.freeze(obj), nil
}
