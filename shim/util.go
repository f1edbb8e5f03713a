package shim

import (
	"math"
	"strings"

	"github.com/dop251/goja"
)

const defaultInspectDepth = 2

// inspect renders v as indented JSON, or String(v) when JSON has no form for it.
func (b *Builder) inspect(v goja.Value, depth int) string {
	if depth <= 0 {
		depth = defaultInspectDepth
	}
	if obj, ok := v.(*goja.Object); ok {
		if _, isFn := goja.AssertFunction(obj); !isFn {
			if s, ok := b.stringify(v, depth); ok {
				return s
			}
		}
	}
	if v == nil {
		return "undefined"
	}
	return v.String()
}

// format implements util.format. %% always collapses to %, and arguments
// left over after the format string are appended separated by spaces.
func (b *Builder) format(args []goja.Value) string {
	if len(args) == 0 {
		return ""
	}
	f, isStr := args[0].Export().(string)
	if !isStr {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = b.inspect(a, 0)
		}
		return strings.Join(parts, " ")
	}

	var out strings.Builder
	next := 1
	for i := 0; i < len(f); i++ {
		c := f[i]
		if c != '%' || i+1 >= len(f) {
			out.WriteByte(c)
			continue
		}
		verb := f[i+1]
		if verb == '%' {
			out.WriteByte('%')
			i++
			continue
		}
		if !strings.ContainsRune("sdijoO", rune(verb)) || next >= len(args) {
			out.WriteByte(c)
			continue
		}
		arg := args[next]
		next++
		i++
		switch verb {
		case 's':
			if _, isObj := arg.(*goja.Object); isObj {
				out.WriteString(b.inspect(arg, 0))
			} else {
				out.WriteString(arg.String())
			}
		case 'd':
			out.WriteString(arg.ToNumber().String())
		case 'i':
			n := arg.ToFloat()
			if math.IsNaN(n) || math.IsInf(n, 0) {
				out.WriteString("NaN")
			} else {
				out.WriteString(b.vm.ToValue(math.Trunc(n)).String())
			}
		case 'j':
			s, ok := b.stringify(arg, 0)
			if !ok {
				s = "undefined"
			}
			out.WriteString(s)
		default:
			out.WriteString(b.inspect(arg, 0))
		}
	}
	for _, a := range args[next:] {
		out.WriteByte(' ')
		if s, ok := a.Export().(string); ok {
			out.WriteString(s)
		} else {
			out.WriteString(b.inspect(a, 0))
		}
	}
	return out.String()
}

// promisifyFunc wraps a node-style function whose last parameter is an
// (err, value) callback.
func (b *Builder) promisifyFunc(target goja.Callable) goja.Value {
	return b.fn(func(call goja.FunctionCall) goja.Value {
		promise, resolve, reject := b.vm.NewPromise()
		done := b.fn(func(res goja.FunctionCall) goja.Value {
			if err := res.Argument(0); present(err) {
				reject(err)
			} else {
				resolve(res.Argument(1))
			}
			return goja.Undefined()
		})
		args := make([]goja.Value, 0, len(call.Arguments)+1)
		args = append(args, call.Arguments...)
		args = append(args, done)
		if _, err := target(call.This, args...); err != nil {
			reject(b.errorValue(err))
		}
		return b.vm.ToValue(promise)
	})
}

func (b *Builder) buildUtil() (*goja.Object, error) {
	obj := b.vm.NewObject()
	err := b.set(obj, map[string]any{
		"inspect": b.fn(func(call goja.FunctionCall) goja.Value {
			depth := 0
			if opts, ok := call.Argument(1).(*goja.Object); ok {
				if d := opts.Get("depth"); present(d) {
					depth = int(d.ToInteger())
				}
			}
			return b.vm.ToValue(b.inspect(call.Argument(0), depth))
		}),
		"format": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(b.format(call.Arguments))
		}),
		"promisify": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.promisifyFunc(b.callable(call.Argument(0), "original"))
		}),
		"inherits": b.fn(func(call goja.FunctionCall) goja.Value {
			ctor, ok1 := call.Argument(0).(*goja.Object)
			super, ok2 := call.Argument(1).(*goja.Object)
			if !ok1 || !ok2 {
				panic(b.vm.NewTypeError("The \"ctor\" and \"superCtor\" arguments must be of type function"))
			}
			superProto, ok := super.Get("prototype").(*goja.Object)
			if !ok {
				panic(b.vm.NewTypeError("The \"superCtor.prototype\" property must be of type object"))
			}
			if err := ctor.Set("super_", super); err != nil {
				panic(b.vm.NewGoError(err))
			}
			if proto, ok := ctor.Get("prototype").(*goja.Object); ok {
				if err := proto.SetPrototype(superProto); err != nil {
					panic(b.vm.NewGoError(err))
				}
			}
			return goja.Undefined()
		}),
	})
	if err != nil {
		return nil, err
	}
	return b.freeze(obj), nil
}
