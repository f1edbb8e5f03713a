package shim

import (
	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/errors"
)

func (b *Builder) global(name string) (goja.Value, bool) {
	v := b.vm.Get(name)
	return v, present(v)
}

func (b *Builder) buildURL() (*goja.Object, error) {
	obj := b.vm.NewObject()
	for _, name := range []string{"URL", "URLSearchParams"} {
		if v, ok := b.global(name); ok {
			if err := obj.Set(name, v); err != nil {
				return nil, err
			}
		} else {
			Logger().Debug("url global missing; node:url entry left undefined")
		}
	}
	return b.freeze(obj), nil
}

func (b *Builder) searchParams(op string, init goja.Value) *goja.Object {
	ctor, ok := b.global("URLSearchParams")
	if !ok {
		b.throw(errors.CapabilityUnavailable(op))
	}
	args := []goja.Value{}
	if present(init) {
		args = append(args, init)
	}
	params, err := b.vm.New(ctor, args...)
	if err != nil {
		b.throw(err)
	}
	return params
}

func (b *Builder) method(obj *goja.Object, name string) goja.Callable {
	fn, ok := goja.AssertFunction(obj.Get(name))
	if !ok {
		panic(b.vm.NewTypeError(name + " is not a function"))
	}
	return fn
}

func (b *Builder) buildQueryString() (*goja.Object, error) {
	obj := b.vm.NewObject()
	err := b.set(obj, map[string]any{
		// parse keeps the last value of a repeated key.
		"parse": b.fn(func(call goja.FunctionCall) goja.Value {
			params := b.searchParams("querystring.parse", b.vm.ToValue(b.optString(call.Argument(0))))
			out := b.vm.NewObject()
			each := b.fn(func(c goja.FunctionCall) goja.Value {
				_ = out.Set(c.Argument(1).String(), c.Argument(0))
				return goja.Undefined()
			})
			if _, err := b.method(params, "forEach")(params, each); err != nil {
				b.throw(err)
			}
			return out
		}),
		"stringify": b.fn(func(call goja.FunctionCall) goja.Value {
			params := b.searchParams("querystring.stringify", goja.Undefined())
			src, ok := call.Argument(0).(*goja.Object)
			if !ok {
				return b.vm.ToValue("")
			}
			appendFn := b.method(params, "append")
			for _, key := range src.Keys() {
				v := src.Get(key)
				values := []goja.Value{v}
				if arr, ok := v.(*goja.Object); ok && arr.ClassName() == "Array" {
					values = values[:0]
					n := int(arr.Get("length").ToInteger())
					for i := 0; i < n; i++ {
						values = append(values, arr.Get(b.vm.ToValue(i).String()))
					}
				}
				for _, item := range values {
					if _, err := appendFn(params, b.vm.ToValue(key), b.vm.ToValue(item.String())); err != nil {
						b.throw(err)
					}
				}
			}
			s, err := b.method(params, "toString")(params)
			if err != nil {
				b.throw(err)
			}
			return s
		}),
	})
	if err != nil {
		return nil, err
	}
	return b.freeze(obj), nil
}
