package shim

import (
	"github.com/dop251/goja"
)

// buildTimers re-exports the loop's timer globals. setImmediate is a zero
// delay timeout.
func (b *Builder) buildTimers() (*goja.Object, error) {
	obj := b.vm.NewObject()
	for _, name := range []string{"setTimeout", "clearTimeout", "setInterval", "clearInterval"} {
		v, ok := b.global(name)
		if !ok {
			Logger().Debug("timer global missing")
			continue
		}
		if err := obj.Set(name, v); err != nil {
			return nil, err
		}
	}

	if setTimeout, ok := goja.AssertFunction(obj.Get("setTimeout")); ok {
		err := obj.Set("setImmediate", b.fn(func(call goja.FunctionCall) goja.Value {
			args := []goja.Value{call.Argument(0), b.vm.ToValue(0)}
			if len(call.Arguments) > 1 {
				args = append(args, call.Arguments[1:]...)
			}
			v, err := setTimeout(goja.Undefined(), args...)
			if err != nil {
				b.throw(err)
			}
			return v
		}))
		if err != nil {
			return nil, err
		}
	}
	if clearFn := obj.Get("clearTimeout"); present(clearFn) {
		if err := obj.Set("clearImmediate", clearFn); err != nil {
			return nil, err
		}
	}
	return b.freeze(obj), nil
}
