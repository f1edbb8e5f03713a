package shim

import (
	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/events"
)

const defaultMaxListeners = 10

var emitterKey = goja.NewSymbol("nodeCompat.emitter")

type jsEmitter = events.Emitter[goja.Value]

func sameValue(a, b goja.Value) bool {
	return a.SameAs(b)
}

// emitterOf returns the listener table of this, creating it on first use so
// subclasses work without calling the constructor.
func (b *Builder) emitterOf(this goja.Value) *jsEmitter {
	obj, ok := this.(*goja.Object)
	if !ok {
		panic(b.vm.NewTypeError("EventEmitter method called on incompatible receiver"))
	}
	if v := obj.GetSymbol(emitterKey); present(v) {
		if e, ok := v.Export().(*jsEmitter); ok {
			return e
		}
	}
	e := events.New(sameValue)
	err := obj.DefineDataPropertySymbol(emitterKey, b.vm.ToValue(e), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
	if err != nil {
		panic(b.vm.NewGoError(err))
	}
	return e
}

func eventKey(v goja.Value) string {
	return v.String()
}

func (b *Builder) buildEvents() (*goja.Object, *goja.Object, error) {
	ctor, err := b.runProgram(emitterProgram)
	if err != nil {
		return nil, nil, err
	}
	proto := ctor.Get("prototype").ToObject(b.vm)
	b.emitterProto = proto

	add := func(prepend, once bool) goja.Value {
		return b.fn(func(call goja.FunctionCall) goja.Value {
			listener := call.Argument(1)
			b.callable(listener, "listener")
			e := b.emitterOf(call.This)
			key := eventKey(call.Argument(0))
			switch {
			case once:
				e.Once(key, listener)
			case prepend:
				e.Prepend(key, listener)
			default:
				e.On(key, listener)
			}
			return call.This
		})
	}
	remove := b.fn(func(call goja.FunctionCall) goja.Value {
		b.emitterOf(call.This).RemoveListener(eventKey(call.Argument(0)), call.Argument(1))
		return call.This
	})
	listeners := b.fn(func(call goja.FunctionCall) goja.Value {
		ls := b.emitterOf(call.This).Listeners(eventKey(call.Argument(0)))
		items := make([]any, len(ls))
		for i, l := range ls {
			items[i] = l
		}
		return b.vm.NewArray(items...)
	})

	err = b.set(proto, map[string]any{
		"on":              add(false, false),
		"addListener":     add(false, false),
		"prependListener": add(true, false),
		"once":            add(false, true),
		"removeListener":  remove,
		"off":             remove,
		"listeners":       listeners,
		"rawListeners":    listeners,
		"emit": b.fn(func(call goja.FunctionCall) goja.Value {
			this := call.This
			args := call.Arguments
			if len(args) > 0 {
				args = args[1:]
			}
			fired := b.emitterOf(this).Emit(eventKey(call.Argument(0)), func(l goja.Value) error {
				fn, ok := goja.AssertFunction(l)
				if !ok {
					return nil
				}
				_, err := fn(this, args...)
				return err
			})
			return b.vm.ToValue(fired)
		}),
		"removeAllListeners": b.fn(func(call goja.FunctionCall) goja.Value {
			e := b.emitterOf(call.This)
			if present(call.Argument(0)) {
				e.RemoveAll(eventKey(call.Argument(0)))
			} else {
				e.RemoveAll()
			}
			return call.This
		}),
		"listenerCount": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(b.emitterOf(call.This).ListenerCount(eventKey(call.Argument(0))))
		}),
		"eventNames": b.fn(func(call goja.FunctionCall) goja.Value {
			names := b.emitterOf(call.This).EventNames()
			items := make([]any, len(names))
			for i, n := range names {
				items[i] = n
			}
			return b.vm.NewArray(items...)
		}),
		"setMaxListeners": b.fn(func(call goja.FunctionCall) goja.Value {
			return call.This
		}),
		"getMaxListeners": b.fn(func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(defaultMaxListeners)
		}),
	})
	if err != nil {
		return nil, nil, err
	}

	if err := b.set(ctor, map[string]any{
		"EventEmitter":        ctor,
		"defaultMaxListeners": defaultMaxListeners,
	}); err != nil {
		return nil, nil, err
	}

	module := b.vm.NewObject()
	if err := module.Set("EventEmitter", ctor); err != nil {
		return nil, nil, err
	}
	return ctor, b.freeze(module), nil
}

func (b *Builder) buildStream(emitter *goja.Object) (*goja.Object, error) {
	module := b.vm.NewObject()
	if err := module.Set("Stream", emitter); err != nil {
		return nil, err
	}
	return b.freeze(module), nil
}
