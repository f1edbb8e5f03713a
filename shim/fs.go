package shim

import (
	"github.com/dop251/goja"
)

type writeRequest struct {
	path string
	data string
}

func (b *Builder) readTextAsync(path string, cb Callback[string]) {
	b.bridge.ReadTextFile(b.ctx, path, cb)
}

func (b *Builder) writeTextAsync(req writeRequest, cb Callback[struct{}]) {
	b.bridge.WriteTextFile(b.ctx, req.path, req.data, func(err error) {
		cb(struct{}{}, err)
	})
}

func (b *Builder) stringValue(s string) goja.Value {
	return b.vm.ToValue(s)
}

// splitCallback handles the optional encoding argument before a trailing callback.
func (b *Builder) splitCallback(call goja.FunctionCall, encIdx int) goja.Callable {
	if fn, ok := goja.AssertFunction(call.Argument(encIdx)); ok {
		return fn
	}
	return b.callable(call.Argument(encIdx+1), "cb")
}

func (b *Builder) buildFSPromises() (*goja.Object, error) {
	readFile := promisify[string, string](b, b.readTextAsync, b.stringValue)
	writeFile := promisify[writeRequest, struct{}](b, b.writeTextAsync, undefinedOf[struct{}])

	obj := b.vm.NewObject()
	err := b.set(obj, map[string]any{
		"readFile": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(readFile(call.Argument(0).String()))
		}),
		"writeFile": b.fn(func(call goja.FunctionCall) goja.Value {
			req := writeRequest{path: call.Argument(0).String(), data: b.textOrBytes(call.Argument(1))}
			return b.vm.ToValue(writeFile(req))
		}),
	})
	if err != nil {
		return nil, err
	}
	return b.freeze(obj), nil
}

func (b *Builder) buildFS(promises *goja.Object) (*goja.Object, error) {
	readFile := callbackify[string, string](b, b.readTextAsync, b.stringValue)
	writeFile := callbackify[writeRequest, struct{}](b, b.writeTextAsync, undefinedOf[struct{}])

	obj := b.vm.NewObject()
	err := b.set(obj, map[string]any{
		"existsSync": b.fn(func(call goja.FunctionCall) goja.Value {
			ok, err := b.bridge.Exists(b.ctx, call.Argument(0).String())
			if err != nil {
				b.throw(err)
			}
			return b.vm.ToValue(ok)
		}),
		"readFileSync": b.fn(func(call goja.FunctionCall) goja.Value {
			s, err := b.bridge.ReadTextFileSync(b.ctx, call.Argument(0).String())
			if err != nil {
				b.throw(err)
			}
			return b.vm.ToValue(s)
		}),
		"writeFileSync": b.fn(func(call goja.FunctionCall) goja.Value {
			err := b.bridge.WriteTextFileSync(b.ctx, call.Argument(0).String(), b.textOrBytes(call.Argument(1)))
			if err != nil {
				b.throw(err)
			}
			return goja.Undefined()
		}),
		"readFile": b.fn(func(call goja.FunctionCall) goja.Value {
			cb := b.splitCallback(call, 1)
			readFile(call.Argument(0).String(), cb)
			return goja.Undefined()
		}),
		"writeFile": b.fn(func(call goja.FunctionCall) goja.Value {
			cb := b.splitCallback(call, 2)
			writeFile(writeRequest{path: call.Argument(0).String(), data: b.textOrBytes(call.Argument(1))}, cb)
			return goja.Undefined()
		}),
		"promises": promises,
	})
	if err != nil {
		return nil, err
	}
	return b.freeze(obj), nil
}
