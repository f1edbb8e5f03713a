package shim

import (
	stderrors "errors"
	"math"
	"strconv"

	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/errors"
)

// throw raises err as a JS exception from inside a native function.
func (b *Builder) throw(err error) {
	panic(b.errorValue(err))
}

// errorValue converts a Go error into the JS value a script should see.
func (b *Builder) errorValue(err error) goja.Value {
	var ne *errors.Error
	if !stderrors.As(err, &ne) {
		var ex *goja.Exception
		if stderrors.As(err, &ex) {
			return ex.Value()
		}
		return b.vm.NewGoError(err)
	}
	if ne.Kind == errors.KindAssertionFailure {
		return b.newAssertionError(ne, false)
	}

	obj := b.vm.NewGoError(err)
	_ = obj.Set("message", ne.Message())
	if ne.Code != "" {
		_ = obj.Set("code", ne.Code)
	}
	if ne.Op != "" {
		_ = obj.Set("syscall", ne.Op)
	}
	if ne.Kind == errors.KindIOFailure && ne.Operand != "" {
		_ = obj.Set("path", ne.Operand)
	}
	return obj
}

func (b *Builder) fn(f func(goja.FunctionCall) goja.Value) goja.Value {
	return b.vm.ToValue(f)
}

func (b *Builder) freeze(obj *goja.Object) *goja.Object {
	if _, err := b.freezeFn(goja.Undefined(), obj); err != nil {
		Logger().Warn("freeze failed")
	}
	return obj
}

func (b *Builder) set(obj *goja.Object, props map[string]any) error {
	for k, v := range props {
		if err := obj.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func present(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

func (b *Builder) callable(v goja.Value, what string) goja.Callable {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		panic(b.vm.NewTypeError("The \"" + what + "\" argument must be of type function"))
	}
	return fn
}

// bytesOf copies the contents of a Uint8Array, ArrayBuffer or array-like.
func (b *Builder) bytesOf(v goja.Value) ([]byte, bool) {
	if !present(v) {
		return nil, false
	}
	switch x := v.Export().(type) {
	case []byte:
		return append([]byte(nil), x...), true
	case goja.ArrayBuffer:
		return append([]byte(nil), x.Bytes()...), true
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	if buf := obj.Get("buffer"); present(buf) {
		if ab, ok := buf.Export().(goja.ArrayBuffer); ok {
			off := int(obj.Get("byteOffset").ToInteger())
			n := int(obj.Get("byteLength").ToInteger())
			raw := ab.Bytes()
			if off >= 0 && n >= 0 && off+n <= len(raw) {
				return append([]byte(nil), raw[off:off+n]...), true
			}
		}
	}
	lengthVal := obj.Get("length")
	if !present(lengthVal) {
		return nil, false
	}
	length := lengthVal.ToFloat()
	if math.IsNaN(length) || length < 0 || length > math.MaxInt32 || length != math.Trunc(length) {
		b.throw(b.argError("The value of \"length\" is out of range. Received %s", lengthVal.String()))
	}
	n := int(length)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		if val := obj.Get(strconv.Itoa(i)); present(val) {
			out[i] = byte(val.ToInteger() & 0xFF)
		}
	}
	return out, true
}

// newBuffer wraps data in a Uint8Array whose prototype carries the Buffer methods.
func (b *Builder) newBuffer(data []byte) *goja.Object {
	if data == nil {
		data = []byte{}
	}
	obj, err := b.vm.New(b.uint8Array, b.vm.ToValue(b.vm.NewArrayBuffer(data)))
	if err != nil {
		panic(b.vm.NewGoError(err))
	}
	if b.bufferProto != nil {
		_ = obj.SetPrototype(b.bufferProto)
	}
	return obj
}

// textOrBytes accepts either a string or a byte source.
func (b *Builder) textOrBytes(v goja.Value) string {
	if _, isStr := v.Export().(string); !isStr {
		if data, ok := b.bytesOf(v); ok {
			return string(data)
		}
	}
	return v.String()
}

func (b *Builder) stringify(v goja.Value, indent int) (string, bool) {
	args := []goja.Value{v}
	if indent > 0 {
		args = append(args, goja.Null(), b.vm.ToValue(indent))
	}
	out, err := b.jsonStringify(goja.Undefined(), args...)
	if err != nil || !present(out) {
		return "", false
	}
	return out.String(), true
}

// ErrorValue converts err the way the shims do when they throw.
func (b *Builder) ErrorValue(err error) goja.Value {
	return b.errorValue(err)
}
