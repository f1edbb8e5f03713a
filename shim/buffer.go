package shim

import (
	"bytes"
	"math"
	"strconv"

	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/errors"
)

func (b *Builder) argError(detail string, args ...any) error {
	return errors.New(errors.PhaseShim, errors.KindInvalidInput).
		Code(errors.CodeInvalidArgValue).
		Detail(detail, args...).
		Build()
}

func (b *Builder) optString(v goja.Value) string {
	if !present(v) {
		return ""
	}
	return v.String()
}

// bufferFrom implements Buffer.from for strings and byte sources.
func (b *Builder) bufferFrom(data, encoding goja.Value) *goja.Object {
	if s, ok := data.Export().(string); ok {
		out, err := encodeString(s, b.optString(encoding))
		if err != nil {
			b.throw(err)
		}
		return b.newBuffer(out)
	}
	raw, ok := b.bytesOf(data)
	if !ok {
		panic(b.vm.NewTypeError("The first argument must be of type string or an instance of Buffer, ArrayBuffer, or Array or an Array-like Object."))
	}
	return b.newBuffer(raw)
}

func (b *Builder) allocSize(v goja.Value) int {
	f := v.ToFloat()
	if !present(v) || math.IsNaN(f) || f < 0 || f > float64(math.MaxInt32) || f != math.Trunc(f) {
		b.throw(b.argError("The argument 'size' is invalid. Received %s", v.String()))
	}
	return int(f)
}

func (b *Builder) bufferAlloc(call goja.FunctionCall) goja.Value {
	size := b.allocSize(call.Argument(0))
	out := make([]byte, size)

	fill := call.Argument(1)
	if !present(fill) || size == 0 {
		return b.newBuffer(out)
	}

	var pattern []byte
	switch x := fill.Export().(type) {
	case string:
		p, err := encodeString(x, b.optString(call.Argument(2)))
		if err != nil {
			b.throw(err)
		}
		pattern = p
	case int64, float64:
		pattern = []byte{byte(fill.ToInteger() & 0xFF)}
	default:
		p, ok := b.bytesOf(fill)
		if !ok {
			pattern = []byte{byte(fill.ToInteger() & 0xFF)}
		} else {
			pattern = p
		}
	}
	if len(pattern) == 0 {
		return b.newBuffer(out)
	}
	for i := 0; i < size; i += len(pattern) {
		copy(out[i:], pattern)
	}
	return b.newBuffer(out)
}

func (b *Builder) buildBuffer() (*goja.Object, *goja.Object, error) {
	u8 := b.uint8Array.ToObject(b.vm)
	u8proto := u8.Get("prototype").ToObject(b.vm)

	proto := b.vm.NewObject()
	if err := proto.SetPrototype(u8proto); err != nil {
		return nil, nil, err
	}

	err := b.set(proto, map[string]any{
		"toString": b.fn(func(call goja.FunctionCall) goja.Value {
			data, _ := b.bytesOf(call.This)
			start, end := 0, len(data)
			if v := call.Argument(1); present(v) {
				start = clamp(int(v.ToInteger()), 0, len(data))
			}
			if v := call.Argument(2); present(v) {
				end = clamp(int(v.ToInteger()), start, len(data))
			}
			s, err := decodeBytes(data[start:end], b.optString(call.Argument(0)))
			if err != nil {
				b.throw(err)
			}
			return b.vm.ToValue(s)
		}),
		"equals": b.fn(func(call goja.FunctionCall) goja.Value {
			a, _ := b.bytesOf(call.This)
			other, ok := b.bytesOf(call.Argument(0))
			if !ok {
				panic(b.vm.NewTypeError("The \"otherBuffer\" argument must be an instance of Buffer or Uint8Array."))
			}
			return b.vm.ToValue(bytes.Equal(a, other))
		}),
		"toJSON": b.fn(func(call goja.FunctionCall) goja.Value {
			data, _ := b.bytesOf(call.This)
			items := make([]any, len(data))
			for i, c := range data {
				items[i] = int(c)
			}
			out := b.vm.NewObject()
			_ = out.Set("type", "Buffer")
			_ = out.Set("data", b.vm.NewArray(items...))
			return out
		}),
	})
	if err != nil {
		return nil, nil, err
	}
	b.bufferProto = proto

	ctor := b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.bufferFrom(call.Argument(0), call.Argument(1))
	}).ToObject(b.vm)

	alloc := b.fn(b.bufferAlloc)
	err = b.set(ctor, map[string]any{
		"prototype": proto,
		"from": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.bufferFrom(call.Argument(0), call.Argument(1))
		}),
		"alloc":       alloc,
		"allocUnsafe": alloc,
		"isBuffer": b.fn(func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(b.vm.InstanceOf(call.Argument(0), u8))
		}),
		"isEncoding": b.fn(func(call goja.FunctionCall) goja.Value {
			_, err := normalizeEncoding(call.Argument(0).String())
			return b.vm.ToValue(present(call.Argument(0)) && err == nil)
		}),
		"byteLength": b.fn(func(call goja.FunctionCall) goja.Value {
			v := call.Argument(0)
			if s, ok := v.Export().(string); ok {
				out, err := encodeString(s, b.optString(call.Argument(1)))
				if err != nil {
					b.throw(err)
				}
				return b.vm.ToValue(len(out))
			}
			data, ok := b.bytesOf(v)
			if !ok {
				panic(b.vm.NewTypeError("The \"string\" argument must be of type string or an instance of Buffer or ArrayBuffer."))
			}
			return b.vm.ToValue(len(data))
		}),
		"concat": b.fn(func(call goja.FunctionCall) goja.Value {
			list, ok := call.Argument(0).(*goja.Object)
			if !ok {
				panic(b.vm.NewTypeError("The \"list\" argument must be an instance of Array."))
			}
			var out []byte
			n := int(list.Get("length").ToInteger())
			for i := 0; i < n; i++ {
				part, ok := b.bytesOf(list.Get(strconv.Itoa(i)))
				if !ok {
					panic(b.vm.NewTypeError("The \"list\" argument must contain only Buffer or Uint8Array instances."))
				}
				out = append(out, part...)
			}
			if v := call.Argument(1); present(v) {
				total := clamp(int(v.ToInteger()), 0, math.MaxInt32)
				if total < len(out) {
					out = out[:total]
				} else {
					out = append(out, make([]byte, total-len(out))...)
				}
			}
			return b.newBuffer(out)
		}),
	})
	if err != nil {
		return nil, nil, err
	}
	if err := proto.Set("constructor", ctor); err != nil {
		return nil, nil, err
	}

	module := b.vm.NewObject()
	if err := module.Set("Buffer", ctor); err != nil {
		return nil, nil, err
	}
	return ctor, b.freeze(module), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
