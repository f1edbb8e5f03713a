package shim

import (
	"crypto/subtle"
	"hash"
	"math"

	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/errors"
)

func (b *Builder) dataBytes(data, encoding goja.Value, what string) []byte {
	if s, ok := data.Export().(string); ok {
		out, err := encodeString(s, b.optString(encoding))
		if err != nil {
			b.throw(err)
		}
		return out
	}
	out, ok := b.bytesOf(data)
	if !ok {
		panic(b.vm.NewTypeError("The \"" + what + "\" argument must be of type string or an instance of Buffer, TypedArray, or DataView."))
	}
	return out
}

func finalized(op string) error {
	return errors.New(errors.PhaseShim, errors.KindInvalidInput).
		Op(op).
		Code("ERR_CRYPTO_HASH_FINALIZED").
		Detail("Digest already called").
		Build()
}

// hashObject exposes d with node's update/digest shape. digest is single use.
func (b *Builder) hashObject(op string, d hash.Hash) *goja.Object {
	obj := b.vm.NewObject()
	done := false

	_ = obj.Set("update", b.fn(func(call goja.FunctionCall) goja.Value {
		if done {
			b.throw(finalized(op))
		}
		d.Write(b.dataBytes(call.Argument(0), call.Argument(1), "data"))
		return obj
	}))
	_ = obj.Set("digest", b.fn(func(call goja.FunctionCall) goja.Value {
		if done {
			b.throw(finalized(op))
		}
		done = true
		sum := d.Sum(nil)
		if enc := call.Argument(0); present(enc) && enc.String() != "buffer" {
			s, err := decodeBytes(sum, enc.String())
			if err != nil {
				b.throw(err)
			}
			return b.vm.ToValue(s)
		}
		return b.newBuffer(sum)
	}))
	return obj
}

func (b *Builder) randomSize(v goja.Value) int {
	f := v.ToFloat()
	if !present(v) || math.IsNaN(f) || f < 0 || f != math.Trunc(f) {
		panic(b.vm.NewTypeError("The \"size\" argument must be a non-negative integer. Received " + v.String()))
	}
	return int(f)
}

func (b *Builder) buildCrypto() (*goja.Object, error) {
	randomBytesAsync := callbackify[int, []byte](b, func(n int, cb Callback[[]byte]) {
		cb(b.bridge.RandomBytes(b.ctx, n))
	}, func(buf []byte) goja.Value { return b.newBuffer(buf) })

	obj := b.vm.NewObject()
	err := b.set(obj, map[string]any{
		"createHash": b.fn(func(call goja.FunctionCall) goja.Value {
			alg := call.Argument(0).String()
			d, err := b.bridge.NewHash(b.ctx, alg, nil)
			if err != nil {
				b.throw(err)
			}
			return b.hashObject("crypto.createHash", d)
		}),
		"createHmac": b.fn(func(call goja.FunctionCall) goja.Value {
			alg := call.Argument(0).String()
			key := b.dataBytes(call.Argument(1), goja.Undefined(), "key")
			d, err := b.bridge.NewHash(b.ctx, alg, key)
			if err != nil {
				b.throw(err)
			}
			return b.hashObject("crypto.createHmac", d)
		}),
		"getHashes": b.fn(func(goja.FunctionCall) goja.Value {
			names, err := b.bridge.HashAlgorithms()
			if err != nil {
				b.throw(err)
			}
			items := make([]any, len(names))
			for i, n := range names {
				items[i] = n
			}
			return b.vm.NewArray(items...)
		}),
		"randomBytes": b.fn(func(call goja.FunctionCall) goja.Value {
			n := b.randomSize(call.Argument(0))
			if cb := call.Argument(1); present(cb) {
				randomBytesAsync(n, b.callable(cb, "callback"))
				return goja.Undefined()
			}
			buf, err := b.bridge.RandomBytes(b.ctx, n)
			if err != nil {
				b.throw(err)
			}
			return b.newBuffer(buf)
		}),
		"randomUUID": b.fn(func(goja.FunctionCall) goja.Value {
			id, err := b.bridge.RandomUUID(b.ctx)
			if err != nil {
				b.throw(err)
			}
			return b.vm.ToValue(id)
		}),
		"timingSafeEqual": b.fn(func(call goja.FunctionCall) goja.Value {
			x, ok1 := b.bytesOf(call.Argument(0))
			y, ok2 := b.bytesOf(call.Argument(1))
			if !ok1 || !ok2 {
				panic(b.vm.NewTypeError("The arguments must be Buffers, TypedArrays, or DataViews."))
			}
			if len(x) != len(y) {
				panic(b.vm.NewTypeError("Input buffers must have the same byte length"))
			}
			return b.vm.ToValue(subtle.ConstantTimeCompare(x, y) == 1)
		}),
	})
	if err != nil {
		return nil, err
	}
	return b.freeze(obj), nil
}
