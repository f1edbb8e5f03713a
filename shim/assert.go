package shim

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/errors"
)

// newAssertionError builds an AssertionError instance for an assertion
// failure. user reports whether the message came from the caller.
func (b *Builder) newAssertionError(ne *errors.Error, user bool) goja.Value {
	opts := b.vm.NewObject()
	_ = opts.Set("message", ne.Detail)
	_ = opts.Set("operator", ne.Op)
	_ = opts.Set("userMessage", user)
	if v, ok := ne.Value.([2]any); ok {
		_ = opts.Set("actual", v[0])
		_ = opts.Set("expected", v[1])
	}
	if b.assertionError == nil {
		return b.vm.NewGoError(ne)
	}
	obj, err := b.vm.New(b.assertionError, opts)
	if err != nil {
		return b.vm.NewGoError(ne)
	}
	return obj
}

// fail raises an assertion failure. A user message that is itself an Error
// is thrown as is.
func (b *Builder) fail(operator string, message goja.Value, generated string, actual, expected goja.Value) {
	if obj, ok := message.(*goja.Object); ok && obj.ClassName() == "Error" {
		panic(obj)
	}
	user := present(message)
	detail := generated
	if user {
		detail = message.String()
	}
	panic(b.newAssertionError(errors.AssertionFailure(operator, detail, actual, expected), user))
}

// jsonEqual compares by JSON form. Values without one fall back to SameValue.
func (b *Builder) jsonEqual(x, y goja.Value) bool {
	sx, okx := b.stringify(x, 0)
	sy, oky := b.stringify(y, 0)
	if okx && oky {
		return sx == sy
	}
	if okx != oky {
		return false
	}
	return x.SameAs(y)
}

func (b *Builder) buildAssert() (*goja.Object, error) {
	ctor, err := b.runProgram(assertionErrorProgram)
	if err != nil {
		return nil, err
	}
	b.assertionError = ctor

	ok := func(call goja.FunctionCall) goja.Value {
		if !call.Argument(0).ToBoolean() {
			msg := "The expression evaluated to a falsy value"
			if len(call.Arguments) == 0 {
				msg = "No value argument passed to `assert.ok()`"
			}
			b.fail("==", call.Argument(1), msg, call.Argument(0), b.vm.ToValue(true))
		}
		return goja.Undefined()
	}
	strictEqual := func(call goja.FunctionCall) goja.Value {
		actual, expected := call.Argument(0), call.Argument(1)
		if !actual.SameAs(expected) {
			msg := fmt.Sprintf("Expected values to be strictly equal:\n\n%s !== %s\n", b.inspect(actual, 0), b.inspect(expected, 0))
			b.fail("strictEqual", call.Argument(2), msg, actual, expected)
		}
		return goja.Undefined()
	}
	notStrictEqual := func(call goja.FunctionCall) goja.Value {
		actual, expected := call.Argument(0), call.Argument(1)
		if actual.SameAs(expected) {
			msg := fmt.Sprintf("Expected \"actual\" to be strictly unequal to: %s", b.inspect(expected, 0))
			b.fail("notStrictEqual", call.Argument(2), msg, actual, expected)
		}
		return goja.Undefined()
	}
	deepEqual := func(call goja.FunctionCall) goja.Value {
		actual, expected := call.Argument(0), call.Argument(1)
		if !b.jsonEqual(actual, expected) {
			msg := fmt.Sprintf("Expected values to be deeply equal:\n\n%s\n\nshould equal\n\n%s", b.inspect(actual, 0), b.inspect(expected, 0))
			b.fail("deepEqual", call.Argument(2), msg, actual, expected)
		}
		return goja.Undefined()
	}
	notDeepEqual := func(call goja.FunctionCall) goja.Value {
		actual, expected := call.Argument(0), call.Argument(1)
		if b.jsonEqual(actual, expected) {
			msg := fmt.Sprintf("Expected \"actual\" not to be deeply equal to: %s", b.inspect(expected, 0))
			b.fail("notDeepEqual", call.Argument(2), msg, actual, expected)
		}
		return goja.Undefined()
	}

	assert := b.vm.ToValue(ok).ToObject(b.vm)
	err = b.set(assert, map[string]any{
		"AssertionError":  ctor,
		"ok":              b.fn(ok),
		"equal":           b.fn(strictEqual),
		"strictEqual":     b.fn(strictEqual),
		"notEqual":        b.fn(notStrictEqual),
		"notStrictEqual":  b.fn(notStrictEqual),
		"deepEqual":       b.fn(deepEqual),
		"deepStrictEqual": b.fn(deepEqual),
		"notDeepEqual":    b.fn(notDeepEqual),
		"fail": b.fn(func(call goja.FunctionCall) goja.Value {
			b.fail("fail", call.Argument(0), "Failed", goja.Undefined(), goja.Undefined())
			return goja.Undefined()
		}),
		"throws": b.fn(func(call goja.FunctionCall) goja.Value {
			block := b.callable(call.Argument(0), "fn")
			expected := call.Argument(1)
			message := call.Argument(2)
			if s, isStr := expected.Export().(string); isStr {
				expected, message = goja.Undefined(), b.vm.ToValue(s)
			}

			_, err := block(goja.Undefined())
			if err == nil {
				b.fail("throws", message, "Missing expected exception.", goja.Undefined(), expected)
				return goja.Undefined()
			}
			thrown := b.errorValue(err)
			if ctorObj, isObj := expected.(*goja.Object); isObj {
				if _, isFn := goja.AssertFunction(ctorObj); isFn && !b.vm.InstanceOf(thrown, ctorObj) {
					panic(thrown)
				}
			}
			return goja.Undefined()
		}),
	})
	if err != nil {
		return nil, err
	}
	return b.freeze(assert), nil
}
