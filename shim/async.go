package shim

import (
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Callback is a node-style completion.
type Callback[R any] func(R, error)

// Async is an operation taking A and completing once with R through a
// Callback. The callback may run on any goroutine.
type Async[A, R any] func(A, Callback[R])

// promisify adapts op to return a JS promise. The promise settles on a later
// loop turn, exactly once.
func promisify[A, R any](b *Builder, op Async[A, R], conv func(R) goja.Value) func(A) *goja.Promise {
	return func(a A) *goja.Promise {
		promise, resolve, reject := b.vm.NewPromise()
		release := b.sched.Hold()
		op(a, func(r R, err error) {
			release(func() {
				if err != nil {
					reject(b.errorValue(err))
					return
				}
				resolve(conv(r))
			})
		})
		return promise
	}
}

// callbackify adapts op to a node-style JS callback (err, result). The
// callback is never invoked synchronously.
func callbackify[A, R any](b *Builder, op Async[A, R], conv func(R) goja.Value) func(A, goja.Callable) {
	return func(a A, cb goja.Callable) {
		release := b.sched.Hold()
		op(a, func(r R, err error) {
			release(func() {
				var callErr error
				if err != nil {
					_, callErr = cb(goja.Undefined(), b.errorValue(err))
				} else {
					_, callErr = cb(goja.Undefined(), goja.Null(), conv(r))
				}
				if callErr != nil {
					Logger().Error("callback threw", zap.Error(callErr))
				}
			})
		})
	}
}

func undefinedOf[R any](R) goja.Value {
	return goja.Undefined()
}
