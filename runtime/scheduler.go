package runtime

import (
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
)

// keepAlive is long enough never to fire before the hold is released.
const keepAlive = time.Hour

// loopScheduler implements shim.Scheduler on a goja_nodejs event loop.
type loopScheduler struct {
	loop *eventloop.EventLoop
}

func (s loopScheduler) Defer(fn func()) {
	s.loop.SetTimeout(func(*goja.Runtime) { fn() }, 0)
}

// Hold keeps the loop running with an idle interval until release. The
// release function may be called from any goroutine.
func (s loopScheduler) Hold() func(func()) {
	iv := s.loop.SetInterval(func(*goja.Runtime) {}, keepAlive)
	var once sync.Once
	return func(fn func()) {
		once.Do(func() {
			s.loop.RunOnLoop(func(*goja.Runtime) {
				s.loop.ClearInterval(iv)
				fn()
			})
		})
	}
}
