package shim

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/bridge"
)

// Scheduler defers work onto the runtime's event loop.
type Scheduler interface {
	// Defer runs fn on a later turn of the loop.
	Defer(fn func())
	// Hold keeps the loop alive until release is called. release may be
	// called from any goroutine; fn then runs on the loop. Calls after the
	// first are ignored.
	Hold() (release func(fn func()))
}

// Set holds the emulated modules built for one runtime.
type Set struct {
	Process      *goja.Object
	FS           *goja.Object
	FSPromises   *goja.Object
	Path         *goja.Object
	Crypto       *goja.Object
	Util         *goja.Object
	OS           *goja.Object
	Buffer       *goja.Object // node:buffer module, {Buffer}
	BufferCtor   *goja.Object // the Buffer function itself
	Events       *goja.Object
	EventEmitter *goja.Object
	Stream       *goja.Object
	URL          *goja.Object
	QueryString  *goja.Object
	Timers       *goja.Object
	Assert       *goja.Object
}

// Builder constructs the emulated modules on top of a bridge.
type Builder struct {
	ctx    context.Context
	vm     *goja.Runtime
	bridge *bridge.Bridge
	sched  Scheduler

	freezeFn       goja.Callable
	jsonStringify  goja.Callable
	uint8Array     goja.Value
	bufferProto    *goja.Object
	emitterProto   *goja.Object
	assertionError *goja.Object
	started        time.Time
}

func NewBuilder(ctx context.Context, vm *goja.Runtime, b *bridge.Bridge, sched Scheduler) *Builder {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Builder{
		ctx:    ctx,
		vm:     vm,
		bridge: b,
		sched:  sched,
	}
}

func (b *Builder) init() error {
	object := b.vm.Get("Object")
	if object == nil {
		return fmt.Errorf("global Object missing")
	}
	freeze, ok := goja.AssertFunction(object.ToObject(b.vm).Get("freeze"))
	if !ok {
		return fmt.Errorf("Object.freeze is not callable")
	}
	b.freezeFn = freeze

	stringify, ok := goja.AssertFunction(b.vm.Get("JSON").ToObject(b.vm).Get("stringify"))
	if !ok {
		return fmt.Errorf("JSON.stringify is not callable")
	}
	b.jsonStringify = stringify

	b.uint8Array = b.vm.Get("Uint8Array")
	if b.uint8Array == nil || goja.IsUndefined(b.uint8Array) {
		return fmt.Errorf("Uint8Array missing")
	}

	if now, err := b.bridge.Now(b.ctx); err == nil {
		b.started = now
	}
	return nil
}

// Build creates every module. It must run on the loop that owns vm.
func (b *Builder) Build() (*Set, error) {
	if err := b.init(); err != nil {
		return nil, fmt.Errorf("shim init: %w", err)
	}

	s := &Set{}
	var err error

	if s.EventEmitter, s.Events, err = b.buildEvents(); err != nil {
		return nil, fmt.Errorf("build events: %w", err)
	}
	if s.BufferCtor, s.Buffer, err = b.buildBuffer(); err != nil {
		return nil, fmt.Errorf("build buffer: %w", err)
	}

	steps := []struct {
		name  string
		dst   **goja.Object
		build func() (*goja.Object, error)
	}{
		{"process", &s.Process, b.buildProcess},
		{"fs/promises", &s.FSPromises, b.buildFSPromises},
		{"path", &s.Path, b.buildPath},
		{"crypto", &s.Crypto, b.buildCrypto},
		{"util", &s.Util, b.buildUtil},
		{"os", &s.OS, b.buildOS},
		{"url", &s.URL, b.buildURL},
		{"querystring", &s.QueryString, b.buildQueryString},
		{"timers", &s.Timers, b.buildTimers},
		{"assert", &s.Assert, b.buildAssert},
	}
	for _, step := range steps {
		obj, err := step.build()
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", step.name, err)
		}
		*step.dst = obj
	}

	if s.FS, err = b.buildFS(s.FSPromises); err != nil {
		return nil, fmt.Errorf("build fs: %w", err)
	}
	if s.Stream, err = b.buildStream(s.EventEmitter); err != nil {
		return nil, fmt.Errorf("build stream: %w", err)
	}

	Logger().Debug("shims built")
	return s, nil
}
