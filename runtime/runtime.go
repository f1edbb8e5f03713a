package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/url"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/node-compat/bootstrap"
	"github.com/wippyai/node-compat/bridge"
	"github.com/wippyai/node-compat/errors"
	"github.com/wippyai/node-compat/host"
	"github.com/wippyai/node-compat/resolve"
)

type Options struct {
	// Providers back the host capabilities. Nil means DefaultProviders with
	// a zero HostOptions.
	Providers []host.Provider
	// Deny removes capabilities after the providers are registered.
	Deny []host.Capability
	// Console binds the engine's console global.
	Console bool
	// Resolvers run after the module table and before .wasm loading.
	Resolvers []resolve.Resolver
}

// Runtime owns one goja runtime on an event loop with the compatibility
// layer installed on first use.
type Runtime struct {
	ctx      context.Context
	bridge   *bridge.Bridge
	registry *require.Registry
	loop     *eventloop.EventLoop
	engine   wazero.Runtime
	log      *resolve.DiagnosticLog
	extra    []resolve.Resolver

	mu      sync.Mutex
	vm      *goja.Runtime
	wasm    *resolve.WasmResolver
	started bool
	closed  bool
}

func New(ctx context.Context, opts Options) (*Runtime, error) {
	providers := opts.Providers
	if providers == nil {
		providers = DefaultProviders(HostOptions{})
	}
	hosts := host.NewRegistry()
	for _, p := range providers {
		if err := hosts.Register(p); err != nil {
			return nil, err
		}
	}
	caps := hosts.Capabilities().Without(opts.Deny...)

	r := &Runtime{
		ctx:    ctx,
		bridge: bridge.New(caps),
		log:    resolve.NewDiagnosticLog(),
		extra:  opts.Resolvers,
	}
	r.registry = require.NewRegistry(require.WithLoader(r.loadSource))
	for _, spec := range resolve.Specifiers() {
		r.registry.RegisterNativeModule(spec, r.nativeModule(spec))
	}
	r.loop = eventloop.NewEventLoop(
		eventloop.WithRegistry(r.registry),
		eventloop.EnableConsole(opts.Console),
	)
	r.engine = wazero.NewRuntime(ctx)

	Logger().Debug("runtime created",
		zap.Int("capabilities", len(caps.List())),
		zap.Bool("console", opts.Console))
	return r, nil
}

// Bridge returns the capability bridge the shims call through.
func (r *Runtime) Bridge() *bridge.Bridge {
	return r.bridge
}

func (r *Runtime) Capabilities() *host.Capabilities {
	return r.bridge.Capabilities()
}

// Diagnostics returns the recorded import failures. Safe to call from any
// goroutine.
func (r *Runtime) Diagnostics() []resolve.ImportErrorRecord {
	return r.log.Records()
}

// loadSource feeds the engine's CommonJS loader. Missing files are reported
// the way the loader expects so it can try the next candidate path.
func (r *Runtime) loadSource(path string) ([]byte, error) {
	data, err := r.bridge.ReadModuleSource(r.ctx, path)
	if err != nil {
		switch errors.CodeOf(err) {
		case "ENOENT", "EISDIR", "ENOTDIR":
			return nil, require.ModuleFileDoesNotExistError
		}
		return nil, err
	}
	return data, nil
}

// nativeModule serves node: specifiers to CommonJS modules loaded by the
// engine, which use their own require.
func (r *Runtime) nativeModule(spec string) require.ModuleLoader {
	return func(vm *goja.Runtime, module *goja.Object) {
		s, ok := bootstrap.Lookup(vm)
		if !ok {
			panic(vm.NewGoError(errors.NotFound(errors.PhaseResolve, "module", spec)))
		}
		m, _ := s.Table.Lookup(spec)
		_ = module.Set("exports", m)
	}
}

func (r *Runtime) now() time.Time {
	if t, err := r.bridge.Now(r.ctx); err == nil {
		return t
	}
	return time.Now()
}

// install runs on the loop goroutine.
func (r *Runtime) install(vm *goja.Runtime) (*bootstrap.State, error) {
	if s, ok := bootstrap.Lookup(vm); ok {
		return s, nil
	}
	url.Enable(vm)

	wasm := resolve.NewWasmResolver(vm, r.engine, r.bridge.ReadModuleSource)
	r.mu.Lock()
	r.vm = vm
	r.wasm = wasm
	r.mu.Unlock()

	resolvers := append(append([]resolve.Resolver(nil), r.extra...), wasm)
	return bootstrap.Install(vm, bootstrap.Options{
		Context:   r.ctx,
		Bridge:    r.bridge,
		Scheduler: loopScheduler{loop: r.loop},
		Resolvers: resolvers,
		Log:       r.log,
		Now:       r.now,
	})
}

func (r *Runtime) interrupt(reason error) {
	r.mu.Lock()
	vm := r.vm
	r.mu.Unlock()
	if vm != nil {
		vm.Interrupt(reason)
	}
	r.loop.StopNoWait()
}

func (r *Runtime) isStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Run executes src as a script named name, then drives the loop until no
// timers or pending host operations remain. Cancelling ctx interrupts the
// script.
func (r *Runtime) Run(ctx context.Context, name, src string) error {
	if r.isStarted() {
		return errors.InvalidInput(errors.PhaseBootstrap, "loop already started, use Eval")
	}
	stop := context.AfterFunc(ctx, func() { r.interrupt(ctx.Err()) })
	defer stop()

	var runErr error
	r.loop.Run(func(vm *goja.Runtime) {
		if _, err := r.install(vm); err != nil {
			runErr = err
			return
		}
		_, runErr = vm.RunScript(name, src)
	})
	if runErr != nil {
		if _, ok := runErr.(*goja.InterruptedError); ok && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return runErr
}

// Start runs the loop in the background so Eval can be called repeatedly.
func (r *Runtime) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.loop.Start()
}

// Stop halts a started loop. Pending timers are dropped.
func (r *Runtime) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()
	r.loop.Stop()
}

type evalResult struct {
	out string
	err error
}

// Eval evaluates src and returns the completion value rendered the way
// util.inspect renders it. On a stopped loop it behaves like Run.
func (r *Runtime) Eval(ctx context.Context, src string) (string, error) {
	done := make(chan evalResult, 1)
	job := func(vm *goja.Runtime) {
		out, err := r.eval(vm, src)
		done <- evalResult{out: out, err: err}
	}
	if !r.isStarted() {
		r.loop.Run(job)
		res := <-done
		return res.out, res.err
	}
	r.loop.RunOnLoop(job)
	select {
	case res := <-done:
		return res.out, res.err
	case <-ctx.Done():
		r.mu.Lock()
		vm := r.vm
		r.mu.Unlock()
		if vm != nil {
			vm.Interrupt(ctx.Err())
		}
		return "", ctx.Err()
	}
}

func (r *Runtime) eval(vm *goja.Runtime, src string) (string, error) {
	s, err := r.install(vm)
	if err != nil {
		return "", err
	}
	vm.ClearInterrupt()
	v, err := vm.RunString(src)
	if err != nil {
		return "", err
	}
	if v == nil || goja.IsUndefined(v) {
		return "undefined", nil
	}
	if inspect, ok := goja.AssertFunction(s.Modules.Util.Get("inspect")); ok {
		if out, err := inspect(goja.Undefined(), v); err == nil {
			return out.String(), nil
		}
	}
	return v.String(), nil
}

// Close stops the loop and releases every wasm module and the wazero
// runtime.
func (r *Runtime) Close(ctx context.Context) error {
	r.Stop()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	wasm := r.wasm
	r.mu.Unlock()

	var first error
	if wasm != nil {
		if err := wasm.Close(ctx); err != nil {
			first = err
		}
	}
	if err := r.engine.Close(ctx); err != nil && first == nil {
		first = err
	}
	return first
}
