package bootstrap

import (
	"context"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/node-compat/bridge"
	"github.com/wippyai/node-compat/errors"
	"github.com/wippyai/node-compat/resolve"
	"github.com/wippyai/node-compat/shim"
)

// Global names written by Install.
const (
	GlobalProcess     = "process"
	GlobalBuffer      = "Buffer"
	GlobalGlobal      = "global"
	GlobalNodeModules = "__nodeModules"
	GlobalRequire     = "require"
	GlobalImport      = "import"
	GlobalState       = "__node_compat_state"
)

var stateKey = goja.NewSymbol("nodeCompat.bootstrap")

// Options configures Install.
type Options struct {
	Context   context.Context
	Bridge    *bridge.Bridge
	Scheduler shim.Scheduler

	// Resolvers run after the module table and before the engine's own
	// require.
	Resolvers []resolve.Resolver

	Log *resolve.DiagnosticLog
	Now func() time.Time
}

// State is the per-runtime record of what Install did. It doubles as the
// idempotency sentinel.
type State struct {
	Modules *shim.Set
	Table   *resolve.Table
	Chain   *resolve.Chain

	// Installed lists the guarded globals that were absent and got bound.
	Installed []string
	// Skipped lists the guarded globals the host already provided.
	Skipped []string

	ctx     context.Context
	vm      *goja.Runtime
	builder *shim.Builder
}

func (s *State) Log() *resolve.DiagnosticLog {
	return s.Chain.Log()
}

// ImportErrors returns a snapshot of the diagnostic log.
func (s *State) ImportErrors() []resolve.ImportErrorRecord {
	return s.Chain.Log().Records()
}

// Lookup returns the state installed on vm, if any.
func Lookup(vm *goja.Runtime) (*State, bool) {
	v := vm.GlobalObject().GetSymbol(stateKey)
	if v == nil || goja.IsUndefined(v) {
		return nil, false
	}
	s, ok := v.Export().(*State)
	return s, ok
}

// Install binds the node globals and the import interceptor on vm. A second
// call returns the first State and changes nothing. It must run on the
// goroutine that owns vm.
func Install(vm *goja.Runtime, opts Options) (*State, error) {
	if s, ok := Lookup(vm); ok {
		Logger().Debug("already installed")
		return s, nil
	}
	if opts.Bridge == nil {
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "bridge is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "scheduler is required")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	builder := shim.NewBuilder(ctx, vm, opts.Bridge, opts.Scheduler)
	set, err := builder.Build()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseBootstrap, errors.KindInstantiation, err, "build shims")
	}
	table, err := resolve.NewTable(set)
	if err != nil {
		return nil, err
	}

	resolvers := append([]resolve.Resolver(nil), opts.Resolvers...)
	if req, ok := goja.AssertFunction(vm.Get(GlobalRequire)); ok {
		resolvers = append(resolvers, resolve.NewEngineResolver(vm, req))
	}
	chain := resolve.NewChain(table, opts.Log, resolvers...).WithClock(opts.Now)

	s := &State{
		Modules: set,
		Table:   table,
		Chain:   chain,
		ctx:     ctx,
		vm:      vm,
		builder: builder,
	}

	global := vm.GlobalObject()
	guarded := []struct {
		name  string
		value func() goja.Value
	}{
		{GlobalProcess, func() goja.Value { return set.Process }},
		{GlobalBuffer, func() goja.Value { return set.BufferCtor }},
		{GlobalGlobal, func() goja.Value { return global }},
		{GlobalNodeModules, s.nodeModules},
	}
	for _, g := range guarded {
		if v := global.Get(g.name); v != nil && !goja.IsUndefined(v) {
			s.Skipped = append(s.Skipped, g.name)
			continue
		}
		if err := global.Set(g.name, g.value()); err != nil {
			return nil, errors.Wrap(errors.PhaseBootstrap, errors.KindRegistration, err, "bind "+g.name)
		}
		s.Installed = append(s.Installed, g.name)
	}

	if err := global.Set(GlobalRequire, s.requireFunc()); err != nil {
		return nil, errors.Wrap(errors.PhaseBootstrap, errors.KindRegistration, err, "bind require")
	}
	if err := global.Set(GlobalImport, s.importFunc()); err != nil {
		return nil, errors.Wrap(errors.PhaseBootstrap, errors.KindRegistration, err, "bind import")
	}
	if err := global.DefineDataProperty(GlobalState, s.stateObject(), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return nil, errors.Wrap(errors.PhaseBootstrap, errors.KindRegistration, err, "bind state")
	}
	if err := global.DefineDataPropertySymbol(stateKey, vm.ToValue(s), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
		return nil, errors.Wrap(errors.PhaseBootstrap, errors.KindRegistration, err, "set sentinel")
	}

	Logger().Debug("node compat installed",
		zap.Strings("installed", s.Installed),
		zap.Strings("skipped", s.Skipped))
	return s, nil
}

// Resolve runs the chain. It must run on the goroutine that owns the vm.
func (s *State) Resolve(ctx context.Context, specifier string) (goja.Value, error) {
	return s.Chain.Resolve(ctx, specifier)
}

func (s *State) requireFunc() goja.Value {
	return s.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		mod, err := s.Chain.Resolve(s.ctx, spec)
		if err != nil {
			panic(s.builder.ErrorValue(err))
		}
		return mod
	})
}

// importFunc returns a promise for the module namespace. Table hits settle
// without touching any other resolver.
func (s *State) importFunc() goja.Value {
	return s.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		promise, resolveFn, rejectFn := s.vm.NewPromise()
		spec := call.Argument(0).String()
		mod, err := s.Chain.Resolve(s.ctx, spec)
		if err != nil {
			rejectFn(s.builder.ErrorValue(err))
		} else {
			resolveFn(resolve.Namespace(s.vm, mod))
		}
		return s.vm.ToValue(promise)
	})
}

func (s *State) nodeModules() goja.Value {
	obj := s.vm.NewObject()
	for _, spec := range resolve.Specifiers() {
		if m, ok := s.Table.Lookup(spec); ok {
			_ = obj.Set(spec, m)
		}
	}
	if freeze, ok := goja.AssertFunction(s.vm.Get("Object").ToObject(s.vm).Get("freeze")); ok {
		_, _ = freeze(goja.Undefined(), obj)
	}
	return obj
}

func (s *State) stateObject() *goja.Object {
	vm := s.vm
	obj := vm.NewObject()
	_ = obj.Set("installed", true)

	specs := resolve.Specifiers()
	items := make([]any, len(specs))
	for i, spec := range specs {
		items[i] = spec
	}
	_ = obj.Set("specifiers", vm.NewArray(items...))

	getter := vm.ToValue(func(goja.FunctionCall) goja.Value {
		recs := s.Chain.Log().Records()
		out := make([]any, len(recs))
		for i, r := range recs {
			rec := vm.NewObject()
			_ = rec.Set("specifier", r.Specifier)
			_ = rec.Set("error", r.Message)
			_ = rec.Set("timestamp", r.Timestamp)
			out[i] = rec
		}
		return vm.NewArray(out...)
	})
	_ = obj.DefineAccessorProperty("importErrors", getter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	return obj
}
