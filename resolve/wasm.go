package resolve

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/node-compat/errors"
)

// SourceLoader reads module bytes for a specifier.
type SourceLoader func(ctx context.Context, specifier string) ([]byte, error)

// WasmResolver resolves specifiers ending in ".wasm" to an object of the
// module's exported functions. Each specifier is instantiated once.
type WasmResolver struct {
	vm      *goja.Runtime
	runtime wazero.Runtime
	load    SourceLoader
	cache   map[string]*goja.Object
	modules []api.Module

	wasiOnce sync.Once
	wasiErr  error
	mu       sync.Mutex
}

func NewWasmResolver(vm *goja.Runtime, runtime wazero.Runtime, load SourceLoader) *WasmResolver {
	return &WasmResolver{
		vm:      vm,
		runtime: runtime,
		load:    load,
		cache:   make(map[string]*goja.Object),
	}
}

func (w *WasmResolver) initWASI(ctx context.Context) error {
	w.wasiOnce.Do(func() {
		if w.runtime.Module(wasi_snapshot_preview1.ModuleName) != nil {
			return
		}
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, w.runtime); err != nil {
			w.wasiErr = fmt.Errorf("instantiate WASI: %w", err)
		}
	})
	return w.wasiErr
}

// Resolve implements Resolver.
func (w *WasmResolver) Resolve(ctx context.Context, specifier string) (goja.Value, error) {
	if !strings.HasSuffix(specifier, ".wasm") {
		return nil, ErrNotHandled
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if obj, ok := w.cache[specifier]; ok {
		return obj, nil
	}

	src, err := w.load(ctx, specifier)
	if err != nil {
		return nil, err
	}
	if err := w.initWASI(ctx); err != nil {
		return nil, errors.Instantiation(err)
	}

	compiled, err := w.runtime.CompileModule(ctx, src)
	if err != nil {
		return nil, errors.Load("compile "+specifier, err)
	}
	// anonymous so the same binary can back several specifiers
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize")
	mod, err := w.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	w.modules = append(w.modules, mod)

	obj := w.exportsOf(ctx, mod)
	w.cache[specifier] = obj
	Logger().Debug("wasm module instantiated",
		zap.String("specifier", specifier),
		zap.Int("exports", len(obj.Keys())))
	return obj, nil
}

func (w *WasmResolver) exportsOf(ctx context.Context, mod api.Module) *goja.Object {
	obj := w.vm.NewObject()
	for name, def := range mod.ExportedFunctionDefinitions() {
		fn := mod.ExportedFunction(name)
		_ = obj.Set(name, w.bind(ctx, name, def, fn))
	}
	return obj
}

func (w *WasmResolver) bind(ctx context.Context, name string, def api.FunctionDefinition, fn api.Function) goja.Value {
	params := def.ParamTypes()
	results := def.ResultTypes()
	return w.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		stack := make([]uint64, len(params))
		for i, t := range params {
			stack[i] = encodeParam(t, call.Argument(i))
		}
		out, err := fn.Call(ctx, stack...)
		if err != nil {
			panic(w.vm.NewGoError(fmt.Errorf("wasm %s: %w", name, err)))
		}
		switch len(results) {
		case 0:
			return goja.Undefined()
		case 1:
			return w.vm.ToValue(decodeResult(results[0], out[0]))
		}
		items := make([]any, len(results))
		for i, t := range results {
			items[i] = decodeResult(t, out[i])
		}
		return w.vm.NewArray(items...)
	})
}

func encodeParam(t api.ValueType, v goja.Value) uint64 {
	switch t {
	case api.ValueTypeI32:
		return api.EncodeI32(int32(v.ToInteger()))
	case api.ValueTypeI64:
		return api.EncodeI64(v.ToInteger())
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v.ToFloat()))
	case api.ValueTypeF64:
		return api.EncodeF64(v.ToFloat())
	}
	return 0
}

func decodeResult(t api.ValueType, raw uint64) any {
	switch t {
	case api.ValueTypeI32:
		return api.DecodeI32(raw)
	case api.ValueTypeI64:
		return int64(raw)
	case api.ValueTypeF32:
		return api.DecodeF32(raw)
	case api.ValueTypeF64:
		return api.DecodeF64(raw)
	}
	return raw
}

// Close releases the instantiated modules. The wazero runtime stays open.
func (w *WasmResolver) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var first error
	for _, m := range w.modules {
		if err := m.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	w.modules = nil
	w.cache = make(map[string]*goja.Object)
	return first
}
