package resolve

import (
	"context"

	"github.com/dop251/goja"
)

// EngineResolver delegates to the engine's own require function. It handles
// every specifier, so it belongs at the end of a chain.
type EngineResolver struct {
	vm      *goja.Runtime
	require goja.Callable
}

func NewEngineResolver(vm *goja.Runtime, require goja.Callable) *EngineResolver {
	return &EngineResolver{vm: vm, require: require}
}

// Resolve implements Resolver. A missing require means nothing can be handled.
func (e *EngineResolver) Resolve(_ context.Context, specifier string) (goja.Value, error) {
	if e == nil || e.require == nil {
		return nil, ErrNotHandled
	}
	return e.require(goja.Undefined(), e.vm.ToValue(specifier))
}
