package resolve

import (
	"context"

	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/errors"
	"github.com/wippyai/node-compat/shim"
)

// Specifiers recognised by the Table.
const (
	Process     = "node:process"
	FS          = "node:fs"
	FSPromises  = "node:fs/promises"
	Path        = "node:path"
	Crypto      = "node:crypto"
	Util        = "node:util"
	OS          = "node:os"
	Buffer      = "node:buffer"
	Events      = "node:events"
	Stream      = "node:stream"
	URL         = "node:url"
	QueryString = "node:querystring"
	Timers      = "node:timers"
	Assert      = "node:assert"
)

// Specifiers returns the closed set of table keys in a stable order.
func Specifiers() []string {
	return []string{
		Process, FS, FSPromises, Path, Crypto, Util, OS,
		Buffer, Events, Stream, URL, QueryString, Timers, Assert,
	}
}

// Table is the fixed specifier to shim mapping. It is immutable after
// NewTable returns.
type Table struct {
	modules map[string]*goja.Object
}

func modulesOf(set *shim.Set) map[string]*goja.Object {
	return map[string]*goja.Object{
		Process:     set.Process,
		FS:          set.FS,
		FSPromises:  set.FSPromises,
		Path:        set.Path,
		Crypto:      set.Crypto,
		Util:        set.Util,
		OS:          set.OS,
		Buffer:      set.Buffer,
		Events:      set.Events,
		Stream:      set.Stream,
		URL:         set.URL,
		QueryString: set.QueryString,
		Timers:      set.Timers,
		Assert:      set.Assert,
	}
}

// NewTable builds the table from a shim set. Every specifier must map to a
// module.
func NewTable(set *shim.Set) (*Table, error) {
	if set == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "shim set is nil")
	}
	modules := modulesOf(set)
	for _, spec := range Specifiers() {
		if modules[spec] == nil {
			return nil, errors.New(errors.PhaseResolve, errors.KindNotFound).
				Operand(spec).
				Detail("no shim built for %s", spec).
				Build()
		}
	}
	return &Table{modules: modules}, nil
}

// Lookup returns the shim registered for specifier.
func (t *Table) Lookup(specifier string) (*goja.Object, bool) {
	m, ok := t.modules[specifier]
	return m, ok
}

func (t *Table) Has(specifier string) bool {
	_, ok := t.modules[specifier]
	return ok
}

// Resolve implements Resolver.
func (t *Table) Resolve(_ context.Context, specifier string) (goja.Value, error) {
	if m, ok := t.modules[specifier]; ok {
		return m, nil
	}
	return nil, ErrNotHandled
}

// Namespace wraps mod the way import() exposes it: the module itself as
// default plus each own enumerable property.
func Namespace(vm *goja.Runtime, mod goja.Value) *goja.Object {
	ns := vm.NewObject()
	if obj, ok := mod.(*goja.Object); ok {
		for _, k := range obj.Keys() {
			_ = ns.Set(k, obj.Get(k))
		}
	}
	_ = ns.Set("default", mod)
	return ns
}
