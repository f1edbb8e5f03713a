package resolve

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/node-compat/errors"
)

// ErrNotHandled tells the chain to try the next resolver.
var ErrNotHandled = stderrors.New("specifier not handled")

// Resolver turns a specifier into a module value.
type Resolver interface {
	Resolve(ctx context.Context, specifier string) (goja.Value, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, specifier string) (goja.Value, error)

func (f ResolverFunc) Resolve(ctx context.Context, specifier string) (goja.Value, error) {
	return f(ctx, specifier)
}

// Chain tries resolvers in order; the first non-ErrNotHandled answer wins.
type Chain struct {
	table     *Table
	log       *DiagnosticLog
	now       func() time.Time
	fallbacks []Resolver
}

// NewChain builds a chain with table first, followed by fallbacks.
func NewChain(table *Table, log *DiagnosticLog, fallbacks ...Resolver) *Chain {
	if log == nil {
		log = NewDiagnosticLog()
	}
	return &Chain{
		table:     table,
		log:       log,
		now:       time.Now,
		fallbacks: fallbacks,
	}
}

// WithClock replaces the time source used for diagnostic timestamps.
func (c *Chain) WithClock(now func() time.Time) *Chain {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *Chain) Table() *Table {
	return c.table
}

func (c *Chain) Log() *DiagnosticLog {
	return c.log
}

// Resolve resolves specifier. Failures are recorded once in the diagnostic
// log and returned as an import_resolution error wrapping the cause.
func (c *Chain) Resolve(ctx context.Context, specifier string) (goja.Value, error) {
	if c.table != nil {
		if m, ok := c.table.Lookup(specifier); ok {
			return m, nil
		}
	}

	var cause error
	for _, r := range c.fallbacks {
		v, err := r.Resolve(ctx, specifier)
		if err == nil {
			return v, nil
		}
		if stderrors.Is(err, ErrNotHandled) {
			continue
		}
		cause = err
		break
	}
	if cause == nil {
		cause = errors.New(errors.PhaseResolve, errors.KindNotFound).
			Operand(specifier).
			Code(errors.CodeModuleNotFound).
			Detail("Cannot find module '%s'", specifier).
			Build()
	}

	msg := messageOf(cause)
	c.log.Append(specifier, msg, c.now())
	Logger().Debug("import failed", zap.String("specifier", specifier), zap.String("error", msg))
	return nil, errors.ImportResolution(specifier, scriptError{err: cause, msg: msg})
}

// scriptError keeps the cause chain but reads as the script-visible message.
type scriptError struct {
	err error
	msg string
}

func (e scriptError) Error() string { return e.msg }
func (e scriptError) Unwrap() error { return e.err }

// messageOf extracts the text a script would see as error.message.
func messageOf(err error) string {
	var ex *goja.Exception
	if stderrors.As(err, &ex) {
		if obj, ok := ex.Value().(*goja.Object); ok {
			if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
				return m.String()
			}
		}
		return ex.Value().String()
	}
	var ne *errors.Error
	if stderrors.As(err, &ne) {
		return ne.Message()
	}
	return err.Error()
}
