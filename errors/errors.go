package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBridge    Phase = "bridge"    // host capability calls
	PhaseResolve   Phase = "resolve"   // module specifier resolution
	PhaseBootstrap Phase = "bootstrap" // global installation
	PhaseShim      Phase = "shim"      // emulated module surface
	PhaseAssert    Phase = "assert"    // assertion shim
	PhaseHost      Phase = "host"      // capability provider registration
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseLoad      Phase = "load"      // module source and wasm loading
)

// Kind categorizes the error
type Kind string

const (
	KindCapabilityUnavailable Kind = "capability_unavailable"
	KindIOFailure             Kind = "io_failure"
	KindAssertionFailure      Kind = "assertion_failure"
	KindImportResolution      Kind = "import_resolution"
	KindUnsupported           Kind = "unsupported"
	KindNotFound              Kind = "not_found"
	KindInvalidInput          Kind = "invalid_input"
	KindInvalidData           Kind = "invalid_data"
	KindRegistration          Kind = "registration"
	KindInstantiation         Kind = "instantiation"
)

// Node error codes carried on Error.Code.
const (
	CodeCapabilityUnavailable = "ERR_CAPABILITY_UNAVAILABLE"
	CodeAssertion             = "ERR_ASSERTION"
	CodeModuleNotFound        = "ERR_MODULE_NOT_FOUND"
	CodeInvalidArgValue       = "ERR_INVALID_ARG_VALUE"
)

// Error is the structured error type used throughout the compatibility layer
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Op      string // emulated operation, e.g. fs.readFileSync
	Operand string // path, specifier or other input that triggered the failure
	Code    string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Operand != "" {
		b.WriteString(" at ")
		b.WriteString(e.Operand)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Message is the text surfaced to scripts, without the phase prefix.
func (e *Error) Message() string {
	switch {
	case e.Detail != "" && e.Cause != nil:
		return e.Detail + ": " + e.Cause.Error()
	case e.Detail != "":
		return e.Detail
	case e.Cause != nil:
		return e.Cause.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Operand sets the input that triggered the error
func (b *Builder) Operand(operand string) *Builder {
	b.err.Operand = operand
	return b
}

// Code sets the node-style error code
func (b *Builder) Code(code string) *Builder {
	b.err.Code = code
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// CapabilityUnavailable reports that the host does not provide what op needs.
func CapabilityUnavailable(op string) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindCapabilityUnavailable,
		Op:     op,
		Code:   CodeCapabilityUnavailable,
		Detail: fmt.Sprintf("%s is not available on this host", op),
	}
}

// IOFailure wraps a failed host call. The code is taken from the cause when it
// carries one.
func IOFailure(op, operand string, cause error) *Error {
	return &Error{
		Phase:   PhaseBridge,
		Kind:    KindIOFailure,
		Op:      op,
		Operand: operand,
		Code:    CodeOf(cause),
		Cause:   cause,
	}
}

// AssertionFailure creates an assertion error carrying the compared values
func AssertionFailure(op, message string, actual, expected any) *Error {
	return &Error{
		Phase:  PhaseAssert,
		Kind:   KindAssertionFailure,
		Op:     op,
		Code:   CodeAssertion,
		Detail: message,
		Value:  [2]any{actual, expected},
	}
}

// ImportResolution wraps the failure of every resolver for a specifier
func ImportResolution(specifier string, cause error) *Error {
	return &Error{
		Phase:   PhaseResolve,
		Kind:    KindImportResolution,
		Operand: specifier,
		Code:    CodeModuleNotFound,
		Detail:  fmt.Sprintf("Failed to import %s", specifier),
		Cause:   cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Code:   CodeInvalidArgValue,
		Detail: detail,
	}
}

// Registration creates a registration error. An empty name registers the
// namespace itself.
func Registration(phase Phase, namespace, name string, cause error) *Error {
	detail := "register " + namespace
	if name != "" {
		detail += "#" + name
	}
	return &Error{
		Phase:   phase,
		Kind:    KindRegistration,
		Operand: namespace,
		Detail:  detail,
		Cause:   cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Coder is implemented by host errors that know their errno-style code.
type Coder interface {
	Code() string
}

// CodeOf returns the first code found along the cause chain.
func CodeOf(err error) string {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			if e.Code != "" {
				return e.Code
			}
		case Coder:
			if c := e.Code(); c != "" {
				return c
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// KindOf returns the kind of the outermost *Error in the chain, or "".
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
