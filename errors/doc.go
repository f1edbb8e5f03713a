// Package errors provides structured error types for the node-compat layer.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the emulated operation, the operand that triggered the
// failure, a node-style code and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBridge, errors.KindIOFailure).
//		Op("fs.readFileSync").
//		Operand("/etc/app.conf").
//		Code("ENOENT").
//		Cause(cause).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.CapabilityUnavailable("crypto.randomBytes")
//	err := errors.ImportResolution("left-pad", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
