package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type codedErr struct{ code string }

func (e codedErr) Error() string { return "coded " + e.code }
func (e codedErr) Code() string { return e.code }

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseBridge,
				Kind:    KindIOFailure,
				Op:      "fs.readFileSync",
				Operand: "/tmp/x",
				Detail:  "cannot read",
			},
			contains: []string{"[bridge]", "io_failure", "fs.readFileSync", "/tmp/x", "cannot read"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseResolve,
				Kind:  KindImportResolution,
			},
			contains: []string{"[resolve]", "import_resolution"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInstantiation,
				Detail: "instantiate module",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "instantiation", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := IOFailure("fs.writeFileSync", "/a", cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := CapabilityUnavailable("crypto.randomBytes")

	if !errors.Is(err, &Error{Phase: PhaseBridge, Kind: KindCapabilityUnavailable}) {
		t.Error("expected match on phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseBridge, Kind: KindIOFailure}) {
		t.Error("unexpected match on different kind")
	}
	if errors.Is(err, &Error{Phase: PhaseShim, Kind: KindCapabilityUnavailable}) {
		t.Error("unexpected match on different phase")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseBridge, KindIOFailure).
		Op("fs.readFile").
		Operand("/data").
		Code("EACCES").
		Value(42).
		Cause(cause).
		Detail("read %s", "/data").
		Build()

	if err.Op != "fs.readFile" || err.Operand != "/data" || err.Code != "EACCES" {
		t.Errorf("builder fields not set: %+v", err)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if err.Detail != "read /data" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
		code  string
	}{
		{"capability", CapabilityUnavailable("fs.existsSync"), PhaseBridge, KindCapabilityUnavailable, CodeCapabilityUnavailable},
		{"io", IOFailure("fs.readFileSync", "/x", codedErr{"ENOENT"}), PhaseBridge, KindIOFailure, "ENOENT"},
		{"io uncoded", IOFailure("fs.readFileSync", "/x", errors.New("plain")), PhaseBridge, KindIOFailure, ""},
		{"assertion", AssertionFailure("assert.ok", "nope", false, true), PhaseAssert, KindAssertionFailure, CodeAssertion},
		{"import", ImportResolution("missing-pkg", errors.New("nope")), PhaseResolve, KindImportResolution, CodeModuleNotFound},
		{"invalid", InvalidInput(PhaseBridge, "negative size"), PhaseBridge, KindInvalidInput, CodeInvalidArgValue},
		{"not found", NotFound(PhaseHost, "provider", "fs"), PhaseHost, KindNotFound, ""},
		{"unsupported", Unsupported(PhaseShim, "digest encoding"), PhaseShim, KindUnsupported, ""},
		{"instantiation", Instantiation(errors.New("bad")), PhaseLoad, KindInstantiation, ""},
		{"registration", Registration(PhaseHost, "env", "", errors.New("dup")), PhaseHost, KindRegistration, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %s, want %s", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", tt.err.Kind, tt.kind)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
		})
	}
}

func TestImportResolution_Message(t *testing.T) {
	err := ImportResolution("left-pad", errors.New("Cannot find module 'left-pad'"))
	msg := err.Message()
	if msg != "Failed to import left-pad: Cannot find module 'left-pad'" {
		t.Errorf("Message() = %q", msg)
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", IOFailure("fs.stat", "/x", codedErr{"EISDIR"}))
	if got := CodeOf(wrapped); got != "EISDIR" {
		t.Errorf("CodeOf = %q, want EISDIR", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if got := KindOf(wrapped); got != KindIOFailure {
		t.Errorf("KindOf = %q, want io_failure", got)
	}
}
