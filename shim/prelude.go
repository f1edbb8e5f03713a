package shim

import (
	"github.com/dop251/goja"
)

// Constructors that must be ordinary JS functions so scripts can subclass
// them or call them without new. Methods are attached from Go.

var emitterProgram = goja.MustCompile("node:events", `(function EventEmitter(opts) {
	if (opts !== undefined && opts !== null && typeof opts !== 'object') {
		throw new TypeError('The "options" argument must be of type object');
	}
})`, true)

var assertionErrorProgram = goja.MustCompile("node:assert", `(class AssertionError extends Error {
	constructor(options) {
		options = options || {};
		super(options.message);
		this.name = 'AssertionError';
		this.code = 'ERR_ASSERTION';
		this.actual = options.actual;
		this.expected = options.expected;
		this.operator = options.operator;
		this.generatedMessage = !options.userMessage;
	}
})`, true)

func (b *Builder) runProgram(p *goja.Program) (*goja.Object, error) {
	v, err := b.vm.RunProgram(p)
	if err != nil {
		return nil, err
	}
	return v.ToObject(b.vm), nil
}
