package shim

import (
	"regexp"
	"testing"

	"github.com/dop251/goja"

	"github.com/wippyai/node-compat/errors"
)

func TestBuffer(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		src  string
		want string
	}{
		{`Buffer.from("hello").toString("hex")`, "68656c6c6f"},
		{`Buffer.from("68656c6c6f", "hex").toString()`, "hello"},
		{`Buffer.from("68656c6c6fzz", "hex").toString()`, "hello"},
		{`Buffer.from("hello").toString("base64")`, "aGVsbG8="},
		{`Buffer.from("aGVsbG8", "base64").toString()`, "hello"},
		{`Buffer.from("hello").toString("utf8", 1, 3)`, "el"},
		{`Buffer.from([104, 105]).toString()`, "hi"},
		{`String(Buffer.from("A")[0])`, "65"},
		{`String(Buffer.from("é", "latin1").length)`, "1"},
		{`Buffer.from("hi", "utf16le").toString("hex")`, "68006900"},
		{`JSON.stringify(Buffer.alloc(3, 1))`, `{"type":"Buffer","data":[1,1,1]}`},
		{`Buffer.alloc(5, "ab").toString()`, "ababa"},
		{`String(Buffer.alloc(2).length)`, "2"},
		{`String(Buffer.byteLength("héllo"))`, "6"},
		{`Buffer.concat([Buffer.from("a"), Buffer.from("bc")]).toString()`, "abc"},
		{`Buffer.concat([Buffer.from("abc")], 2).toString()`, "ab"},
		{`String(Buffer.isBuffer(Buffer.from("x")))`, "true"},
		{`String(Buffer.isBuffer("x"))`, "false"},
		{`String(Buffer.isEncoding("hex"))`, "true"},
		{`String(Buffer.isEncoding("klingon"))`, "false"},
		{`String(Buffer.from("x").equals(Buffer.from("x")))`, "true"},
		{`String(Buffer.from("x") instanceof Uint8Array)`, "true"},
		{`Buffer("ctor").toString()`, "ctor"},
		{`Buffer.from({length: 2, 0: 104, 1: 105}).toString()`, "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := f.str(t, tt.src); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.src, got, tt.want)
			}
		})
	}

	errs := []struct {
		src  string
		code string
	}{
		{`Buffer.alloc(-1)`, "ERR_INVALID_ARG_VALUE"},
		{`Buffer.from({length: -1})`, "ERR_INVALID_ARG_VALUE"},
		{`Buffer.from({length: 2 ** 31})`, "ERR_INVALID_ARG_VALUE"},
		{`Buffer.from({length: 1.5})`, "ERR_INVALID_ARG_VALUE"},
		{`Buffer.from({length: NaN})`, "ERR_INVALID_ARG_VALUE"},
		{`Buffer.byteLength({length: -1})`, "ERR_INVALID_ARG_VALUE"},
		{`crypto.createHash("sha256").update({length: -1})`, "ERR_INVALID_ARG_VALUE"},
		{`Buffer.from("x", "klingon")`, "ERR_UNKNOWN_ENCODING"},
	}
	for _, tt := range errs {
		t.Run(tt.src, func(t *testing.T) {
			if got := f.evalThrows(t, tt.src).Get("code").String(); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestCrypto(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		src  string
		want string
	}{
		{`crypto.createHash("sha256").update("abc").digest("hex")`,
			"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{`crypto.createHash("sha256").update("a").update("bc").digest("hex")`,
			"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{`crypto.createHash("md5").update("").digest("hex")`,
			"d41d8cd98f00b204e9800998ecf8427e"},
		{`crypto.createHash("sha1").update(Buffer.from("abc")).digest("base64")`,
			"qZk+NkcGgWq6PiVxeFDCbJzQ2J0="},
		{`crypto.createHmac("sha256", "key").update("The quick brown fox jumps over the lazy dog").digest("hex")`,
			"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"},
		{`String(crypto.createHash("sha256").update("x").digest().length)`, "32"},
		{`String(crypto.randomBytes(16).length)`, "16"},
		{`String(Buffer.isBuffer(crypto.randomBytes(4)))`, "true"},
		{`String(crypto.getHashes().includes("sha512"))`, "true"},
		{`String(crypto.timingSafeEqual(Buffer.from("ab"), Buffer.from("ab")))`, "true"},
		{`String(crypto.timingSafeEqual(Buffer.from("ab"), Buffer.from("ac")))`, "false"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := f.str(t, tt.src); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("randomUUID", func(t *testing.T) {
		re := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
		id := f.str(t, `crypto.randomUUID()`)
		if !re.MatchString(id) {
			t.Errorf("randomUUID() = %q", id)
		}
		if id == f.str(t, `crypto.randomUUID()`) {
			t.Error("randomUUID repeated")
		}
	})

	t.Run("digest twice", func(t *testing.T) {
		ex := f.evalThrows(t, `const h = crypto.createHash("sha256"); h.digest(); h.digest()`)
		if got := ex.Get("code").String(); got != "ERR_CRYPTO_HASH_FINALIZED" {
			t.Errorf("code = %q", got)
		}
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		ex := f.evalThrows(t, `crypto.createHash("whirlpool")`)
		if got := ex.Get("message").String(); got != "Digest method not supported: whirlpool" {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("randomBytes callback", func(t *testing.T) {
		f.eval(t, `globalThis.rb = null; crypto.randomBytes(8, (err, buf) => { rb = err ? "err" : buf.length; })`)
		if got := f.str(t, `String(rb)`); got != "null" {
			t.Fatalf("callback ran synchronously: %s", got)
		}
		f.sched.drain(t)
		if got := f.str(t, `String(rb)`); got != "8" {
			t.Errorf("rb = %s", got)
		}
	})

	t.Run("bad size", func(t *testing.T) {
		f.evalThrows(t, `crypto.randomBytes(-1)`)
	})
}

func TestCrypto_WithoutCapabilities(t *testing.T) {
	f := newBareFixture(t)
	for _, src := range []string{
		`crypto.randomBytes(4)`,
		`crypto.randomUUID()`,
		`crypto.createHash("sha256")`,
	} {
		t.Run(src, func(t *testing.T) {
			if got := f.evalThrows(t, src).Get("code").String(); got != "ERR_CAPABILITY_UNAVAILABLE" {
				t.Errorf("code = %q", got)
			}
		})
	}
}

func TestEventEmitter(t *testing.T) {
	f := newFixture(t)
	f.eval(t, `
		const { EventEmitter } = events;
		globalThis.e = new EventEmitter();
		globalThis.seen = [];
		globalThis.a = (x) => seen.push("a" + x);
		globalThis.b = (x) => seen.push("b" + x);
	`)

	t.Run("emit without listeners", func(t *testing.T) {
		if f.eval(t, `e.emit("nothing", 1)`).ToBoolean() {
			t.Error("emit() = true with no listeners")
		}
		if f.eval(t, `e.emit("error", new Error("x"))`).ToBoolean() {
			t.Error("emit('error') = true with no listeners")
		}
	})

	t.Run("registration order and chaining", func(t *testing.T) {
		f.eval(t, `seen.length = 0; e.on("x", a).on("x", b); e.prependListener("x", (v) => seen.push("p" + v))`)
		if !f.eval(t, `e.emit("x", 1)`).ToBoolean() {
			t.Error("emit() = false")
		}
		if got := f.str(t, `seen.join(",")`); got != "p1,a1,b1" {
			t.Errorf("order = %s", got)
		}
	})

	t.Run("failing listener does not stop dispatch", func(t *testing.T) {
		f.eval(t, `seen.length = 0; e.on("y", () => { throw new Error("boom") }); e.on("y", a)`)
		if !f.eval(t, `e.emit("y", 2)`).ToBoolean() {
			t.Error("emit() = false")
		}
		if got := f.str(t, `seen.join(",")`); got != "a2" {
			t.Errorf("seen = %s", got)
		}
	})

	t.Run("off removes every copy", func(t *testing.T) {
		f.eval(t, `seen.length = 0; e.on("z", a); e.on("z", a); e.on("z", b)`)
		if got := f.str(t, `String(e.listenerCount("z"))`); got != "3" {
			t.Errorf("listenerCount = %s", got)
		}
		f.eval(t, `e.off("z", a); e.emit("z", 3)`)
		if got := f.str(t, `seen.join(",")`); got != "b3" {
			t.Errorf("seen = %s", got)
		}
	})

	t.Run("once", func(t *testing.T) {
		f.eval(t, `seen.length = 0; e.once("o", a); e.emit("o", 4); e.emit("o", 5)`)
		if got := f.str(t, `seen.join(",")`); got != "a4" {
			t.Errorf("seen = %s", got)
		}
	})

	t.Run("eventNames and removeAllListeners", func(t *testing.T) {
		f.eval(t, `globalThis.e2 = new EventEmitter(); e2.on("one", a); e2.on("two", b)`)
		if got := f.str(t, `e2.eventNames().join(",")`); got != "one,two" {
			t.Errorf("eventNames = %s", got)
		}
		f.eval(t, `e2.removeAllListeners("one")`)
		if got := f.str(t, `e2.eventNames().join(",")`); got != "two" {
			t.Errorf("after removeAll(one) = %s", got)
		}
		f.eval(t, `e2.removeAllListeners()`)
		if got := f.str(t, `String(e2.eventNames().length)`); got != "0" {
			t.Errorf("after removeAll() = %s", got)
		}
	})

	t.Run("subclass", func(t *testing.T) {
		got := f.str(t, `
			class Job extends EventEmitter {}
			const j = new Job();
			let out = "";
			j.on("done", (v) => { out = v; });
			j.emit("done", "ok");
			out + ":" + (j instanceof EventEmitter);
		`)
		if got != "ok:true" {
			t.Errorf("subclass = %s", got)
		}
	})

	t.Run("process is an emitter", func(t *testing.T) {
		got := f.str(t, `let p = ""; process.on("custom", (v) => { p = v; }); process.emit("custom", "yes"); p`)
		if got != "yes" {
			t.Errorf("process emit = %q", got)
		}
	})

	t.Run("non-function listener", func(t *testing.T) {
		f.evalThrows(t, `e.on("bad", 42)`)
	})
}

func TestUtil(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		src  string
		want string
	}{
		{`util.format("%s=%d", "a", 42)`, "a=42"},
		{`util.format("%j", {a: 1})`, `{"a":1}`},
		{`util.format("100%%")`, "100%"},
		{`util.format("%s", "x", "extra", 3)`, "x extra 3"},
		{`util.format("%d", "nope")`, "NaN"},
		{`util.format("%i", 4.7)`, "4"},
		{`util.format("%s and %s", "one")`, "one and %s"},
		{`util.format(1, 2)`, "1 2"},
		{`util.format()`, ""},
		{`util.inspect({a: 1})`, "{\n  \"a\": 1\n}"},
		{`util.inspect({a: 1}, {depth: 4})`, "{\n    \"a\": 1\n}"},
		{`util.inspect(undefined)`, "undefined"},
		{`util.inspect(42)`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := f.str(t, tt.src); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("promisify", func(t *testing.T) {
		f.eval(t, `
			globalThis.pr = {};
			const double = util.promisify((x, cb) => cb(null, x * 2));
			const fail = util.promisify((cb) => cb(new Error("nope")));
			double(21).then(v => { pr.value = v; });
			fail().catch(e => { pr.err = e.message; });
		`)
		if got := f.str(t, `pr.value + "/" + pr.err`); got != "42/nope" {
			t.Errorf("promisify = %s", got)
		}
	})

	t.Run("inherits", func(t *testing.T) {
		got := f.str(t, `
			function Base() {}
			Base.prototype.hello = function () { return "hi"; };
			function Child() {}
			util.inherits(Child, Base);
			new Child().hello() + ":" + (Child.super_ === Base);
		`)
		if got != "hi:true" {
			t.Errorf("inherits = %s", got)
		}
	})
}

func TestAssert(t *testing.T) {
	f := newFixture(t)

	passes := []string{
		`assert(true)`,
		`assert.ok(1)`,
		`assert.equal(1, 1)`,
		`assert.strictEqual("a", "a")`,
		`assert.notEqual(1, 2)`,
		`assert.deepEqual({a: [1, 2]}, {a: [1, 2]})`,
		`assert.deepStrictEqual([], [])`,
		`assert.notDeepEqual({a: 1}, {a: 2})`,
		`assert.throws(() => { throw new TypeError("x"); }, TypeError)`,
		`assert.throws(() => { throw new Error("x"); })`,
	}
	for _, src := range passes {
		t.Run(src, func(t *testing.T) {
			f.eval(t, src)
		})
	}

	fails := []struct {
		src      string
		operator string
	}{
		{`assert(false)`, "=="},
		{`assert.ok(0, "custom")`, "=="},
		{`assert.equal(1, "1")`, "strictEqual"},
		{`assert.notStrictEqual(1, 1)`, "notStrictEqual"},
		{`assert.deepEqual({a: 1}, {a: 2})`, "deepEqual"},
		{`assert.fail("boom")`, "fail"},
		{`assert.throws(() => {})`, "throws"},
	}
	for _, tt := range fails {
		t.Run(tt.src, func(t *testing.T) {
			ex := f.evalThrows(t, tt.src)
			if got := ex.Get("name").String(); got != "AssertionError" {
				t.Errorf("name = %q", got)
			}
			if got := ex.Get("code").String(); got != "ERR_ASSERTION" {
				t.Errorf("code = %q", got)
			}
			if got := ex.Get("operator").String(); got != tt.operator {
				t.Errorf("operator = %q, want %q", got, tt.operator)
			}
		})
	}

	t.Run("message and values", func(t *testing.T) {
		got := f.str(t, `
			let out;
			try { assert.strictEqual(1, 2, "numbers differ"); } catch (e) {
				out = [e.message, e.actual, e.expected, e.generatedMessage, e instanceof assert.AssertionError, e instanceof Error].join("|");
			}
			out;
		`)
		if got != "numbers differ|1|2|false|true|true" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("message kept verbatim", func(t *testing.T) {
		ex := f.evalThrows(t, `assert.strictEqual(1, 2, "100% off by %d")`)
		if got := ex.Get("message").String(); got != "100% off by %d" {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("go assertion failure", func(t *testing.T) {
		v := f.b.ErrorValue(errors.AssertionFailure("strictEqual", "values differ", 1, 2))
		ex, ok := v.(*goja.Object)
		if !ok {
			t.Fatalf("ErrorValue = %v", v)
		}
		if got := ex.Get("name").String(); got != "AssertionError" {
			t.Errorf("name = %q", got)
		}
		got := []string{
			ex.Get("message").String(),
			ex.Get("operator").String(),
			ex.Get("actual").String(),
			ex.Get("expected").String(),
			ex.Get("generatedMessage").String(),
		}
		want := []string{"values differ", "strictEqual", "1", "2", "true"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("field %d = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("fail default message", func(t *testing.T) {
		if got := f.evalThrows(t, `assert.fail()`).Get("message").String(); got != "Failed" {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("throws rethrows mismatched", func(t *testing.T) {
		ex := f.evalThrows(t, `assert.throws(() => { throw new Error("plain"); }, TypeError)`)
		if got := ex.Get("message").String(); got != "plain" {
			t.Errorf("message = %q", got)
		}
	})
}
