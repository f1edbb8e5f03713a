package runtime

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/wippyai/node-compat/errors"
	"github.com/wippyai/node-compat/host"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// addWasm exports add(i32, i32) i32.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

type exitRecorder struct {
	mu    sync.Mutex
	codes []int
}

func (e *exitRecorder) exit(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.codes = append(e.codes, code)
}

type fixture struct {
	rt    *Runtime
	dir   string
	exits *exitRecorder
}

func newFixture(t *testing.T, deny ...host.Capability) *fixture {
	t.Helper()
	dir := t.TempDir()
	exits := &exitRecorder{}
	ctx := context.Background()
	rt, err := New(ctx, Options{
		Providers: DefaultProviders(HostOptions{
			Preopens: map[string]string{"/work": dir},
			Cwd:      "/work",
			Env:      map[string]string{"HOME": "/home/runner", "HOSTNAME": "ci-box"},
			Exit:     exits.exit,
		}),
		Deny: deny,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := rt.Close(ctx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return &fixture{rt: rt, dir: dir, exits: exits}
}

func (f *fixture) write(t *testing.T, name string, data []byte) {
	t.Helper()
	p := filepath.Join(f.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) run(t *testing.T, src string) {
	t.Helper()
	if err := f.rt.Run(context.Background(), "test.js", src); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func (f *fixture) eval(t *testing.T, src string) string {
	t.Helper()
	out, err := f.rt.Eval(context.Background(), src)
	if err != nil {
		t.Fatalf("Eval(%q) error = %v", src, err)
	}
	return out
}

func TestDefaultProviders(t *testing.T) {
	reg := host.NewRegistry()
	for _, p := range DefaultProviders(HostOptions{}) {
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register(%s) error = %v", p.Namespace(), err)
		}
	}
	caps := reg.Capabilities()
	for _, c := range host.AllCapabilities() {
		if !caps.Has(c) {
			t.Errorf("capability %s missing", c)
		}
	}
}

func TestRun_AsyncFilesystem(t *testing.T) {
	f := newFixture(t)
	f.run(t, `
		const fs = require("node:fs");
		globalThis.out = [];
		fs.promises.writeFile("notes.txt", "first")
			.then(() => fs.promises.readFile("/work/notes.txt", "utf8"))
			.then(text => {
				out.push(text);
				fs.readFile("notes.txt", "utf8", (err, again) => { out.push(err ? err.code : again); });
			});
	`)

	if got := f.eval(t, `out.join(",")`); got != "first,first" {
		t.Errorf("out = %q", got)
	}
	data, err := os.ReadFile(filepath.Join(f.dir, "notes.txt"))
	if err != nil || string(data) != "first" {
		t.Errorf("host file = %q, %v", data, err)
	}
}

func TestRun_Globals(t *testing.T) {
	f := newFixture(t)
	f.run(t, `globalThis.seen = [typeof process, typeof Buffer, typeof URL, typeof __node_compat_state].join(",")`)
	if got := f.eval(t, `seen`); got != "object,function,function,object" {
		t.Errorf("seen = %q", got)
	}
	if got := f.eval(t, `process.env.HOME + " " + process.cwd()`); got != "undefined /work" {
		t.Errorf("env/cwd = %q", got)
	}
	if got := f.eval(t, `require("node:os").homedir() + " " + require("node:os").hostname()`); got != "/home/runner ci-box" {
		t.Errorf("homedir/hostname = %q", got)
	}
	if got := f.eval(t, `require("node:querystring").stringify({a: [1, 2], b: "x y"})`); got != "a=1&a=2&b=x+y" {
		t.Errorf("querystring = %q", got)
	}
}

func TestRun_CommonJSUsesModuleTable(t *testing.T) {
	f := newFixture(t)
	f.write(t, "lib/greet.js", []byte(`
		const path = require("node:path");
		module.exports = { join: (n) => path.join("a", n), same: path === globalThis.__nodeModules["node:path"] };
	`))
	f.run(t, `globalThis.greet = require("./lib/greet.js");`)

	if got := f.eval(t, `greet.join("b")`); got != "a/b" {
		t.Errorf("join = %q", got)
	}
	if got := f.eval(t, `String(greet.same)`); got != "true" {
		t.Errorf("nested require returned a different node:path")
	}
}

func TestRun_ImportFailureDiagnostics(t *testing.T) {
	f := newFixture(t)
	f.run(t, `
		globalThis.msg = "";
		globalThis["import"]("./missing.js").catch(e => { msg = e.message; });
	`)

	if got := f.eval(t, `msg`); !strings.HasPrefix(got, "Failed to import ./missing.js:") {
		t.Errorf("msg = %q", got)
	}
	recs := f.rt.Diagnostics()
	if len(recs) != 1 || recs[0].Specifier != "./missing.js" {
		t.Fatalf("records = %+v", recs)
	}
	if recs[0].Timestamp == 0 {
		t.Error("record has no timestamp")
	}
}

func TestRun_WasmModule(t *testing.T) {
	f := newFixture(t)
	f.write(t, "add.wasm", addWasm)
	f.run(t, `
		globalThis.sum = require("/work/add.wasm").add(2, 40);
		globalThis.cached = require("/work/add.wasm") === require("/work/add.wasm");
	`)
	if got := f.eval(t, `sum`); got != "42" {
		t.Errorf("sum = %q", got)
	}
	if got := f.eval(t, `String(cached)`); got != "true" {
		t.Errorf("cached = %q", got)
	}
}

func TestRun_DeniedCapability(t *testing.T) {
	f := newFixture(t, host.CapFSReadTextSync, host.CapProcessExit)
	if f.rt.Capabilities().Has(host.CapFSReadTextSync) {
		t.Fatal("denied capability still present")
	}
	f.run(t, `
		globalThis.codes = [];
		try { require("node:fs").readFileSync("x.txt"); } catch (e) { codes.push(e.code); }
		process.exit(2);
	`)
	if got := f.eval(t, `codes.join(",")`); got != errors.CodeCapabilityUnavailable {
		t.Errorf("codes = %q", got)
	}
	if len(f.exits.codes) != 0 {
		t.Errorf("exit called with denied capability: %v", f.exits.codes)
	}
}

func TestRun_ProcessExit(t *testing.T) {
	f := newFixture(t)
	f.run(t, `process.exit(3)`)
	if len(f.exits.codes) != 1 || f.exits.codes[0] != 3 {
		t.Errorf("exit codes = %v", f.exits.codes)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.rt.Run(ctx, "spin.js", `for (;;) {}`)
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
}

func TestStartEval(t *testing.T) {
	f := newFixture(t)
	f.rt.Start()
	defer f.rt.Stop()

	if err := f.rt.Run(context.Background(), "x.js", "1"); errors.KindOf(err) != errors.KindInvalidInput {
		t.Errorf("Run() on started loop: %v", err)
	}

	steps := []struct {
		src  string
		want string
	}{
		{`let n = 20`, "undefined"},
		{`n * 2 + 2`, "42"},
		{`require("node:os").platform()`, f.eval(t, `process.platform`)},
		{`({a: 1})`, "{\n  \"a\": 1\n}"},
	}
	for _, s := range steps {
		if got := f.eval(t, s.src); got != s.want {
			t.Errorf("Eval(%q) = %q, want %q", s.src, got, s.want)
		}
	}

	if _, err := f.rt.Eval(context.Background(), `throw new TypeError("boom")`); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Eval(throw) error = %v", err)
	}
}
