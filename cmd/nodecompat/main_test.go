package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/node-compat/runtime"
)

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitList = %q", got)
	}
	if got := splitList(""); len(got) != 0 {
		t.Errorf("splitList(\"\") = %q", got)
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	body := "cwd: /app\ndeny: [clock.now]\npreopens:\n  /app: ./app\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cfgPath, "a.env,b.env", dir+":/data", "/data", "process.exit")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Cwd != "/data" {
		t.Errorf("cwd = %q", cfg.Cwd)
	}
	if len(cfg.Deny) != 2 || cfg.Deny[1] != "process.exit" {
		t.Errorf("deny = %v", cfg.Deny)
	}
	if len(cfg.EnvFile) != 2 {
		t.Errorf("env files = %v", cfg.EnvFile)
	}
	if cfg.Preopens["/data"] != dir || cfg.Preopens["/app"] != "./app" {
		t.Errorf("preopens = %v", cfg.Preopens)
	}
}

func TestLoadConfig_BadPreopen(t *testing.T) {
	if _, err := loadConfig("", "", "nocolon", "", ""); err == nil {
		t.Error("preopen without guest path accepted")
	}
}

func TestExitState(t *testing.T) {
	e := &exitState{}
	if _, ok := e.get(); ok {
		t.Fatal("fresh state reports an exit")
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.bind(cancel)
	e.exit(3)
	e.exit(5)
	if code, ok := e.get(); !ok || code != 3 {
		t.Errorf("get() = %d, %v, want 3, true", code, ok)
	}
	if ctx.Err() == nil {
		t.Error("exit did not cancel the run")
	}
}

func TestRun_ProcessExit(t *testing.T) {
	dir := t.TempDir()
	exits := &exitState{}
	opts := runtime.Options{
		Providers: runtime.DefaultProviders(runtime.HostOptions{
			Preopens: map[string]string{"/work": dir},
			Cwd:      "/work",
			Exit:     exits.exit,
		}),
	}

	src := `require("node:fs").writeFileSync("/work/before.txt", "x"); process.exit(7);`
	if err := run(opts, exits, "", src, true); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if code, ok := exits.get(); !ok || code != 7 {
		t.Errorf("exit = %d, %v, want 7, true", code, ok)
	}
	if _, err := os.Stat(filepath.Join(dir, "before.txt")); err != nil {
		t.Errorf("work before exit lost: %v", err)
	}
}

func TestRun_ScriptError(t *testing.T) {
	exits := &exitState{}
	opts := runtime.Options{
		Providers: runtime.DefaultProviders(runtime.HostOptions{Exit: exits.exit}),
	}
	if err := run(opts, exits, "", `throw new Error("boom")`, false); err == nil {
		t.Error("run() swallowed a script error")
	}
	if _, ok := exits.get(); ok {
		t.Error("script error recorded as an exit")
	}
}
