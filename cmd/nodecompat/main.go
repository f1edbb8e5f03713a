package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/node-compat/bootstrap"
	"github.com/wippyai/node-compat/bridge"
	"github.com/wippyai/node-compat/config"
	"github.com/wippyai/node-compat/events"
	"github.com/wippyai/node-compat/host"
	"github.com/wippyai/node-compat/resolve"
	"github.com/wippyai/node-compat/runtime"
	"github.com/wippyai/node-compat/shim"
)

func main() {
	var (
		scriptFile  = flag.String("script", "", "Path to a script to run")
		source      = flag.String("e", "", "Source text to evaluate")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		configFile  = flag.String("config", "", "Config file (.yaml, .toml or .json)")
		envFiles    = flag.String("env-file", "", "Env files to load (comma-separated)")
		preopens    = flag.String("preopens", "", "Preopened directories (/host:/guest,/host2:/guest2)")
		cwd         = flag.String("cwd", "", "Script working directory")
		deny        = flag.String("deny", "", "Capabilities to withhold (comma-separated)")
		diag        = flag.Bool("diag", false, "Print import failures as JSON to stderr on exit")
		console     = flag.Bool("console", true, "Bind the console global")
	)
	flag.Parse()

	if *scriptFile == "" && *source == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: nodecompat -script <file.js> [-config file] [-preopens /host:/guest,...] [-deny cap,...]")
		fmt.Fprintln(os.Stderr, "       nodecompat -e <source>")
		fmt.Fprintln(os.Stderr, "       nodecompat -i  (interactive mode)")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFile, *envFiles, *preopens, *cwd, *deny)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setLoggers(log)
	exit := func(code int) {
		_ = log.Sync()
		os.Exit(code)
	}

	exits := &exitState{}
	opts, err := cfg.Options(exits.exit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
	opts.Console = *console

	if *interactive {
		err = runInteractive(opts)
	} else {
		err = run(opts, exits, *scriptFile, *source, *diag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
	if code, ok := exits.get(); ok {
		exit(code)
	}
	_ = log.Sync()
}

func setLoggers(l *zap.Logger) {
	host.SetLogger(l.Named("host"))
	bridge.SetLogger(l.Named("bridge"))
	events.SetLogger(l.Named("events"))
	shim.SetLogger(l.Named("shim"))
	resolve.SetLogger(l.Named("resolve"))
	bootstrap.SetLogger(l.Named("bootstrap"))
	runtime.SetLogger(l.Named("runtime"))
}

// loadConfig merges flags over the config file. Flags win.
func loadConfig(path, envFiles, preopensStr, cwd, deny string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if envFiles != "" {
		cfg.EnvFile = append(cfg.EnvFile, splitList(envFiles)...)
	}

	if preopensStr != "" {
		if cfg.Preopens == nil {
			cfg.Preopens = make(map[string]string)
		}
		for _, mapping := range splitList(preopensStr) {
			parts := strings.SplitN(mapping, ":", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("invalid preopen %q, want /host:/guest", mapping)
			}
			physical, err := filepath.Abs(parts[0])
			if err != nil {
				return nil, fmt.Errorf("preopen %s: %w", parts[0], err)
			}
			cfg.Preopens[parts[1]] = physical
		}
	}

	if cwd != "" {
		cfg.Cwd = cwd
	}
	if deny != "" {
		cfg.Deny = append(cfg.Deny, splitList(deny)...)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// exitState records the first process.exit code and cancels the run, so the
// runtime closes and diagnostics print before the CLI exits.
type exitState struct {
	mu     sync.Mutex
	code   int
	exited bool
	cancel context.CancelFunc
}

func (e *exitState) exit(code int) {
	e.mu.Lock()
	if !e.exited {
		e.code = code
		e.exited = true
	}
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *exitState) get() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.code, e.exited
}

func (e *exitState) bind(cancel context.CancelFunc) {
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
}

func run(opts runtime.Options, exits *exitState, scriptFile, source string, diag bool) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	exits.bind(cancel)

	name := "<eval>"
	if scriptFile != "" {
		data, err := os.ReadFile(scriptFile)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		name = scriptFile
		source = string(data)
	}

	rt, err := runtime.New(sigCtx, opts)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(sigCtx)

	runErr := rt.Run(ctx, name, source)

	if diag {
		out, err := json.MarshalIndent(rt.Diagnostics(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode diagnostics: %w", err)
		}
		fmt.Fprintf(os.Stderr, "%s\n", out)
	}

	if _, exited := exits.get(); exited {
		return nil
	}
	if runErr != nil {
		return fmt.Errorf("run %s: %w", name, runErr)
	}
	return nil
}
