// Package nodecompat lets scripts written against the Node.js standard
// library run on the goja JavaScript engine.
//
// Scripts call require("node:fs") or import("node:path") as usual. The calls
// are answered by emulated modules whose privileged operations go through an
// injected set of host capabilities, so an embedder decides exactly what a
// script may touch.
//
// # Architecture Overview
//
//	nodecompat/
//	├── runtime/         Event loop host: New, Run, Eval, Diagnostics
//	├── bootstrap/       Idempotent install of globals, require and import
//	├── resolve/         Module table, resolver chain, wasm and engine fallbacks
//	├── shim/            Emulated node: modules (fs, path, crypto, util, ...)
//	├── bridge/          Capability checks and error translation per operation
//	├── host/            Capability providers: filesystem, random, hashing, cli, clocks
//	├── events/          Generic listener registry behind EventEmitter
//	├── posixpath/       POSIX path algebra used by node:path
//	├── config/          YAML, TOML and JSON settings with schema validation
//	├── errors/          Structured error types
//	└── cmd/nodecompat/  Script runner and interactive REPL
//
// # Capabilities
//
// Every emulated operation declares the capabilities it needs. A missing
// capability never crashes the runtime; the operation fails with
// ERR_CAPABILITY_UNAVAILABLE and leaves no side effect:
//
//	rt, _ := runtime.New(ctx, runtime.Options{
//	    Providers: runtime.DefaultProviders(runtime.HostOptions{}),
//	    Deny:      []host.Capability{host.CapProcessExit},
//	})
//
// # Import Diagnostics
//
// Failed imports are wrapped as "Failed to import <specifier>: <cause>" and
// recorded once. Scripts read them from __node_compat_state.importErrors and
// Go callers from Runtime.Diagnostics.
package nodecompat
