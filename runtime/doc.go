// Package runtime hosts a goja runtime on an event loop with the node
// compatibility layer installed.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.Options{
//	    Providers: runtime.DefaultProviders(runtime.HostOptions{
//	        Preopens: map[string]string{"/app": "./app"},
//	        Cwd:      "/app",
//	    }),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	err = rt.Run(ctx, "main.js", `
//	    const fs = require("node:fs");
//	    fs.promises.readFile("config.json").then(console.log);
//	`)
//
// # Module Resolution
//
// require and import consult, in order:
//
//	module table      - node:fs, node:path and the other emulated modules
//	Options.Resolvers - caller supplied resolvers
//	wasm              - specifiers ending in .wasm, compiled with wazero
//	engine require    - CommonJS files read through the filesystem capability
//
// CommonJS files loaded by the engine see the same node: modules through
// their own require. Failures are recorded and available from Diagnostics.
//
// # Interactive Use
//
// Start runs the loop in the background. Eval then evaluates snippets one at
// a time against the same global scope until Stop or Close.
package runtime
