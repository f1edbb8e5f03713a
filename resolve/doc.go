// Package resolve maps module specifiers to values for require and import.
//
// Resolution runs through a Chain built once per runtime. The Table of
// emulated node modules always comes first, so a registered specifier never
// reaches a later resolver:
//
//	table, _ := resolve.NewTable(set)
//	chain := resolve.NewChain(table, log,
//		resolve.NewWasmResolver(vm, wasmRuntime, loader),
//		resolve.NewEngineResolver(vm, originalRequire),
//	)
//	mod, err := chain.Resolve(ctx, "node:path")
//
// A resolver that does not recognise a specifier returns ErrNotHandled and
// the next one is tried. Any other error stops the chain: one
// ImportErrorRecord is appended to the DiagnosticLog and an
// import_resolution error naming the specifier is returned.
package resolve
