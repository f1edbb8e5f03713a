// Package bridge translates host capabilities into the calling conventions of
// the emulated node modules.
//
// Every operation is declared as an Op with a static list of required
// capabilities. A call first checks the frozen capability set and fails with
// a capability_unavailable error before touching the host; a failed host call
// is returned as an io_failure carrying the operand and the original cause.
//
// Synchronous and asynchronous variants are bridged separately. Asynchronous
// completions are guarded so the caller's callback runs exactly once even if
// the provider completes twice:
//
//	b := bridge.New(registry.Capabilities())
//	b.ReadTextFile(ctx, "/data/in.txt", func(text string, err error) {
//		// runs once
//	})
package bridge
