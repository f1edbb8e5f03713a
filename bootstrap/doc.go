// Package bootstrap installs the node compatibility layer into a goja runtime.
//
// Install is idempotent. The first call builds the shims, binds the guarded
// globals (process, Buffer, global, __nodeModules) only where the host left
// them undefined, replaces require and import with resolvers backed by the
// module table, and exposes __node_compat_state:
//
//	{installed: true, specifiers: [...], importErrors: [...]}
//
// importErrors is a live view of the diagnostic log. Later calls return the
// same *State without touching the global object.
package bootstrap
