// Package cli implements process-level host capabilities.
//
// Implements:
//   - node-compat:environment - environment lookup and working directory
//   - node-compat:exit - process exit
//   - node-compat:build - OS, architecture and hardware concurrency
//
// It also exposes cached terminal detection for the command-line front end.
package cli
