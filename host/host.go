package host

import (
	"context"
	"fmt"
	"hash"
	"slices"
	"sync"
	"time"

	"github.com/wippyai/node-compat/errors"
)

// Capability names a privileged host operation.
type Capability string

const (
	CapFSStat              Capability = "fs.stat"
	CapFSRead              Capability = "fs.read"
	CapFSReadTextSync      Capability = "fs.read-text-sync"
	CapFSReadTextAsync     Capability = "fs.read-text-async"
	CapFSWriteTextSync     Capability = "fs.write-text-sync"
	CapFSWriteTextAsync    Capability = "fs.write-text-async"
	CapRandomBytes         Capability = "random.bytes"
	CapRandomUUID          Capability = "random.uuid"
	CapCryptoHash          Capability = "crypto.hash"
	CapProcessExit         Capability = "process.exit"
	CapProcessCwd          Capability = "process.cwd"
	CapEnvGet              Capability = "env.get"
	CapBuildOS             Capability = "build.os"
	CapBuildArch           Capability = "build.arch"
	CapHardwareConcurrency Capability = "build.hardware-concurrency"
	CapClockNow            Capability = "clock.now"
)

// Provider is a host module offering one or more capabilities.
// Capabilities are discovered by the interfaces below.
type Provider interface {
	// Namespace identifies the provider, e.g. "node-compat:fs".
	Namespace() string
}

// FileInfo describes a path on the host filesystem.
type FileInfo struct {
	ModTime time.Time
	Name    string
	Size    int64
	IsDir   bool
}

type Stater interface {
	Stat(ctx context.Context, path string) (FileInfo, error)
}

type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

type TextReader interface {
	ReadTextFile(ctx context.Context, path string) (string, error)
}

// AsyncTextReader completes on any goroutine; done may be called more than once
// by a misbehaving provider and callers must tolerate that.
type AsyncTextReader interface {
	ReadTextFileAsync(ctx context.Context, path string, done func(string, error))
}

type TextWriter interface {
	WriteTextFile(ctx context.Context, path, data string) error
}

type AsyncTextWriter interface {
	WriteTextFileAsync(ctx context.Context, path, data string, done func(error))
}

type RandomSource interface {
	RandomBytes(ctx context.Context, n int) ([]byte, error)
}

type UUIDSource interface {
	RandomUUID(ctx context.Context) (string, error)
}

// Hasher creates digests. A non-nil key produces an HMAC.
type Hasher interface {
	NewHash(ctx context.Context, algorithm string, key []byte) (hash.Hash, error)
	Algorithms() []string
}

type Exiter interface {
	Exit(ctx context.Context, code int)
}

type WorkingDir interface {
	Cwd(ctx context.Context) (string, error)
}

type Environ interface {
	LookupEnv(ctx context.Context, key string) (string, bool)
}

type PlatformInfo interface {
	BuildOS(ctx context.Context) string
}

type ArchInfo interface {
	BuildArch(ctx context.Context) string
}

type ConcurrencyInfo interface {
	HardwareConcurrency(ctx context.Context) int
}

type Clock interface {
	Now(ctx context.Context) time.Time
}

func implements[T any](p Provider) bool {
	_, ok := p.(T)
	return ok
}

var probes = []struct {
	match func(Provider) bool
	cap   Capability
}{
	{implements[Stater], CapFSStat},
	{implements[FileReader], CapFSRead},
	{implements[TextReader], CapFSReadTextSync},
	{implements[AsyncTextReader], CapFSReadTextAsync},
	{implements[TextWriter], CapFSWriteTextSync},
	{implements[AsyncTextWriter], CapFSWriteTextAsync},
	{implements[RandomSource], CapRandomBytes},
	{implements[UUIDSource], CapRandomUUID},
	{implements[Hasher], CapCryptoHash},
	{implements[Exiter], CapProcessExit},
	{implements[WorkingDir], CapProcessCwd},
	{implements[Environ], CapEnvGet},
	{implements[PlatformInfo], CapBuildOS},
	{implements[ArchInfo], CapBuildArch},
	{implements[ConcurrencyInfo], CapHardwareConcurrency},
	{implements[Clock], CapClockNow},
}

// AllCapabilities lists every capability the bridge knows about.
func AllCapabilities() []Capability {
	out := make([]Capability, len(probes))
	for i, p := range probes {
		out[i] = p.cap
	}
	return out
}

// Registry collects providers before the capability set is frozen.
type Registry struct {
	byNS      map[string]struct{}
	providers []Provider
	mu        sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{byNS: make(map[string]struct{})}
}

// Register adds a provider. Earlier providers win when two offer the same capability.
func (r *Registry) Register(p Provider) error {
	ns := p.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byNS[ns]; dup {
		return errors.Registration(errors.PhaseHost, ns, "", fmt.Errorf("provider %q already registered", ns))
	}
	r.byNS[ns] = struct{}{}
	r.providers = append(r.providers, p)
	return nil
}

// Capabilities probes every registered provider once and returns the frozen set.
func (r *Registry) Capabilities() *Capabilities {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Capabilities{impl: make(map[Capability]Provider, len(probes))}
	for _, p := range r.providers {
		for _, probe := range probes {
			if _, taken := c.impl[probe.cap]; taken {
				continue
			}
			if probe.match(p) {
				c.impl[probe.cap] = p
				Logger().Debug("capability resolved",
					zapCap(probe.cap), zapNS(p.Namespace()))
			}
		}
	}
	return c
}

// Capabilities is an immutable snapshot of resolved providers.
type Capabilities struct {
	impl map[Capability]Provider
}

// Has reports whether every listed capability is present.
func (c *Capabilities) Has(caps ...Capability) bool {
	if c == nil {
		return len(caps) == 0
	}
	for _, cp := range caps {
		if _, ok := c.impl[cp]; !ok {
			return false
		}
	}
	return true
}

// List returns the present capabilities in sorted order.
func (c *Capabilities) List() []Capability {
	if c == nil {
		return nil
	}
	out := make([]Capability, 0, len(c.impl))
	for cp := range c.impl {
		out = append(out, cp)
	}
	slices.Sort(out)
	return out
}

// Without returns a copy with the listed capabilities withheld.
func (c *Capabilities) Without(caps ...Capability) *Capabilities {
	out := &Capabilities{impl: make(map[Capability]Provider)}
	if c == nil {
		return out
	}
	for cp, p := range c.impl {
		if !slices.Contains(caps, cp) {
			out.impl[cp] = p
		}
	}
	return out
}

// Lookup returns the provider backing cp as T.
func Lookup[T any](c *Capabilities, cp Capability) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	p, ok := c.impl[cp]
	if !ok {
		return zero, false
	}
	t, ok := p.(T)
	return t, ok
}
