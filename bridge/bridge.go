package bridge

import (
	"context"
	"hash"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/node-compat/errors"
	"github.com/wippyai/node-compat/host"
)

// Op is an emulated operation and the host capabilities it needs.
type Op struct {
	Name  string
	Needs []host.Capability
}

var (
	OpExistsSync    = Op{"fs.existsSync", []host.Capability{host.CapFSStat}}
	OpReadFileSync  = Op{"fs.readFileSync", []host.Capability{host.CapFSReadTextSync}}
	OpWriteFileSync = Op{"fs.writeFileSync", []host.Capability{host.CapFSWriteTextSync}}
	OpReadFile      = Op{"fs.readFile", []host.Capability{host.CapFSReadTextAsync}}
	OpWriteFile     = Op{"fs.writeFile", []host.Capability{host.CapFSWriteTextAsync}}
	OpLoadModule    = Op{"module.load", []host.Capability{host.CapFSRead}}
	OpRandomBytes   = Op{"crypto.randomBytes", []host.Capability{host.CapRandomBytes}}
	OpRandomUUID    = Op{"crypto.randomUUID", []host.Capability{host.CapRandomUUID}}
	OpCreateHash    = Op{"crypto.createHash", []host.Capability{host.CapCryptoHash}}
	OpExit          = Op{"process.exit", []host.Capability{host.CapProcessExit}}
	OpCwd           = Op{"process.cwd", []host.Capability{host.CapProcessCwd}}
	OpEnv           = Op{"env.get", []host.Capability{host.CapEnvGet}}
	OpPlatform      = Op{"os.platform", []host.Capability{host.CapBuildOS}}
	OpArch          = Op{"os.arch", []host.Capability{host.CapBuildArch}}
	OpCPUs          = Op{"os.cpus", []host.Capability{host.CapHardwareConcurrency}}
	OpNow           = Op{"clock.now", []host.Capability{host.CapClockNow}}
)

// Ops lists every bridged operation.
func Ops() []Op {
	return []Op{
		OpExistsSync, OpReadFileSync, OpWriteFileSync, OpReadFile, OpWriteFile,
		OpLoadModule, OpRandomBytes, OpRandomUUID, OpCreateHash, OpExit, OpCwd,
		OpEnv, OpPlatform, OpArch, OpCPUs, OpNow,
	}
}

// Bridge wraps host capabilities with availability checks and uniform
// error translation. Each call makes at most one host call.
type Bridge struct {
	caps *host.Capabilities
}

func New(caps *host.Capabilities) *Bridge {
	return &Bridge{caps: caps}
}

// Capabilities returns the set the bridge was built with.
func (b *Bridge) Capabilities() *host.Capabilities {
	return b.caps
}

// Available reports whether op can run on this host.
func (b *Bridge) Available(op Op) bool {
	return b.caps.Has(op.Needs...)
}

func (b *Bridge) check(op Op) error {
	if !b.Available(op) {
		return errors.CapabilityUnavailable(op.Name)
	}
	return nil
}

func ioFailure(op Op, operand string, cause error, detail string) error {
	e := errors.IOFailure(op.Name, operand, cause)
	e.Detail = detail
	return e
}

// settleOnce guards an async completion so it fires exactly once.
func settleOnce[R any](op Op, done func(R, error)) func(R, error) {
	var settled atomic.Bool
	return func(r R, err error) {
		if !settled.CompareAndSwap(false, true) {
			Logger().Warn("dropping duplicate completion", zap.String("op", op.Name))
			return
		}
		done(r, err)
	}
}

// Exists reports whether path exists. Host stat failures mean false.
func (b *Bridge) Exists(ctx context.Context, path string) (bool, error) {
	if err := b.check(OpExistsSync); err != nil {
		return false, err
	}
	st, _ := host.Lookup[host.Stater](b.caps, host.CapFSStat)
	if _, err := st.Stat(ctx, path); err != nil {
		return false, nil
	}
	return true, nil
}

func (b *Bridge) ReadTextFileSync(ctx context.Context, path string) (string, error) {
	if err := b.check(OpReadFileSync); err != nil {
		return "", err
	}
	r, _ := host.Lookup[host.TextReader](b.caps, host.CapFSReadTextSync)
	s, err := r.ReadTextFile(ctx, path)
	if err != nil {
		return "", ioFailure(OpReadFileSync, path, err, "Cannot read file "+path)
	}
	return s, nil
}

func (b *Bridge) WriteTextFileSync(ctx context.Context, path, data string) error {
	if err := b.check(OpWriteFileSync); err != nil {
		return err
	}
	w, _ := host.Lookup[host.TextWriter](b.caps, host.CapFSWriteTextSync)
	if err := w.WriteTextFile(ctx, path, data); err != nil {
		return ioFailure(OpWriteFileSync, path, err, "Cannot write file "+path)
	}
	return nil
}

// ReadTextFile reads asynchronously. done is called exactly once, possibly
// on another goroutine.
func (b *Bridge) ReadTextFile(ctx context.Context, path string, done func(string, error)) {
	settle := settleOnce(OpReadFile, done)
	if err := b.check(OpReadFile); err != nil {
		settle("", err)
		return
	}
	r, _ := host.Lookup[host.AsyncTextReader](b.caps, host.CapFSReadTextAsync)
	r.ReadTextFileAsync(ctx, path, func(s string, err error) {
		if err != nil {
			settle("", ioFailure(OpReadFile, path, err, "Cannot read file "+path))
			return
		}
		settle(s, nil)
	})
}

// WriteTextFile writes asynchronously. done is called exactly once, possibly
// on another goroutine.
func (b *Bridge) WriteTextFile(ctx context.Context, path, data string, done func(error)) {
	settle := settleOnce(OpWriteFile, func(_ struct{}, err error) { done(err) })
	if err := b.check(OpWriteFile); err != nil {
		settle(struct{}{}, err)
		return
	}
	w, _ := host.Lookup[host.AsyncTextWriter](b.caps, host.CapFSWriteTextAsync)
	w.WriteTextFileAsync(ctx, path, data, func(err error) {
		if err != nil {
			settle(struct{}{}, ioFailure(OpWriteFile, path, err, "Cannot write file "+path))
			return
		}
		settle(struct{}{}, nil)
	})
}

// ReadModuleSource loads raw bytes for the module loader.
func (b *Bridge) ReadModuleSource(ctx context.Context, path string) ([]byte, error) {
	if err := b.check(OpLoadModule); err != nil {
		return nil, err
	}
	r, _ := host.Lookup[host.FileReader](b.caps, host.CapFSRead)
	data, err := r.ReadFile(ctx, path)
	if err != nil {
		return nil, ioFailure(OpLoadModule, path, err, "Cannot load module "+path)
	}
	return data, nil
}

func (b *Bridge) RandomBytes(ctx context.Context, n int) ([]byte, error) {
	if err := b.check(OpRandomBytes); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.New(errors.PhaseBridge, errors.KindInvalidInput).
			Op(OpRandomBytes.Name).
			Code(errors.CodeInvalidArgValue).
			Detail("size must be non-negative, got %d", n).
			Build()
	}
	r, _ := host.Lookup[host.RandomSource](b.caps, host.CapRandomBytes)
	buf, err := r.RandomBytes(ctx, n)
	if err != nil {
		return nil, ioFailure(OpRandomBytes, "", err, "")
	}
	return buf, nil
}

func (b *Bridge) RandomUUID(ctx context.Context) (string, error) {
	if err := b.check(OpRandomUUID); err != nil {
		return "", err
	}
	r, _ := host.Lookup[host.UUIDSource](b.caps, host.CapRandomUUID)
	id, err := r.RandomUUID(ctx)
	if err != nil {
		return "", ioFailure(OpRandomUUID, "", err, "")
	}
	return id, nil
}

// NewHash starts a digest, or an HMAC when key is non-nil.
func (b *Bridge) NewHash(ctx context.Context, algorithm string, key []byte) (hash.Hash, error) {
	if err := b.check(OpCreateHash); err != nil {
		return nil, err
	}
	h, _ := host.Lookup[host.Hasher](b.caps, host.CapCryptoHash)
	d, err := h.NewHash(ctx, algorithm, key)
	if err != nil {
		return nil, ioFailure(OpCreateHash, algorithm, err, "")
	}
	return d, nil
}

func (b *Bridge) HashAlgorithms() ([]string, error) {
	if err := b.check(OpCreateHash); err != nil {
		return nil, err
	}
	h, _ := host.Lookup[host.Hasher](b.caps, host.CapCryptoHash)
	return h.Algorithms(), nil
}

func (b *Bridge) Exit(ctx context.Context, code int) error {
	if err := b.check(OpExit); err != nil {
		return err
	}
	e, _ := host.Lookup[host.Exiter](b.caps, host.CapProcessExit)
	Logger().Debug("process exit requested", zap.Int("code", code))
	e.Exit(ctx, code)
	return nil
}

func (b *Bridge) Cwd(ctx context.Context) (string, error) {
	if err := b.check(OpCwd); err != nil {
		return "", err
	}
	w, _ := host.Lookup[host.WorkingDir](b.caps, host.CapProcessCwd)
	cwd, err := w.Cwd(ctx)
	if err != nil {
		return "", ioFailure(OpCwd, "", err, "")
	}
	return cwd, nil
}

// LookupEnv returns the value of the first key that is set.
func (b *Bridge) LookupEnv(ctx context.Context, keys ...string) (string, bool, error) {
	if err := b.check(OpEnv); err != nil {
		return "", false, err
	}
	e, _ := host.Lookup[host.Environ](b.caps, host.CapEnvGet)
	for _, k := range keys {
		if v, ok := e.LookupEnv(ctx, k); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Platform returns the host build OS, e.g. "linux".
func (b *Bridge) Platform(ctx context.Context) (string, error) {
	if err := b.check(OpPlatform); err != nil {
		return "", err
	}
	p, _ := host.Lookup[host.PlatformInfo](b.caps, host.CapBuildOS)
	return p.BuildOS(ctx), nil
}

// Arch returns the host build architecture, e.g. "amd64".
func (b *Bridge) Arch(ctx context.Context) (string, error) {
	if err := b.check(OpArch); err != nil {
		return "", err
	}
	a, _ := host.Lookup[host.ArchInfo](b.caps, host.CapBuildArch)
	return a.BuildArch(ctx), nil
}

func (b *Bridge) HardwareConcurrency(ctx context.Context) (int, error) {
	if err := b.check(OpCPUs); err != nil {
		return 0, err
	}
	c, _ := host.Lookup[host.ConcurrencyInfo](b.caps, host.CapHardwareConcurrency)
	return c.HardwareConcurrency(ctx), nil
}

func (b *Bridge) Now(ctx context.Context) (time.Time, error) {
	if err := b.check(OpNow); err != nil {
		return time.Time{}, err
	}
	c, _ := host.Lookup[host.Clock](b.caps, host.CapClockNow)
	return c.Now(ctx), nil
}
