package filesystem

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wippyai/node-compat/host"
)

// Host serves script paths out of preopened host directories.
// Script paths are POSIX; relative ones are taken against cwd.
type Host struct {
	cwd      string
	preopens []preopen
}

type preopen struct {
	logical  string
	physical string
}

var (
	_ host.Stater          = (*Host)(nil)
	_ host.FileReader      = (*Host)(nil)
	_ host.TextReader      = (*Host)(nil)
	_ host.AsyncTextReader = (*Host)(nil)
	_ host.TextWriter      = (*Host)(nil)
	_ host.AsyncTextWriter = (*Host)(nil)
)

// New creates a filesystem host. preopens maps logical script paths to
// physical directories, e.g. {"/": "./data"}.
func New(preopens map[string]string, cwd string) *Host {
	if cwd == "" {
		cwd = "/"
	}
	h := &Host{cwd: cwd}
	for logical, physical := range preopens {
		h.preopens = append(h.preopens, preopen{
			logical:  path.Clean("/" + logical),
			physical: filepath.Clean(physical),
		})
	}
	// longest logical prefix first
	sort.Slice(h.preopens, func(i, j int) bool {
		return len(h.preopens[i].logical) > len(h.preopens[j].logical)
	})
	return h
}

func (h *Host) Namespace() string {
	return "node-compat:fs"
}

// resolvePath maps a script path to a physical path. Returns error if path escapes the sandbox.
func (h *Host) resolvePath(op, p string) (string, *Error) {
	if p == "" {
		return "", newError(op, p, "ENOENT", nil)
	}
	logical := p
	if !strings.HasPrefix(logical, "/") {
		logical = path.Join(h.cwd, logical)
	}
	logical = path.Clean(logical)

	for _, po := range h.preopens {
		rest, ok := strings.CutPrefix(logical, po.logical)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/") && po.logical != "/") {
			continue
		}
		fullPath := filepath.Clean(filepath.Join(po.physical, filepath.FromSlash(rest)))

		// Ensure path doesn't escape the preopened directory
		rel, err := filepath.Rel(po.physical, fullPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", newError(op, p, "EACCES", err)
		}
		return fullPath, nil
	}
	return "", newError(op, p, "ENOENT", nil)
}

func (h *Host) Stat(_ context.Context, p string) (host.FileInfo, error) {
	full, ferr := h.resolvePath("stat", p)
	if ferr != nil {
		return host.FileInfo{}, ferr
	}
	fi, err := os.Stat(full)
	if err != nil {
		return host.FileInfo{}, mapOSError("stat", p, err)
	}
	return host.FileInfo{
		Name:    fi.Name(),
		Size:    fi.Size(),
		IsDir:   fi.IsDir(),
		ModTime: fi.ModTime(),
	}, nil
}

func (h *Host) ReadFile(_ context.Context, p string) ([]byte, error) {
	full, ferr := h.resolvePath("open", p)
	if ferr != nil {
		return nil, ferr
	}
	fi, err := os.Stat(full)
	if err != nil {
		return nil, mapOSError("open", p, err)
	}
	if fi.IsDir() {
		return nil, newError("read", p, "EISDIR", nil)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, mapOSError("open", p, err)
	}
	return data, nil
}

func (h *Host) ReadTextFile(ctx context.Context, p string) (string, error) {
	data, err := h.ReadFile(ctx, p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h *Host) ReadTextFileAsync(ctx context.Context, p string, done func(string, error)) {
	go func() {
		if err := ctx.Err(); err != nil {
			done("", err)
			return
		}
		done(h.ReadTextFile(ctx, p))
	}()
}

func (h *Host) WriteTextFile(_ context.Context, p, data string) error {
	full, ferr := h.resolvePath("open", p)
	if ferr != nil {
		return ferr
	}
	if err := os.WriteFile(full, []byte(data), 0o644); err != nil {
		return mapOSError("open", p, err)
	}
	return nil
}

func (h *Host) WriteTextFileAsync(ctx context.Context, p, data string, done func(error)) {
	go func() {
		if err := ctx.Err(); err != nil {
			done(err)
			return
		}
		done(h.WriteTextFile(ctx, p, data))
	}()
}
