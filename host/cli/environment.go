package cli

import (
	"context"
	"os"
	"strings"
)

type EnvironmentHost struct {
	env map[string]string
	cwd string
}

func NewEnvironmentHost(env map[string]string, cwd string) *EnvironmentHost {
	if env == nil {
		env = make(map[string]string)
	}
	if cwd == "" {
		cwd = "/"
	}
	return &EnvironmentHost{
		env: env,
		cwd: cwd,
	}
}

// InheritEnvironment copies the current process environment into a map.
func InheritEnvironment() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func (h *EnvironmentHost) Namespace() string {
	return "node-compat:environment"
}

func (h *EnvironmentHost) LookupEnv(_ context.Context, key string) (string, bool) {
	v, ok := h.env[key]
	return v, ok
}

func (h *EnvironmentHost) Cwd(_ context.Context) (string, error) {
	return h.cwd, nil
}
