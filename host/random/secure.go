package random

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

type SecureRandomHost struct{}

func NewSecureRandomHost() *SecureRandomHost {
	return &SecureRandomHost{}
}

func (h *SecureRandomHost) Namespace() string {
	return "node-compat:random"
}

// MaxRandomBytes limits single-call allocation to prevent DoS (1MB).
const MaxRandomBytes = 1 << 20

func (h *SecureRandomHost) RandomBytes(_ context.Context, n int) ([]byte, error) {
	if n < 0 || n > MaxRandomBytes {
		return nil, fmt.Errorf("size %d out of range [0, %d]", n, MaxRandomBytes)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (h *SecureRandomHost) RandomUUID(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
