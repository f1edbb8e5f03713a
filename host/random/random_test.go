package random

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestSecureRandomHost_RandomBytes(t *testing.T) {
	h := NewSecureRandomHost()
	ctx := context.Background()

	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"zero", 0, false},
		{"small", 16, false},
		{"max", MaxRandomBytes, false},
		{"negative", -1, true},
		{"too large", MaxRandomBytes + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := h.RandomBytes(ctx, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(b) != tt.n {
				t.Errorf("len = %d, want %d", len(b), tt.n)
			}
		})
	}

	a, _ := h.RandomBytes(ctx, 32)
	b, _ := h.RandomBytes(ctx, 32)
	if bytes.Equal(a, b) {
		t.Error("two random reads returned identical bytes")
	}
}

func TestSecureRandomHost_RandomUUID(t *testing.T) {
	h := NewSecureRandomHost()
	s, err := h.RandomUUID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("invalid uuid %q: %v", s, err)
	}
	if id.Version() != 4 {
		t.Errorf("version = %d, want 4", id.Version())
	}
}
