// Package hashing provides the crypto.hash capability backed by real digests.
package hashing

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

var algorithms = map[string]func() hash.Hash{
	"md5":         md5.New,
	"sha1":        sha1.New,
	"sha224":      sha256.New224,
	"sha256":      sha256.New,
	"sha384":      sha512.New384,
	"sha512":      sha512.New,
	"sha3-256":    sha3.New256,
	"sha3-512":    sha3.New512,
	"blake2b-256": mustBlake(blake2b.New256),
	"blake2b-512": mustBlake(blake2b.New512),
}

// aliases accepted by node's createHash
var aliases = map[string]string{
	"sha-1":      "sha1",
	"sha-224":    "sha224",
	"sha-256":    "sha256",
	"sha-384":    "sha384",
	"sha-512":    "sha512",
	"rsa-md5":    "md5",
	"rsa-sha1":   "sha1",
	"rsa-sha256": "sha256",
	"rsa-sha512": "sha512",
	"blake2b256": "blake2b-256",
	"blake2b512": "blake2b-512",
}

func mustBlake(ctor func([]byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := ctor(nil)
		if err != nil {
			panic(err) // unkeyed construction cannot fail
		}
		return h
	}
}

type Host struct{}

func New() *Host {
	return &Host{}
}

func (h *Host) Namespace() string {
	return "node-compat:crypto"
}

func lookup(algorithm string) (func() hash.Hash, bool) {
	name := strings.ToLower(algorithm)
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	ctor, ok := algorithms[name]
	return ctor, ok
}

// NewHash returns a digest for algorithm, or an HMAC when key is non-nil.
func (h *Host) NewHash(_ context.Context, algorithm string, key []byte) (hash.Hash, error) {
	ctor, ok := lookup(algorithm)
	if !ok {
		return nil, fmt.Errorf("Digest method not supported: %s", algorithm)
	}
	if key != nil {
		return hmac.New(ctor, key), nil
	}
	return ctor(), nil
}

func (h *Host) Algorithms() []string {
	out := make([]string, 0, len(algorithms))
	for name := range algorithms {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
