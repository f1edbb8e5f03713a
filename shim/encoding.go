package shim

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/node-compat/errors"
)

// normalizeEncoding maps node encoding names to canonical ones. The empty
// string means utf8.
func normalizeEncoding(enc string) (string, error) {
	switch strings.ToLower(enc) {
	case "", "utf8", "utf-8":
		return "utf8", nil
	case "hex":
		return "hex", nil
	case "base64":
		return "base64", nil
	case "base64url":
		return "base64url", nil
	case "latin1", "binary":
		return "latin1", nil
	case "ascii":
		return "ascii", nil
	case "utf16le", "utf-16le", "ucs2", "ucs-2":
		return "utf16le", nil
	}
	return "", errors.New(errors.PhaseShim, errors.KindInvalidInput).
		Code("ERR_UNKNOWN_ENCODING").
		Detail("Unknown encoding: %s", enc).
		Build()
}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// encodeString converts text into bytes using a node encoding name.
func encodeString(s, enc string) ([]byte, error) {
	name, err := normalizeEncoding(enc)
	if err != nil {
		return nil, err
	}
	switch name {
	case "hex":
		return decodeHexPrefix(s), nil
	case "base64", "base64url":
		return decodeBase64Loose(s), nil
	case "latin1", "ascii":
		out := make([]byte, 0, len(s))
		for _, r := range s {
			if c, ok := charmap.ISO8859_1.EncodeRune(r); ok {
				out = append(out, c)
			} else {
				out = append(out, byte(r))
			}
		}
		return out, nil
	case "utf16le":
		out, err := utf16LE.NewEncoder().String(s)
		if err != nil {
			return nil, fmt.Errorf("utf16le encode: %w", err)
		}
		return []byte(out), nil
	}
	return []byte(s), nil
}

// decodeBytes converts bytes to text using a node encoding name.
func decodeBytes(data []byte, enc string) (string, error) {
	name, err := normalizeEncoding(enc)
	if err != nil {
		return "", err
	}
	switch name {
	case "hex":
		return hex.EncodeToString(data), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(data), nil
	case "base64url":
		return base64.RawURLEncoding.EncodeToString(data), nil
	case "latin1":
		var b strings.Builder
		for _, c := range data {
			b.WriteRune(charmap.ISO8859_1.DecodeByte(c))
		}
		return b.String(), nil
	case "ascii":
		var b strings.Builder
		for _, c := range data {
			b.WriteByte(c & 0x7f)
		}
		return b.String(), nil
	case "utf16le":
		out, err := utf16LE.NewDecoder().Bytes(data[:len(data)&^1])
		if err != nil {
			return "", fmt.Errorf("utf16le decode: %w", err)
		}
		return string(out), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// decodeHexPrefix decodes pairs until the first invalid one, like node.
func decodeHexPrefix(s string) []byte {
	n := len(s) / 2
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		var c [1]byte
		if _, err := hex.Decode(c[:], []byte(s[2*i:2*i+2])); err != nil {
			break
		}
		out = append(out, c[0])
	}
	return out
}

// decodeBase64Loose accepts standard and url alphabets, with or without padding.
func decodeBase64Loose(s string) []byte {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '-':
			return '+'
		case '_':
			return '/'
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")
	out, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		// keep what decoded cleanly
		for len(s) > 0 && err != nil {
			s = s[:len(s)-1]
			out, err = base64.RawStdEncoding.DecodeString(s)
		}
	}
	return out
}
