// Package posixpath implements the string-only path algebra exposed as node:path.
//
// Every function is pure and performs no I/O. Only the POSIX separator is
// understood; there is no win32 flavour.
package posixpath

import (
	"path"
	"strings"
)

const (
	Sep       = "/"
	Delimiter = ":"
)

// collapse replaces every run of separators with a single one.
func collapse(p string) string {
	if !strings.Contains(p, "//") {
		return p
	}
	var b strings.Builder
	b.Grow(len(p))
	prevSep := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSep {
				continue
			}
			prevSep = true
		} else {
			prevSep = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Join concatenates the non-empty segments with "/" and collapses repeated
// separators. No "." or ".." processing is done.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return collapse(strings.Join(parts, Sep))
}

// Resolve walks segments right to left until an absolute one is found.
// The result has no repeated or trailing separators and is "/" when empty.
func Resolve(segments ...string) string {
	resolved := ""
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		resolved = seg + Sep + resolved
		if strings.HasPrefix(seg, Sep) {
			break
		}
	}
	resolved = strings.TrimSuffix(collapse(resolved), Sep)
	if resolved == "" {
		return Sep
	}
	return resolved
}

// Dirname drops the last "/"-delimited component.
func Dirname(p string) string {
	i := strings.LastIndex(p, Sep)
	if i <= 0 {
		return Sep
	}
	return p[:i]
}

// Basename returns the last component, minus ext when it ends with it.
func Basename(p, ext string) string {
	base := p[strings.LastIndex(p, Sep)+1:]
	if ext != "" && strings.HasSuffix(base, ext) {
		base = base[:len(base)-len(ext)]
	}
	return base
}

// Extname returns the extension of the last component, including the dot.
// A leading dot does not start an extension, so dotfiles have none.
func Extname(p string) string {
	base := Basename(p, "")
	dot := strings.LastIndex(base, ".")
	if dot > 0 {
		return base[dot:]
	}
	return ""
}

// IsAbsolute reports whether p starts with "/".
func IsAbsolute(p string) bool {
	return strings.HasPrefix(p, Sep)
}

// Relative returns the lexical path from from to to. Both sides are cleaned
// first. When one side is absolute and the other is not, there is no common
// root without a working directory, so the literal prefix of from is stripped
// from to instead.
func Relative(from, to string) string {
	if IsAbsolute(from) != IsAbsolute(to) {
		return strings.TrimPrefix(strings.Replace(to, from, "", 1), Sep)
	}

	fromParts := components(from)
	toParts := components(to)

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	out := make([]string, 0, len(fromParts)-common+len(toParts)-common)
	for range fromParts[common:] {
		out = append(out, "..")
	}
	out = append(out, toParts[common:]...)
	return strings.Join(out, Sep)
}

func components(p string) []string {
	cleaned := path.Clean(p)
	cleaned = strings.TrimPrefix(cleaned, Sep)
	if cleaned == "" || cleaned == "." {
		return nil
	}
	return strings.Split(cleaned, Sep)
}
