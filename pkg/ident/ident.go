// Package ident generates the stable identifiers attached to categories and
// items. Identifiers are practically unique for the lifetime of a process;
// they are not meant to be globally unique or unguessable.
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	mrand "math/rand/v2"
	"strconv"
)

// Generator produces prefixed identifiers from a random source.
type Generator struct {
	// Source supplies the random bytes. Nil means crypto/rand.
	Source io.Reader
}

var defaultGenerator = Generator{}

// Generate returns "<prefix>_<16 hex chars>" using the default generator.
func Generate(prefix string) string {
	return defaultGenerator.Generate(prefix)
}

// Generate returns "<prefix>_<16 hex chars>" built from 8 random bytes.
// If the random source fails it falls back to a shorter base-36 suffix from
// a pseudo-random generator, so the call never fails.
func (g Generator) Generate(prefix string) string {
	if prefix == "" {
		prefix = "id"
	}
	src := g.Source
	if src == nil {
		src = rand.Reader
	}

	buf := make([]byte, 8)
	if _, err := io.ReadFull(src, buf); err == nil {
		return prefix + "_" + hex.EncodeToString(buf)
	}
	return prefix + "_" + fallbackSuffix()
}

// fallbackSuffix returns 8 base-36 characters.
func fallbackSuffix() string {
	s := strconv.FormatUint(mrand.Uint64(), 36)
	for len(s) < 8 {
		s = "0" + s
	}
	return s[:8]
}
