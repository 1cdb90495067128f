// Package objectkey generates storage keys for uploaded blobs.
package objectkey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Generator defines the interface for storage key generation strategies
type Generator interface {
	// GenerateKey creates a unique storage key for a file about to be
	// uploaded. Keys must not collide across concurrent uploads.
	GenerateKey(fileName string) string
}

// RandomGenerator builds keys from a random token plus the sanitized
// original filename. The token makes collisions across concurrent uploads
// astronomically improbable; keeping the filename keeps blobs identifiable
// when inspecting the bucket.
type RandomGenerator struct {
	// TokenBytes is the number of random bytes in the key prefix.
	TokenBytes int
}

// NewRandomGenerator returns a RandomGenerator with a 128-bit token.
func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{TokenBytes: 16}
}

func (g *RandomGenerator) GenerateKey(fileName string) string {
	n := g.TokenBytes
	if n <= 0 {
		n = 16
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has no entropy source at
		// all; there is no reasonable fallback for key uniqueness.
		panic(fmt.Sprintf("objectkey: reading random source: %v", err))
	}
	token := hex.EncodeToString(buf)

	cleaned := sanitizeFilename(fileName)
	if cleaned == "" {
		return token
	}
	return fmt.Sprintf("%s-%s", token, cleaned)
}

// CustomFuncGenerator allows callers to provide their own key generation
// function.
type CustomFuncGenerator struct {
	GenerateFunc func(fileName string) string
}

func NewCustomFuncGenerator(fn func(fileName string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateKey(fileName string) string {
	return g.GenerateFunc(fileName)
}

func sanitizeFilename(filename string) string {
	// Replace characters that are problematic in object keys and URLs
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(filename)
}
