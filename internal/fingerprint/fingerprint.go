// Package fingerprint derives the deduplication key for a question bank.
package fingerprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/quizpulse/quizpulse/internal/bank"
)

const (
	fnvOffset = 0x811c9dc5
	fnvPrime  = 0x01000193
	djbSeed   = 5381
)

// Compute returns the 16-hex-digit fingerprint of a normalized question
// list. The input must be canonical (never a shuffled session copy); the
// result is only a dedup key and is not collision resistant.
func Compute(questions []bank.Question) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(questions); err != nil {
		return "", fmt.Errorf("encode questions: %w", err)
	}
	return Sum(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Sum combines FNV-1a and djb2-xor, both 32-bit, over the code points of
// data. Supplementary-plane characters also mix their low surrogate, which
// keeps digests identical to ones computed over UTF-16 strings.
func Sum(data []byte) string {
	var fnv uint32 = fnvOffset
	var djb uint32 = djbSeed

	mix := func(c uint32) {
		fnv = (fnv ^ c) * fnvPrime
		djb = 33*djb ^ c
	}

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		mix(uint32(r))
		if r > 0xFFFF {
			_, lo := utf16.EncodeRune(r)
			mix(uint32(lo))
		}
	}
	return fmt.Sprintf("%08x%08x", fnv, djb)
}
