package session

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/quizpulse/quizpulse/internal/bank"
)

// RandomnessError reports that the secure random source failed. Sessions
// are never built from a weaker source.
type RandomnessError struct {
	Err error
}

func (e *RandomnessError) Error() string {
	return fmt.Sprintf("secure randomness unavailable: %v", e.Err)
}

func (e *RandomnessError) Unwrap() error { return e.Err }

// Builder produces shuffled sessions.
type Builder struct {
	rand  io.Reader
	newID func() string
}

// NewBuilder returns a Builder backed by crypto/rand.
func NewBuilder() *Builder {
	return NewBuilderWithSource(rand.Reader)
}

// NewBuilderWithSource returns a Builder that draws from r. Tests use it
// to inject deterministic or failing sources.
func NewBuilderWithSource(r io.Reader) *Builder {
	return &Builder{rand: r, newID: uuid.NewString}
}

// Shuffle returns a shuffled deep copy of questions: each question's
// options are permuted independently, then question order is permuted.
func (b *Builder) Shuffle(questions []bank.Question) ([]bank.Question, error) {
	out := bank.CloneAll(questions)
	for i := range out {
		if err := shuffleSlice(b.rand, out[i].Options); err != nil {
			return nil, err
		}
	}
	if err := shuffleSlice(b.rand, out); err != nil {
		return nil, err
	}
	return out, nil
}

// shuffleSlice is an in-place Fisher-Yates shuffle.
func shuffleSlice[T any](r io.Reader, s []T) error {
	for i := len(s) - 1; i > 0; i-- {
		j, err := uniform(r, uint32(i+1))
		if err != nil {
			return err
		}
		s[i], s[j] = s[j], s[i]
	}
	return nil
}

// uniform returns an unbiased value in [0, n) by rejection sampling.
func uniform(r io.Reader, n uint32) (uint32, error) {
	// Largest multiple of n that fits in 2^32; draws at or above it are
	// rejected.
	limit := uint64(1<<32) - uint64(1<<32)%uint64(n)
	var buf [4]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, &RandomnessError{Err: err}
		}
		v := binary.BigEndian.Uint32(buf[:])
		if uint64(v) < limit {
			return v % n, nil
		}
	}
}
