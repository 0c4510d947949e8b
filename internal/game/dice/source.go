package dice

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn panics with "dice: Intn called with n <= 0" if n <= 0.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

type seededSource struct {
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic Source. Two sources built from the
// same seed produce identical sequences, which makes simulations replayable.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.rng.IntN(n)
}

// SequenceSource replays a fixed list of raw Intn results, cycling when
// exhausted. Each value is reduced modulo n so it always satisfies the Source
// contract. It exists for deterministic tests of callers.
type SequenceSource struct {
	Values []int
	next   int
}

// Intn returns the next scripted value modulo n.
func (s *SequenceSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return ((v % n) + n) % n
}

// Faces returns a SequenceSource whose die rolls produce exactly the given
// face values (1-based), e.g. Faces(1, 4, 6) rolls 1, then 4, then 6.
func Faces(faces ...int) *SequenceSource {
	vals := make([]int, len(faces))
	for i, f := range faces {
		vals[i] = f - 1
	}
	return &SequenceSource{Values: vals}
}
