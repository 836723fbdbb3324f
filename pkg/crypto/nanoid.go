package crypto

import (
	"crypto/rand"
	"errors"
	"math"
)

const (
	defaultAlphabet string = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	defaultIDSize   int    = 22 // 132 bits of entropy
	maxAlphabetSize int    = 255
	minAlphabetSize int    = 8
)

var (
	ErrAlphabetTooLong  = errors.New("alphabet must contain no more than 255 characters")
	ErrAlphabetTooShort = errors.New("alphabet must contain at least 8 characters")
	ErrAlphabetNotASCII = errors.New("alphabet must contain only ASCII characters")
)

// NanoID generates short random identifiers for sessions and listings.
type NanoID struct {
	alphabet string
	mask     int
	size     int
}

// maskFor returns the smallest 2^n-1 that covers every alphabet index.
func maskFor(alphabetLen int) int {
	for bits := 1; bits <= 8; bits++ {
		mask := (1 << uint(bits)) - 1
		if mask >= alphabetLen-1 {
			return mask
		}
	}
	return maxAlphabetSize
}

// NewNanoID builds a generator over alphabet. An empty alphabet selects the
// URL-safe default. size <= 0 selects the default length.
func NewNanoID(alphabet string, size int) (*NanoID, error) {
	if alphabet == "" {
		alphabet = defaultAlphabet
	}
	if size <= 0 {
		size = defaultIDSize
	}

	// Generate indexes by byte, so multi-byte runes are rejected.
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] > 127 {
			return nil, ErrAlphabetNotASCII
		}
	}
	if len(alphabet) > maxAlphabetSize {
		return nil, ErrAlphabetTooLong
	}
	if len(alphabet) < minAlphabetSize {
		return nil, ErrAlphabetTooShort
	}

	return &NanoID{alphabet: alphabet, mask: maskFor(len(alphabet)), size: size}, nil
}

// MustNanoID is NewNanoID with the defaults; it cannot fail.
func MustNanoID() *NanoID {
	n, err := NewNanoID("", 0)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *NanoID) Generate() (string, error) {
	alphabetLen := len(n.alphabet)
	step := int(math.Ceil(1.6 * float64(n.mask*n.size) / float64(alphabetLen)))

	id := make([]byte, n.size)
	buf := make([]byte, step)

	for pos := 0; pos < n.size; {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		for i := 0; i < step && pos < n.size; i++ {
			idx := int(buf[i]) & n.mask
			if idx < alphabetLen {
				id[pos] = n.alphabet[idx]
				pos++
			}
		}
	}

	return string(id), nil
}
