package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestNewNanoID(t *testing.T) {
	tests := []struct {
		name     string
		alphabet string
		size     int
		wantErr  error
		wantSize int
	}{
		{name: "defaults", wantSize: defaultIDSize},
		{name: "custom alphabet", alphabet: "ABCDEFGH", size: 10, wantSize: 10},
		{name: "min alphabet", alphabet: strings.Repeat("a", 8), wantSize: defaultIDSize},
		{name: "max alphabet", alphabet: strings.Repeat("a", 255), wantSize: defaultIDSize},
		{name: "too short", alphabet: "abc", wantErr: ErrAlphabetTooShort},
		{name: "too long", alphabet: strings.Repeat("a", 256), wantErr: ErrAlphabetTooLong},
		{name: "non ascii", alphabet: "abcdefgé", wantErr: ErrAlphabetNotASCII},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Act
			n, err := NewNanoID(test.alphabet, test.size)

			// Assert
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("NewNanoID() error = %v, want %v", err, test.wantErr)
			}
			if test.wantErr == nil && n.size != test.wantSize {
				t.Errorf("size = %d, want %d", n.size, test.wantSize)
			}
		})
	}
}

func TestMaskFor(t *testing.T) {
	tests := []struct {
		alphabetLen int
		want        int
	}{
		{8, 7},
		{9, 15},
		{16, 15},
		{17, 31},
		{64, 63},
		{65, 127},
		{255, 255},
	}

	for _, test := range tests {
		if got := maskFor(test.alphabetLen); got != test.want {
			t.Errorf("maskFor(%d) = %d, want %d", test.alphabetLen, got, test.want)
		}
	}
}

func TestNanoID_Generate(t *testing.T) {
	// Arrange
	const alphabet = "0123456789abcdef"
	n, err := NewNanoID(alphabet, 16)
	if err != nil {
		t.Fatalf("NewNanoID() error = %v", err)
	}
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		// Act
		id, err := n.Generate()

		// Assert
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(id) != 16 {
			t.Fatalf("len(id) = %d, want 16", len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("id %q contains %q outside the alphabet", id, r)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
