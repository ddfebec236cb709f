package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "identical strings",
			a:        "John Smith",
			b:        "John Smith",
			expected: 1.0,
		},
		{
			name:     "case insensitive",
			a:        "JOHN SMITH",
			b:        "john smith",
			expected: 1.0,
		},
		{
			name:     "surrounding whitespace ignored",
			a:        "  John Smith  ",
			b:        "John Smith",
			expected: 1.0,
		},
		{
			name:     "empty left side",
			a:        "",
			b:        "John Smith",
			expected: 0.0,
		},
		{
			name:     "empty right side",
			a:        "John Smith",
			b:        "",
			expected: 0.0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 0.0,
		},
		{
			name:     "whitespace only is empty",
			a:        "   ",
			b:        "John Smith",
			expected: 0.0,
		},
		{
			name:     "single substitution",
			a:        "Robert Smith",
			b:        "Robet Smith",
			expected: 1.0 - 1.0/12.0,
		},
		{
			name:     "completely different",
			a:        "abc",
			b:        "xyz",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScore_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"John Smith", "Jon Smith"},
		{"Katherine", "Catherine"},
		{"ab", "abcdef"},
	}

	for _, pair := range pairs {
		assert.Equal(t, Score(pair[0], pair[1]), Score(pair[1], pair[0]))
	}
}

func TestScore_MultiByteRunes(t *testing.T) {
	// One rune substitution out of four runes, not bytes.
	score := Score("José", "Jose")
	assert.InDelta(t, 0.75, score, 1e-9)
}

func TestScore_Bounds(t *testing.T) {
	inputs := []string{"", "a", "John", "Jonathan Smythe-Worthington", "鈴木 一郎"}

	for _, a := range inputs {
		for _, b := range inputs {
			score := Score(a, b)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}
