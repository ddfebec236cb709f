package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_UnknownNormalizerReturnsInput(t *testing.T) {
	assert.Equal(t, "  Hello  ", Apply("  Hello  ", "nope"))
}

func TestApplyChain(t *testing.T) {
	assert.Equal(t, "jane doe", ApplyChain("  Jane Doe  ", "trim", "lowercase"))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Jane Doe", "jane doe"},
		{"trims", "  Jane Doe  ", "jane doe"},
		{"collapses internal whitespace", "Jane \t  Doe", "jane doe"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestNormalizePhone_PreservesFormatting(t *testing.T) {
	// Formatting is kept intact; only surrounding whitespace goes
	assert.Equal(t, "(555) 123-4567", NormalizePhone(" (555) 123-4567 "))
	assert.NotEqual(t, NormalizePhone("5551234567"), NormalizePhone("(555) 123-4567"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestRegisterAndGet(t *testing.T) {
	Register("reverse-test", func(s string) string {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	})

	fn, ok := Get("reverse-test")
	assert.True(t, ok)
	assert.Equal(t, "cba", fn("abc"))

	_, ok = Get("missing")
	assert.False(t, ok)
}
