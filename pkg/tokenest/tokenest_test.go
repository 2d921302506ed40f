package tokenest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate_Empty(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
}

func TestEstimate_ASCII(t *testing.T) {
	// 16 bytes / 4 = 4 tokens exactly.
	assert.Equal(t, 4, Estimate("0123456789ABCDEF"))
}

func TestEstimate_Deterministic(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	first := Estimate(text)
	second := Estimate(text)
	assert.Equal(t, first, second)
}

func TestEstimate_MultiByteDoesNotUnderGrowByteHeuristic(t *testing.T) {
	ascii := strings.Repeat("a", 40)
	multiByte := strings.Repeat("世", 40) // each rune is 3 bytes in UTF-8

	assert.Equal(t, Estimate(ascii), Estimate(ascii))
	// Multi-byte text estimate must never fall below what a pure rune-count
	// heuristic would say, even though the byte-length heuristic alone would
	// overshoot it further — the blend takes the max of both.
	assert.GreaterOrEqual(t, Estimate(multiByte), (40+charsPerToken-1)/charsPerToken)
}

func TestFitsWithin(t *testing.T) {
	text := strings.Repeat("x", 80) // 20 tokens

	assert.True(t, FitsWithin(text, 10, 30))
	assert.False(t, FitsWithin(text, 25, 30))
	assert.False(t, FitsWithin(text, 0, 10))
	assert.True(t, FitsWithin(text, 0, 20))
}
