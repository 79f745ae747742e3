package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tt := []struct {
		name          string
		secret, guess string
		hits, blips   int
	}{
		{name: "exact match", secret: "1234", guess: "1234", hits: 4, blips: 0},
		{name: "no match", secret: "1234", guess: "5678", hits: 0, blips: 0},
		{name: "two swapped digits", secret: "1234", guess: "1243", hits: 2, blips: 2},
		{name: "full anagram", secret: "1234", guess: "4321", hits: 0, blips: 4},
		{name: "repeats consumed once each", secret: "1122", guess: "2211", hits: 0, blips: 4},
		{name: "guess repeats a scarce digit", secret: "1234", guess: "1111", hits: 1, blips: 0},
		{name: "secret repeats, guess does not", secret: "1111", guess: "1234", hits: 1, blips: 0},
		{name: "mixed hits and blips with repeats", secret: "1212", guess: "1122", hits: 2, blips: 2},
		{name: "six digit exact", secret: "123456", guess: "123456", hits: 6, blips: 0},
		{name: "six digit partial", secret: "123456", guess: "654321", hits: 0, blips: 6},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			fb := Score(tc.secret, tc.guess)
			assert.Equal(t, tc.hits, fb.Hits, "hits")
			assert.Equal(t, tc.blips, fb.Blips, "blips")
		})
	}
}

// Hits + blips can never exceed the code length, and only an identical
// guess scores a full house of hits.
func TestScoreBounds(t *testing.T) {
	codes := []string{"0000", "0123", "1234", "9999", "1122", "2211", "5670", "0765"}
	for _, s := range codes {
		for _, g := range codes {
			fb := Score(s, g)
			assert.LessOrEqual(t, fb.Hits+fb.Blips, len(s), "secret=%s guess=%s", s, g)
			assert.Equal(t, s == g, fb.Hits == len(s), "secret=%s guess=%s", s, g)
		}
	}
}

func TestValidCode(t *testing.T) {
	assert.True(t, validCode("1234", 4))
	assert.True(t, validCode("0000", 4))
	assert.True(t, validCode("987", 3))
	assert.False(t, validCode("123", 4), "too short")
	assert.False(t, validCode("12345", 4), "too long")
	assert.False(t, validCode("12a4", 4), "non-digit")
	assert.False(t, validCode("12 4", 4), "whitespace")
	assert.False(t, validCode("", 4))
}
