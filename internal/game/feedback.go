// internal/game/feedback.go
//
// Mastermind feedback scoring.
// Responsibilities:
//   - Score a guess against a secret using the classic two-pass algorithm.
//   - Validate digit-string inputs (length and charset).
//
// Scoring is position-relative: a hit is a digit correct in place, a blip is
// a digit present elsewhere. Each secret digit instance is consumable at most
// once, so repeats never double-count.

package game

// Feedback is the result of scoring one guess.
type Feedback struct {
	Hits  int `json:"hits"`
	Blips int `json:"blips"`
}

// Exact reports whether the feedback represents a full crack of a code of
// the given length.
func (f Feedback) Exact(length int) bool { return f.Hits == length }

// Score computes hits and blips for a guess against a secret.
// Both strings must be equal-length digit strings; callers validate first.
//
// Pass 1: mark exact positional matches as hits and count the remaining
// secret digits by value.
// Pass 2: for each non-hit guess digit, consume one remaining secret
// instance of that digit (if any) as a blip.
//
// Hits + blips never exceeds len(secret), and hits == len(secret) iff the
// strings are equal.
func Score(secret, guess string) Feedback {
	var fb Feedback
	var counts [10]int

	for i := 0; i < len(secret); i++ {
		if guess[i] == secret[i] {
			fb.Hits++
		} else {
			counts[secret[i]-'0']++
		}
	}
	for i := 0; i < len(guess); i++ {
		if guess[i] == secret[i] {
			continue
		}
		d := guess[i] - '0'
		if counts[d] > 0 {
			fb.Blips++
			counts[d]--
		}
	}
	return fb
}

// validCode checks that s is exactly length digits 0-9.
func validCode(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
