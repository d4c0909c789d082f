// Package code validates secret codes and scores guesses against them.
// Everything here is pure and deterministic.
package code

// Length is the production code length
const Length = 4

// Alphabet is the set of symbols codes are drawn from
const Alphabet = "0123456789"

// IsValid reports whether code has exactly length symbols from the
// alphabet, all pairwise distinct.
func IsValid(code string, length int) bool {
	if len(code) != length {
		return false
	}
	var seen [256]bool
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		if seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

// Score computes bulls and cows for a guess against a secret.
//
// A bull is a position where guess and secret share the same symbol. A
// cow is a symbol present in both but in a different position; each
// non-bull secret symbol is consumed at most once by the cow pass, so
// cows are bounded by the remaining occurrences in the secret.
//
// secret and guess must be the same length.
func Score(secret, guess string) (bulls, cows int) {
	s := []byte(secret)
	g := []byte(guess)

	for i := range s {
		if s[i] == g[i] {
			bulls++
			s[i], g[i] = 0, 0
		}
	}

	for i := range g {
		if g[i] == 0 {
			continue
		}
		for j := range s {
			if s[j] == g[i] {
				cows++
				s[j] = 0
				break
			}
		}
	}

	return bulls, cows
}
