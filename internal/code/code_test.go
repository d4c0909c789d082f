package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		length int
		want   bool
	}{
		{"valid distinct digits", "1234", 4, true},
		{"valid with zero", "0987", 4, true},
		{"too short", "123", 4, false},
		{"too long", "12345", 4, false},
		{"empty", "", 4, false},
		{"repeated digit", "1123", 4, false},
		{"repeated digit apart", "1231", 4, false},
		{"non-digit", "12a4", 4, false},
		{"whitespace", "12 4", 4, false},
		{"negative-looking", "-123", 4, false},
		{"generalized length three", "123", 3, true},
		{"generalized length five", "12345", 5, true},
		{"generalized length five with dup", "12341", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.code, tt.length))
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		guess     string
		wantBulls int
		wantCows  int
	}{
		{"exact match", "1234", "1234", 4, 0},
		{"full reversal", "1234", "4321", 0, 4},
		{"two swapped", "1234", "1243", 2, 2},
		{"no overlap", "1234", "5678", 0, 0},
		{"one bull", "1234", "1567", 1, 0},
		{"one cow", "1234", "4567", 0, 1},
		{"mixed", "1234", "1324", 2, 2},
		{"three bulls", "1234", "1235", 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bulls, cows := Score(tt.secret, tt.guess)
			assert.Equal(t, tt.wantBulls, bulls, "bulls")
			assert.Equal(t, tt.wantCows, cows, "cows")
		})
	}
}

func TestScoreBullsPlusCowsBounded(t *testing.T) {
	codes := []string{"0123", "9876", "1357", "2468", "0419"}
	for _, secret := range codes {
		for _, guess := range codes {
			bulls, cows := Score(secret, guess)
			assert.LessOrEqual(t, bulls+cows, Length)
		}
	}
}

func TestScoreSelfGuessIsAlwaysWin(t *testing.T) {
	for _, c := range []string{"0123", "9876", "5049"} {
		bulls, cows := Score(c, c)
		assert.Equal(t, Length, bulls)
		assert.Zero(t, cows)
	}
}

// Bulls are symmetric between secret and guess; cows are not in general
// for codes with repeats, but for duplicate-free codes swapping the two
// sides preserves both counts. Pin one fixed example of each.
func TestScoreSwapSidesFixedExample(t *testing.T) {
	b1, c1 := Score("1234", "1352")
	b2, c2 := Score("1352", "1234")
	assert.Equal(t, b1, b2)
	assert.Equal(t, c1, c2)
}
