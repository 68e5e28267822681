package guess

import (
	"strings"

	"github.com/mcoot/wordduel/internal/model"
)

// Evaluate scores guess against secret letter by letter.
//
// Exact matches are credited first, then remaining letters are marked
// misplaced while the secret still has unclaimed copies of them. A letter is
// therefore never credited more times than it occurs in the secret. Both
// strings are compared as-is; callers normalise case and length.
func Evaluate(guess, secret string) []model.LetterResult {
	g := []rune(guess)
	w := []rune(secret)
	result := make([]model.LetterResult, len(g))

	remaining := make(map[rune]int, len(w))
	for _, ch := range w {
		remaining[ch]++
	}

	// Pass 1: exact positions
	for i, ch := range g {
		if i < len(w) && ch == w[i] {
			result[i] = model.LetterCorrect
			remaining[ch]--
		}
	}

	// Pass 2: letters present elsewhere
	for i, ch := range g {
		if result[i] != "" {
			continue
		}
		if remaining[ch] > 0 {
			result[i] = model.LetterMisplaced
			remaining[ch]--
		} else {
			result[i] = model.LetterWrong
		}
	}

	return result
}

// Normalize upper-cases a guess and checks it is exactly WordLength letters A-Z
func Normalize(guess string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(guess))
	if len(upper) != model.WordLength {
		return "", model.ErrInvalidGuess
	}
	for _, ch := range upper {
		if err := ValidateLetter(ch); err != nil {
			return "", err
		}
	}
	return upper, nil
}

// NormalizeDraft upper-cases a partial guess, allowing 0 to WordLength letters
func NormalizeDraft(draft string) (string, error) {
	upper := strings.ToUpper(draft)
	if len(upper) > model.WordLength {
		return "", model.ErrInvalidGuess
	}
	for _, ch := range upper {
		if err := ValidateLetter(ch); err != nil {
			return "", err
		}
	}
	return upper, nil
}

// ValidateLetter checks if a letter is a valid A-Z character
func ValidateLetter(letter rune) error {
	if letter < 'A' || letter > 'Z' {
		return model.ErrInvalidGuess
	}
	return nil
}

// IsSolved reports whether every position is correct
func IsSolved(result []model.LetterResult) bool {
	if len(result) == 0 {
		return false
	}
	for _, r := range result {
		if r != model.LetterCorrect {
			return false
		}
	}
	return true
}
