package rating

import "fmt"

// goodWeight is the credit a Good judgment earns relative to a Perfect.
const goodWeight = 0.65

// AccuracyFromJudgments derives the accuracy percentage from judgment counts.
// Inconsistent counts are an error; the result is never clamped into range.
func AccuracyFromJudgments(notes, goods, badsMisses int) (float64, error) {
	switch {
	case notes <= 0:
		return 0, fmt.Errorf("%w: notes must be positive, got %d", ErrInvalidJudgments, notes)
	case goods < 0 || badsMisses < 0:
		return 0, fmt.Errorf("%w: negative counts", ErrInvalidJudgments)
	case goods+badsMisses > notes:
		return 0, fmt.Errorf("%w: %d goods and %d bads/misses exceed %d notes", ErrInvalidJudgments, goods, badsMisses, notes)
	}
	perfect := notes - goods - badsMisses
	return (float64(perfect) + goodWeight*float64(goods)) / float64(notes) * 100, nil
}
