package quiz

import (
	"strings"
)

// partialThreshold is the share of the correct answer's distinct words a
// fill-in answer must contain to earn partial credit.
const partialThreshold = 0.6

const (
	fullCredit    = 1.0
	partialCredit = 0.5
)

// Overlap returns the fraction of distinct words in correct that also appear
// in user. Both sides are split on whitespace and compared verbatim; callers
// lower-case them first. An empty correct answer yields 0.
func Overlap(user, correct string) float64 {
	correctWords := wordSet(correct)
	if len(correctWords) == 0 {
		return 0
	}
	shared := 0
	for word := range wordSet(user) {
		if _, ok := correctWords[word]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(correctWords))
}

// PartialMatch reports whether user earns partial credit against correct.
func PartialMatch(user, correct string) bool {
	return Overlap(user, correct) >= partialThreshold
}

// GradeFillBlank scores a free-text answer: 1 for a case-insensitive exact
// match, 0.5 for a partial word match, 0 otherwise.
func GradeFillBlank(user, correct string) float64 {
	user = strings.ToLower(strings.TrimSpace(user))
	correct = strings.ToLower(correct)
	switch {
	case user == correct:
		return fullCredit
	case PartialMatch(user, correct):
		return partialCredit
	default:
		return 0
	}
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Band is the feedback tier for a final percentage.
type Band int

const (
	BandKeepStudying Band = iota
	BandFair
	BandGood
	BandGreat
	BandExcellent
)

// BandFor picks the tier for a percentage in [0, 100].
func BandFor(percentage float64) Band {
	switch {
	case percentage >= 90:
		return BandExcellent
	case percentage >= 80:
		return BandGreat
	case percentage >= 70:
		return BandGood
	case percentage >= 60:
		return BandFair
	default:
		return BandKeepStudying
	}
}

func (b Band) String() string {
	switch b {
	case BandExcellent:
		return "excellent"
	case BandGreat:
		return "great"
	case BandGood:
		return "good"
	case BandFair:
		return "fair"
	default:
		return "keep_studying"
	}
}

// Message is the feedback shown to the learner.
func (b Band) Message() string {
	switch b {
	case BandExcellent:
		return "Excellent! You're a star!"
	case BandGreat:
		return "Great job! Well done!"
	case BandGood:
		return "Good work! Keep it up!"
	case BandFair:
		return "Not bad! Try reviewing the material again."
	default:
		return "Keep studying! You'll get there!"
	}
}
