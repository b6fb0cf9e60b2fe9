// Package flashcards runs navigable flashcard study sessions.
package flashcards

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"study-ai/internal/host"
	"study-ai/internal/models"
)

// ErrNoCards is returned when a session would start with an empty deck.
var ErrNoCards = errors.New("no flashcards available")

const (
	rule = "============================================================"

	commandPrompt = "\nPress Enter to reveal answer, or enter command: "
	ratePrompt    = "\nHow did you do? (e)asy, (h)ard, (n)ext, (p)rev, (q)uit: "
)

type phase int

const (
	phaseQuestion phase = iota
	phaseRevealed
	phaseDone
)

// Session walks a deck with a wrapping cursor. The deck is owned by the
// session and Shuffle reorders it in place.
type Session struct {
	cards []models.FlashcardRecord
	index int
	phase phase
	rng   *rand.Rand
}

// NewSession starts at the first card. A nil rng is seeded from the clock.
func NewSession(cards []models.FlashcardRecord, rng *rand.Rand) (*Session, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Session{cards: cards, rng: rng}, nil
}

func (s *Session) Len() int { return len(s.cards) }

func (s *Session) Index() int { return s.index }

func (s *Session) Current() models.FlashcardRecord { return s.cards[s.index] }

// Cards returns the deck in its current order.
func (s *Session) Cards() []models.FlashcardRecord { return s.cards }

func (s *Session) Next() {
	s.index = (s.index + 1) % len(s.cards)
}

func (s *Session) Prev() {
	s.index = (s.index - 1 + len(s.cards)) % len(s.cards)
}

// Random jumps to a uniformly chosen card, possibly the current one.
func (s *Session) Random() {
	s.index = s.rng.IntN(len(s.cards))
}

// Shuffle permutes the deck in place and returns to the first card.
func (s *Session) Shuffle() {
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
	s.index = 0
}

func (s *Session) Done() bool { return s.phase == phaseDone }

func (s *Session) Start() host.Output {
	lines := []string{
		"",
		"Starting Flashcard Study Session!",
		fmt.Sprintf("Total cards: %d", len(s.cards)),
		"Commands: 'n' = next, 'p' = previous, 'r' = random, 's' = shuffle, 'q' = quit",
		rule,
	}
	return s.showCard(lines)
}

func (s *Session) Handle(input string) host.Output {
	cmd := strings.ToLower(strings.TrimSpace(input))
	switch s.phase {
	case phaseQuestion:
		return s.handleCommand(cmd)
	case phaseRevealed:
		return s.handleRating(cmd)
	default:
		return host.Output{Done: true}
	}
}

func (s *Session) handleCommand(cmd string) host.Output {
	switch cmd {
	case "":
		s.phase = phaseRevealed
		return host.Output{
			Lines:  []string{"", "Answer: " + s.Current().Answer},
			Prompt: ratePrompt,
		}
	case "n", "next":
		s.Next()
	case "p", "prev", "previous":
		s.Prev()
	case "r", "random":
		s.Random()
	case "s", "shuffle":
		s.Shuffle()
		return s.showCard([]string{"Cards shuffled!"})
	case "q", "quit":
		s.phase = phaseDone
		return host.Output{Lines: []string{"", "Study session completed! Great work!"}, Done: true}
	default:
		return s.showCard([]string{"Unknown command. Use 'n', 'p', 'r', 's', or 'q'"})
	}
	return s.showCard(nil)
}

func (s *Session) handleRating(cmd string) host.Output {
	card := s.Current()
	var (
		lines  []string
		rating models.Rating
	)
	switch cmd {
	case "e", "easy":
		lines, rating = []string{"Great!"}, models.RatingEasy
		s.Next()
	case "h", "hard":
		lines, rating = []string{"No worries, keep practicing!"}, models.RatingHard
		s.Next()
	case "n", "next":
		s.Next()
	case "p", "prev":
		s.Prev()
	case "q", "quit":
		// Leaving from the answer view skips the closing message.
		s.phase = phaseDone
		return host.Output{Done: true}
	default:
		return host.Output{Lines: []string{"Please enter e, h, n, p, or q"}, Prompt: ratePrompt}
	}

	s.phase = phaseQuestion
	out := s.showCard(lines)
	if rating != models.RatingNone {
		out.Rating, out.Card = rating, card
	}
	return out
}

func (s *Session) showCard(lines []string) host.Output {
	lines = append(lines,
		"",
		rule,
		fmt.Sprintf("Card %d of %d", s.index+1, len(s.cards)),
		rule,
		"Question: "+s.Current().Question,
		rule,
	)
	return host.Output{Lines: lines, Prompt: commandPrompt}
}
