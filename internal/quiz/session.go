// Package quiz runs scored, turn-based quizzes over parsed question records.
package quiz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"study-ai/internal/host"
	"study-ai/internal/models"
)

// ErrNoQuestions is returned when a quiz would start with nothing to ask.
var ErrNoQuestions = errors.New("no questions available")

const (
	rule           = "=================================================="
	continuePrompt = "Press Enter to continue..."
	correctMessage = "Correct! Good going!"
)

type phase int

const (
	phaseAnswering phase = iota
	phaseContinuing
	phaseDone
)

// question is one gradable prompt inside a session.
type question interface {
	text() string
	choices() []string
	answerPrompt() string
	// accept normalizes input, or returns a reprompt message when it is not a valid answer.
	accept(input string) (string, string, bool)
	grade(normalized string) (float64, string)
	explanation() string
}

// Result summarizes a finished quiz.
type Result struct {
	Score      float64
	Total      int
	Percentage float64
	Band       Band
}

// Summarize computes the final percentage and feedback band.
func Summarize(score float64, total int) (Result, error) {
	if total <= 0 {
		return Result{}, ErrNoQuestions
	}
	pct := score / float64(total) * 100
	return Result{Score: score, Total: total, Percentage: pct, Band: BandFor(pct)}, nil
}

// Lines renders the final score block.
func (r Result) Lines() []string {
	return []string{
		"",
		rule,
		"QUIZ COMPLETED!",
		rule,
		fmt.Sprintf("Your Score: %s/%d (%.1f%%)", formatScore(r.Score), r.Total, r.Percentage),
		r.Band.Message(),
		rule,
	}
}

// Session is a single play-through. It is not safe for concurrent use.
type Session struct {
	kind      models.ArtifactKind
	title     string
	questions []question
	index     int
	score     float64
	phase     phase
}

func NewMCQ(records []models.MCQRecord) (*Session, error) {
	qs := make([]question, 0, len(records))
	for _, r := range records {
		qs = append(qs, mcqQuestion{r})
	}
	return newSession(models.ArtifactMCQ, "MCQ Quiz", qs)
}

func NewFillBlanks(records []models.FillBlankRecord) (*Session, error) {
	qs := make([]question, 0, len(records))
	for _, r := range records {
		qs = append(qs, fillQuestion{r})
	}
	return newSession(models.ArtifactFillBlanks, "Fill-in-the-Blanks Quiz", qs)
}

func NewTrueFalse(records []models.TrueFalseRecord) (*Session, error) {
	qs := make([]question, 0, len(records))
	for _, r := range records {
		qs = append(qs, trueFalseQuestion{r})
	}
	return newSession(models.ArtifactTrueFalse, "True/False Quiz", qs)
}

func newSession(kind models.ArtifactKind, title string, qs []question) (*Session, error) {
	if len(qs) == 0 {
		return nil, fmt.Errorf("%s: %w", kind.Title(), ErrNoQuestions)
	}
	return &Session{kind: kind, title: title, questions: qs}, nil
}

func (s *Session) Kind() models.ArtifactKind { return s.kind }

// Index is the number of questions answered so far.
func (s *Session) Index() int { return s.index }

func (s *Session) Score() float64 { return s.score }

func (s *Session) Total() int { return len(s.questions) }

func (s *Session) Done() bool { return s.phase == phaseDone }

// Result is only meaningful once the session is done.
func (s *Session) Result() Result {
	res, _ := Summarize(s.score, len(s.questions))
	return res
}

func (s *Session) Start() host.Output {
	lines := []string{
		"",
		fmt.Sprintf("Starting %s! (%d questions)", s.title, len(s.questions)),
		rule,
	}
	return s.presentQuestion(lines)
}

func (s *Session) Handle(input string) host.Output {
	switch s.phase {
	case phaseAnswering:
		return s.answer(input)
	case phaseContinuing:
		if s.index >= len(s.questions) {
			s.phase = phaseDone
			return host.Output{Lines: s.Result().Lines(), Done: true}
		}
		s.phase = phaseAnswering
		return s.presentQuestion(nil)
	default:
		return host.Output{Done: true}
	}
}

func (s *Session) answer(input string) host.Output {
	q := s.questions[s.index]
	normalized, reprompt, ok := q.accept(input)
	if !ok {
		return host.Output{Lines: []string{reprompt}, Prompt: q.answerPrompt()}
	}

	points, feedback := q.grade(normalized)
	s.score += points
	s.index++
	s.phase = phaseContinuing

	lines := []string{feedback}
	if exp := q.explanation(); exp != "" {
		lines = append(lines, "Explanation: "+exp)
	}
	return host.Output{Lines: lines, Prompt: "\n" + continuePrompt}
}

func (s *Session) presentQuestion(lines []string) host.Output {
	q := s.questions[s.index]
	lines = append(lines, "", fmt.Sprintf("Question %d: %s", s.index+1, q.text()))
	for _, choice := range q.choices() {
		lines = append(lines, "  "+choice)
	}
	return host.Output{Lines: lines, Prompt: q.answerPrompt()}
}

type mcqQuestion struct{ r models.MCQRecord }

func (q mcqQuestion) text() string         { return q.r.Question }
func (q mcqQuestion) choices() []string    { return q.r.Options }
func (q mcqQuestion) answerPrompt() string { return "Your answer (A/B/C/D): " }
func (q mcqQuestion) explanation() string  { return q.r.Explanation }

func (q mcqQuestion) accept(input string) (string, string, bool) {
	letter := strings.ToUpper(strings.TrimSpace(input))
	switch letter {
	case "A", "B", "C", "D":
		return letter, "", true
	}
	return "", "Please enter A, B, C, or D", false
}

func (q mcqQuestion) grade(letter string) (float64, string) {
	if letter == q.r.Correct {
		return fullCredit, correctMessage
	}
	return 0, "Wrong! The correct answer is " + q.r.Correct
}

type fillQuestion struct{ r models.FillBlankRecord }

func (q fillQuestion) text() string         { return q.r.Question }
func (q fillQuestion) choices() []string    { return nil }
func (q fillQuestion) answerPrompt() string { return "Your answer: " }
func (q fillQuestion) explanation() string  { return q.r.Explanation }

func (q fillQuestion) accept(input string) (string, string, bool) {
	return strings.TrimSpace(input), "", true
}

func (q fillQuestion) grade(answer string) (float64, string) {
	switch points := GradeFillBlank(answer, q.r.Answer); points {
	case fullCredit:
		return points, correctMessage
	case partialCredit:
		return points, "Nearly there! Close enough!"
	default:
		return 0, "Wrong! The correct answer is: " + q.r.Answer
	}
}

type trueFalseQuestion struct{ r models.TrueFalseRecord }

func (q trueFalseQuestion) text() string         { return q.r.Question }
func (q trueFalseQuestion) choices() []string    { return nil }
func (q trueFalseQuestion) answerPrompt() string { return "Your answer (True/False or T/F): " }
func (q trueFalseQuestion) explanation() string  { return q.r.Explanation }

func (q trueFalseQuestion) accept(input string) (string, string, bool) {
	if v, ok := NormalizeTrueFalse(input); ok {
		return v, "", true
	}
	return "", "Please enter True/False or T/F", false
}

func (q trueFalseQuestion) grade(answer string) (float64, string) {
	if answer == strings.ToLower(q.r.Answer) {
		return fullCredit, correctMessage
	}
	return 0, "Wrong! The correct answer is: " + q.r.Answer
}

// NormalizeTrueFalse maps true/t and false/f, in any case, to "true" or "false".
func NormalizeTrueFalse(input string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "true", "t":
		return "true", true
	case "false", "f":
		return "false", true
	default:
		return "", false
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
