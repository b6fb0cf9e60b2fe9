package quiz

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-ai/internal/host"
	"study-ai/internal/models"
)

func mcqRecords() []models.MCQRecord {
	options := []string{"A) one", "B) two", "C) three", "D) four"}
	return []models.MCQRecord{
		{Question: "First?", Options: options, Correct: "A", Explanation: "Because A."},
		{Question: "Second?", Options: options, Correct: "B"},
	}
}

// play feeds inputs and returns every output produced, including Start.
func play(t *testing.T, s *Session, inputs ...string) []host.Output {
	t.Helper()
	outputs := []host.Output{s.Start()}
	for _, in := range inputs {
		require.False(t, s.Done(), "session finished before input %q", in)
		outputs = append(outputs, s.Handle(in))
	}
	return outputs
}

func joined(outputs []host.Output) string {
	var lines []string
	for _, out := range outputs {
		lines = append(lines, out.Lines...)
	}
	return strings.Join(lines, "\n")
}

func TestMCQEndToEnd(t *testing.T) {
	s, err := NewMCQ(mcqRecords())
	require.NoError(t, err)

	outputs := play(t, s, "A", "", "C", "")
	require.True(t, s.Done())

	res := s.Result()
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, 2, res.Total)
	assert.InDelta(t, 50.0, res.Percentage, 1e-9)
	assert.Equal(t, BandKeepStudying, res.Band)

	text := joined(outputs)
	assert.Contains(t, text, "Starting MCQ Quiz! (2 questions)")
	assert.Contains(t, text, "Question 1: First?")
	assert.Contains(t, text, "  B) two")
	assert.Contains(t, text, "Correct! Good going!")
	assert.Contains(t, text, "Explanation: Because A.")
	assert.Contains(t, text, "Wrong! The correct answer is B")
	assert.Contains(t, text, "Your Score: 1/2 (50.0%)")
	assert.Contains(t, text, "Keep studying! You'll get there!")
	assert.True(t, outputs[len(outputs)-1].Done)
}

func TestMCQRepromptsInvalidLetters(t *testing.T) {
	s, err := NewMCQ(mcqRecords())
	require.NoError(t, err)
	s.Start()

	for _, in := range []string{"E", "", "AB", "1"} {
		out := s.Handle(in)
		assert.Equal(t, []string{"Please enter A, B, C, or D"}, out.Lines)
		assert.Equal(t, "Your answer (A/B/C/D): ", out.Prompt)
		assert.Equal(t, 0, s.Index(), "invalid input must not advance")
	}

	s.Handle("  a ")
	assert.Equal(t, 1.0, s.Score(), "input is trimmed and upper-cased")
	assert.Equal(t, 1, s.Index())
}

func TestFillBlanksScoring(t *testing.T) {
	records := []models.FillBlankRecord{
		{Question: "The ___ is the powerhouse of the cell.", Answer: "Mitochondria"},
		{Question: "Q2", Answer: "the mitochondria is the powerhouse"},
		{Question: "Q3", Answer: "the mitochondria is the powerhouse"},
		{Question: "Q4", Answer: "the mitochondria is the powerhouse"},
	}
	s, err := NewFillBlanks(records)
	require.NoError(t, err)

	outputs := play(t, s,
		"  mitochondria ", "",
		"mitochondria powerhouse", "",
		"the mitochondria is", "",
		"nothing", "",
	)
	require.True(t, s.Done())
	assert.Equal(t, 1.5, s.Score())

	text := joined(outputs)
	assert.Contains(t, text, "Starting Fill-in-the-Blanks Quiz! (4 questions)")
	assert.Contains(t, text, "Nearly there! Close enough!")
	assert.Contains(t, text, "Wrong! The correct answer is: the mitochondria is the powerhouse")
	assert.Contains(t, text, "Your Score: 1.5/4 (37.5%)")
}

func TestTrueFalseNormalization(t *testing.T) {
	for _, in := range []string{"T", "t", "True", "TRUE", " true "} {
		got, ok := NormalizeTrueFalse(in)
		assert.True(t, ok, in)
		assert.Equal(t, "true", got, in)
	}
	for _, in := range []string{"F", "false", "False"} {
		got, ok := NormalizeTrueFalse(in)
		assert.True(t, ok, in)
		assert.Equal(t, "false", got, in)
	}
	for _, in := range []string{"yes", "no", "", "tru"} {
		_, ok := NormalizeTrueFalse(in)
		assert.False(t, ok, in)
	}
}

func TestTrueFalseSession(t *testing.T) {
	s, err := NewTrueFalse([]models.TrueFalseRecord{
		{Question: "Go has goroutines.", Answer: "True", Explanation: "It does."},
		{Question: "The earth is flat.", Answer: "False"},
	})
	require.NoError(t, err)
	s.Start()

	out := s.Handle("yes")
	assert.Equal(t, []string{"Please enter True/False or T/F"}, out.Lines)
	assert.Equal(t, 0, s.Index())

	out = s.Handle("t")
	assert.Equal(t, []string{"Correct! Good going!", "Explanation: It does."}, out.Lines)
	s.Handle("")

	out = s.Handle("TRUE")
	assert.Equal(t, []string{"Wrong! The correct answer is: False"}, out.Lines)
	out = s.Handle("")
	assert.True(t, out.Done)
	assert.Equal(t, BandKeepStudying, s.Result().Band)
}

func TestEmptyQuizRefusesToStart(t *testing.T) {
	_, err := NewMCQ(nil)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = NewFillBlanks([]models.FillBlankRecord{})
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = NewTrueFalse(nil)
	assert.True(t, errors.Is(err, ErrNoQuestions))

	_, err = Summarize(0, 0)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestHandleAfterDone(t *testing.T) {
	s, err := NewMCQ(mcqRecords()[:1])
	require.NoError(t, err)
	play(t, s, "A", "")
	require.True(t, s.Done())

	out := s.Handle("B")
	assert.True(t, out.Done)
	assert.Equal(t, 1.0, s.Score())
}

func TestSessionRunsOnConsole(t *testing.T) {
	s, err := NewMCQ(mcqRecords())
	require.NoError(t, err)

	var out strings.Builder
	err = host.NewConsole(strings.NewReader("x\nA\n\nC\n\n"), &out).Run(t.Context(), s, nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.Score())
	assert.Contains(t, out.String(), "Please enter A, B, C, or D")
	assert.Contains(t, out.String(), "Your Score: 1/2 (50.0%)")
}
