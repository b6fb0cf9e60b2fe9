// Package parser turns the line-prefixed text produced by the generator into
// typed records. Parsing is best effort: blocks missing a required field are
// dropped and never reported as errors.
package parser

import (
	"strings"

	"study-ai/internal/models"
)

const (
	flashcardDelimiter = "---"
	blockDelimiter     = "\n\n"
)

// ParseFlashcards splits text on "---" and keeps every block that has both a
// "Q:" and an "A:" line.
func ParseFlashcards(text string) []models.FlashcardRecord {
	cards := make([]models.FlashcardRecord, 0)
	for _, block := range strings.Split(normalize(text), flashcardDelimiter) {
		var question, answer string
		for _, line := range blockLines(block) {
			switch {
			case strings.HasPrefix(line, "Q:"):
				question = fieldValue(line)
			case strings.HasPrefix(line, "A:"):
				answer = fieldValue(line)
			}
		}
		if question != "" && answer != "" {
			cards = append(cards, models.FlashcardRecord{Question: question, Answer: answer})
		}
	}
	return cards
}

// ParseQA reads free-form question/answer pairs separated by blank lines.
func ParseQA(text string) []models.FlashcardRecord {
	cards := make([]models.FlashcardRecord, 0)
	for _, f := range scanAnswerBlocks(text) {
		cards = append(cards, models.FlashcardRecord{Question: f.question, Answer: f.answer})
	}
	return cards
}

// ParseMCQ keeps blocks with a question, exactly four labelled options and a
// correct letter. Any other option count discards the whole block.
func ParseMCQ(text string) []models.MCQRecord {
	questions := make([]models.MCQRecord, 0)
	for _, block := range strings.Split(normalize(text), blockDelimiter) {
		if !strings.Contains(block, "Q") || !strings.Contains(block, "A)") {
			continue
		}
		var (
			question    string
			options     []string
			correct     string
			explanation string
		)
		for _, line := range blockLines(block) {
			switch {
			case strings.HasPrefix(line, "Q"):
				if strings.Contains(line, ":") {
					question = fieldValue(line)
				} else {
					question = line
				}
			case isOptionLine(line):
				options = append(options, strings.TrimSpace(line))
			case strings.HasPrefix(line, "Correct:"):
				correct = fieldValue(line)
			case strings.HasPrefix(line, "Explanation:"):
				explanation = fieldValue(line)
			}
		}
		if question == "" || len(options) != 4 || correct == "" {
			continue
		}
		questions = append(questions, models.MCQRecord{
			Question:    question,
			Options:     options,
			Correct:     strings.ToUpper(correct),
			Explanation: explanation,
		})
	}
	return questions
}

// ParseFillBlanks reads blank-line separated Q:/A:/Explanation: blocks.
func ParseFillBlanks(text string) []models.FillBlankRecord {
	questions := make([]models.FillBlankRecord, 0)
	for _, f := range scanAnswerBlocks(text) {
		questions = append(questions, models.FillBlankRecord{
			Question:    f.question,
			Answer:      f.answer,
			Explanation: f.explanation,
		})
	}
	return questions
}

// ParseTrueFalse uses the fill-blank block format. Whether the answer is
// literally "True" or "False" is checked by the quiz, not here.
func ParseTrueFalse(text string) []models.TrueFalseRecord {
	questions := make([]models.TrueFalseRecord, 0)
	for _, f := range scanAnswerBlocks(text) {
		questions = append(questions, models.TrueFalseRecord{
			Question:    f.question,
			Answer:      f.answer,
			Explanation: f.explanation,
		})
	}
	return questions
}

type answerFields struct {
	question    string
	answer      string
	explanation string
}

// scanAnswerBlocks returns the blocks that carry both a question and an answer.
func scanAnswerBlocks(text string) []answerFields {
	var out []answerFields
	for _, block := range strings.Split(normalize(text), blockDelimiter) {
		var f answerFields
		for _, line := range blockLines(block) {
			switch {
			case strings.HasPrefix(line, "Q:"):
				f.question = fieldValue(line)
			case strings.HasPrefix(line, "A:"):
				f.answer = fieldValue(line)
			case strings.HasPrefix(line, "Explanation:"):
				f.explanation = fieldValue(line)
			}
		}
		if f.question != "" && f.answer != "" {
			out = append(out, f)
		}
	}
	return out
}

func isOptionLine(line string) bool {
	for _, label := range []string{"A)", "B)", "C)", "D)"} {
		if strings.HasPrefix(line, label) {
			return true
		}
	}
	return false
}

// fieldValue returns the trimmed text after the first colon.
func fieldValue(line string) string {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}

// blockLines trims the block as a whole; individual lines keep their
// leading whitespace so indented lines do not match a prefix.
func blockLines(block string) []string {
	return strings.Split(strings.TrimSpace(block), "\n")
}

func normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
