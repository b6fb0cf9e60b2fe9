package models

import (
	"database/sql"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
)

// ArtifactKind names one generated study artifact stored under a topic.
type ArtifactKind string

const (
	ArtifactRaw        ArtifactKind = "raw"
	ArtifactSummary    ArtifactKind = "summary"
	ArtifactNotes      ArtifactKind = "notes"
	ArtifactFlashcards ArtifactKind = "flashcards"
	ArtifactMCQ        ArtifactKind = "mcq"
	ArtifactFillBlanks ArtifactKind = "fill_blanks"
	ArtifactTrueFalse  ArtifactKind = "true_false"
	ArtifactQA         ArtifactKind = "qa"
)

// GeneratedKinds lists the artifacts produced from a document's text, in generation order.
var GeneratedKinds = []ArtifactKind{
	ArtifactSummary,
	ArtifactNotes,
	ArtifactFlashcards,
	ArtifactMCQ,
	ArtifactFillBlanks,
	ArtifactTrueFalse,
	ArtifactQA,
}

var artifactFiles = map[ArtifactKind]string{
	ArtifactRaw:        "raw.txt",
	ArtifactSummary:    "summary.txt",
	ArtifactNotes:      "notes.txt",
	ArtifactFlashcards: "flashcards.txt",
	ArtifactMCQ:        "mcq_questions.txt",
	ArtifactFillBlanks: "fill_blanks.txt",
	ArtifactTrueFalse:  "true_false.txt",
	ArtifactQA:         "qa_questions.txt",
}

// FileName returns the file an artifact is stored in, or "" for unknown kinds.
func (k ArtifactKind) FileName() string {
	return artifactFiles[k]
}

// Valid reports whether k is a known artifact kind.
func (k ArtifactKind) Valid() bool {
	_, ok := artifactFiles[k]
	return ok
}

// Title is the human label used in menus and progress output.
func (k ArtifactKind) Title() string {
	switch k {
	case ArtifactRaw:
		return "Raw text"
	case ArtifactSummary:
		return "Summary"
	case ArtifactNotes:
		return "Notes"
	case ArtifactFlashcards:
		return "Flashcards"
	case ArtifactMCQ:
		return "MCQ questions"
	case ArtifactFillBlanks:
		return "Fill-in-the-blank questions"
	case ArtifactTrueFalse:
		return "True/false questions"
	case ArtifactQA:
		return "Q&A pairs"
	default:
		return string(k)
	}
}

// FlashcardRecord is one question/answer card parsed from a flashcard or Q&A artifact.
type FlashcardRecord struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// MCQRecord is a multiple-choice question. Options always holds four
// entries that keep their "A)".."D)" labels; Correct is a single letter.
type MCQRecord struct {
	Question    string   `json:"question" yaml:"question"`
	Options     []string `json:"options" yaml:"options"`
	Correct     string   `json:"correct" yaml:"correct"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

type FillBlankRecord struct {
	Question    string `json:"question" yaml:"question"`
	Answer      string `json:"answer" yaml:"answer"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

type TrueFalseRecord struct {
	Question    string `json:"question" yaml:"question"`
	Answer      string `json:"answer" yaml:"answer"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Rating is the self-assessment a learner gives after revealing a flashcard.
type Rating int

const (
	RatingNone Rating = iota
	RatingHard
	RatingEasy
)

func (r Rating) String() string {
	switch r {
	case RatingHard:
		return "hard"
	case RatingEasy:
		return "easy"
	default:
		return "none"
	}
}

// FSRS maps a self-assessment onto the scheduler's rating scale.
func (r Rating) FSRS() (fsrs.Rating, bool) {
	switch r {
	case RatingHard:
		return fsrs.Hard, true
	case RatingEasy:
		return fsrs.Easy, true
	default:
		return 0, false
	}
}

type Topic struct {
	Name      string    `db:"name" json:"name"`
	Dir       string    `db:"dir" json:"dir"`
	SourcePDF string    `db:"source_pdf" json:"sourcePdf"`
	PageCount int       `db:"page_count" json:"pageCount"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// QuizAttempt is a completed quiz play-through.
type QuizAttempt struct {
	ID         string       `db:"id" json:"id"`
	Topic      string       `db:"topic" json:"topic"`
	Kind       ArtifactKind `db:"kind" json:"kind"`
	Score      float64      `db:"score" json:"score"`
	Total      int          `db:"total" json:"total"`
	Percentage float64      `db:"percentage" json:"percentage"`
	Band       string       `db:"band" json:"band"`
	FinishedAt time.Time    `db:"finished_at" json:"finishedAt"`
}

// CardReview carries the spaced-repetition state of one flashcard in a topic.
type CardReview struct {
	Topic         string       `db:"topic"`
	Question      string       `db:"question"`
	Answer        string       `db:"answer"`
	Due           sql.NullTime `db:"due"`
	Stability     float64      `db:"stability"`
	Difficulty    float64      `db:"difficulty"`
	ElapsedDays   int          `db:"elapsed_days"`
	ScheduledDays int          `db:"scheduled_days"`
	Reps          int          `db:"reps"`
	Lapses        int          `db:"lapses"`
	State         int          `db:"state"`
	LastReview    sql.NullTime `db:"last_review"`
}

type ReviewLog struct {
	Topic         string
	Question      string
	Rating        int
	ScheduledDays int
	ElapsedDays   int
	State         int
	ReviewedAt    time.Time
}

func (c *CardReview) ToFSRSCard() fsrs.Card {
	card := fsrs.Card{
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(max(c.ElapsedDays, 0)),
		ScheduledDays: uint64(max(c.ScheduledDays, 0)),
		Reps:          uint64(max(c.Reps, 0)),
		Lapses:        uint64(max(c.Lapses, 0)),
		State:         fsrs.State(max(c.State, 0)),
	}
	if c.Due.Valid {
		card.Due = c.Due.Time
	}
	if c.LastReview.Valid {
		card.LastReview = c.LastReview.Time
	}
	return card
}

func (c *CardReview) ApplyFSRSCard(f fsrs.Card) {
	c.Due = sql.NullTime{Time: f.Due, Valid: !f.Due.IsZero()}
	c.Stability = f.Stability
	c.Difficulty = f.Difficulty
	c.ElapsedDays = int(f.ElapsedDays)
	c.ScheduledDays = int(f.ScheduledDays)
	c.Reps = int(f.Reps)
	c.Lapses = int(f.Lapses)
	c.State = int(f.State)
	c.LastReview = sql.NullTime{Time: f.LastReview, Valid: !f.LastReview.IsZero()}
}
