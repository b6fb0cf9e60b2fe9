package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"study-ai/internal/flashcards"
	"study-ai/internal/host"
	"study-ai/internal/models"
	"study-ai/internal/parser"
	"study-ai/internal/quiz"
	"study-ai/internal/services"
)

func runStudy(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		qa := flags.Bool("qa", false, "Study the Q&A pairs instead of the flashcards")
		review := flags.Bool("review", false, "Put cards that are due for review first")
		uiMode := flags.String("ui", "auto", "Session UI: auto, tui or plain")
		seed := flags.Uint64("seed", 0, "Seed for random and shuffle (0 picks one)")
		rest, code, ok := parseArgs(cmd, flags, args, 1, s)
		if !ok {
			return code
		}
		ui, err := resolveUIMode(*uiMode, s.in, s.out)
		if err != nil {
			fmt.Fprintln(s.err, err)
			return ExitUsage
		}

		return withApp(s, func(a *app) int {
			topic, err := resolveTopic(a, rest[0])
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}

			kind := models.ArtifactFlashcards
			if *qa {
				kind = models.ArtifactQA
			}
			cards, err := loadCards(a, topic, kind)
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}

			if *review && len(cards) > 0 {
				ordered, due, err := a.reviews.DueOrder(ctx, topic, cards, time.Now())
				if err != nil {
					fmt.Fprintf(s.err, "Error: %v\n", err)
					return ExitError
				}
				cards = ordered
				fmt.Fprintf(s.out, "%d of %d cards are due for review.\n", due, len(cards))
			}

			var rng *rand.Rand
			if *seed != 0 {
				rng = rand.New(rand.NewPCG(*seed, *seed))
			}
			session, err := flashcards.NewSession(cards, rng)
			if errors.Is(err, flashcards.ErrNoCards) {
				fmt.Fprintln(s.out, "No flashcards available!")
				return ExitError
			}
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}

			observe := func(out host.Output) {
				if out.Rating == models.RatingNone {
					return
				}
				if _, _, err := a.reviews.Review(ctx, topic, out.Card, out.Rating); err != nil {
					a.log.Warn("record review", zap.String("topic", topic), zap.Error(err))
				}
			}
			title := fmt.Sprintf("%s: %s", services.DisplayName(topic), kind.Title())
			if err := runSession(ctx, s, ui, title, session, observe); err != nil && !errors.Is(err, host.ErrAborted) {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			return ExitOK
		})
	}
}

func loadCards(a *app, topic string, kind models.ArtifactKind) ([]models.FlashcardRecord, error) {
	text, err := a.topics.Load(topic, kind)
	if errors.Is(err, services.ErrArtifactNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if kind == models.ArtifactQA {
		return parser.ParseQA(text), nil
	}
	return parser.ParseFlashcards(text), nil
}

var quizNames = map[models.ArtifactKind]string{
	models.ArtifactMCQ:        "MCQ",
	models.ArtifactFillBlanks: "fill-in-the-blank",
	models.ArtifactTrueFalse:  "true/false",
}

func runQuiz(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		uiMode := flags.String("ui", "auto", "Session UI: auto, tui or plain")
		rest, code, ok := parseArgs(cmd, flags, args, 2, s)
		if !ok {
			return code
		}
		ui, err := resolveUIMode(*uiMode, s.in, s.out)
		if err != nil {
			fmt.Fprintln(s.err, err)
			return ExitUsage
		}
		kind, err := parseKind(rest[1])
		if _, isQuiz := quizNames[kind]; err != nil || !isQuiz {
			fmt.Fprintf(s.err, "unknown quiz type %q (expected mcq|fill|tf)\n", rest[1])
			return ExitUsage
		}

		return withApp(s, func(a *app) int {
			topic, err := resolveTopic(a, rest[0])
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			session, err := loadQuiz(a, topic, kind)
			if errors.Is(err, quiz.ErrNoQuestions) {
				fmt.Fprintf(s.out, "No %s questions available!\n", quizNames[kind])
				return ExitError
			}
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}

			title := fmt.Sprintf("%s: %s", services.DisplayName(topic), kind.Title())
			err = runSession(ctx, s, ui, title, session, nil)
			if errors.Is(err, host.ErrAborted) {
				fmt.Fprintln(s.out, "\nQuiz ended early; score not saved.")
				return ExitOK
			}
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}

			if _, err := a.attempts.Record(ctx, topic, kind, session.Result()); err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			return ExitOK
		})
	}
}

// loadQuiz builds a session from a topic's stored questions. A missing file
// counts as no questions.
func loadQuiz(a *app, topic string, kind models.ArtifactKind) (*quiz.Session, error) {
	text, err := a.topics.Load(topic, kind)
	if errors.Is(err, services.ErrArtifactNotFound) {
		text, err = "", nil
	}
	if err != nil {
		return nil, err
	}
	switch kind {
	case models.ArtifactMCQ:
		return quiz.NewMCQ(parser.ParseMCQ(text))
	case models.ArtifactFillBlanks:
		return quiz.NewFillBlanks(parser.ParseFillBlanks(text))
	default:
		return quiz.NewTrueFalse(parser.ParseTrueFalse(text))
	}
}
