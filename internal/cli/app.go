package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"study-ai/internal/config"
	"study-ai/internal/db"
	"study-ai/internal/logger"
	"study-ai/internal/models"
	"study-ai/internal/services"
)

// loadConfig is swapped in tests.
var loadConfig = config.Load

// app holds the stores every command works against.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	db       *sqlx.DB
	topics   *services.TopicStore
	attempts *services.AttemptStore
	reviews  *services.ReviewService
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &app{
		cfg:      cfg,
		log:      log,
		db:       conn,
		topics:   services.NewTopicStore(conn, cfg.OutputDir),
		attempts: services.NewAttemptStore(conn),
		reviews:  services.NewReviewService(conn),
	}, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.db.Close()
}

func (a *app) ingestion() (*services.IngestionService, error) {
	gen, err := services.NewGenerator(a.cfg)
	if err != nil {
		return nil, err
	}
	return services.NewIngestionService(a.topics, services.NewPDFService(), gen, a.log, services.IngestionOptions{
		Concurrency:   a.cfg.GenerationConcurrency,
		MaxInputChars: a.cfg.MaxInputChars,
	}), nil
}

// withApp opens the app for the duration of fn.
func withApp(s streams, fn func(a *app) int) int {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(s.err, "Error: %v\n", err)
		return ExitError
	}
	defer a.Close()
	return fn(a)
}

// parseArgs parses flags and checks the positional argument count. ok is
// false when the command should exit with code.
func parseArgs(cmd *Command, flags *flag.FlagSet, args []string, positional int, s streams) (rest []string, code int, ok bool) {
	if wantsHelp(args) {
		printCommandUsage(cmd, s.out)
		return nil, ExitOK, false
	}
	flags.SetOutput(s.err)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printCommandUsage(cmd, s.out)
			return nil, ExitOK, false
		}
		fmt.Fprintf(s.err, "invalid arguments: %v\n", err)
		printCommandUsage(cmd, s.err)
		return nil, ExitUsage, false
	}
	if flags.NArg() != positional {
		if flags.NArg() > positional {
			fmt.Fprintf(s.err, "unexpected arguments: %s\n", strings.Join(flags.Args()[positional:], " "))
		} else {
			fmt.Fprintln(s.err, "missing arguments")
		}
		printCommandUsage(cmd, s.err)
		return nil, ExitUsage, false
	}
	return flags.Args(), ExitOK, true
}

var kindAliases = map[string]models.ArtifactKind{
	"fill":  models.ArtifactFillBlanks,
	"tf":    models.ArtifactTrueFalse,
	"cards": models.ArtifactFlashcards,
}

// parseKind accepts artifact kinds and their short names.
func parseKind(s string) (models.ArtifactKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if kind, ok := kindAliases[s]; ok {
		return kind, nil
	}
	kind := models.ArtifactKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown material %q", s)
	}
	return kind, nil
}

// resolveTopic maps user input onto a stored topic name.
func resolveTopic(a *app, name string) (string, error) {
	topic, err := services.SanitizeTopic(name)
	if err != nil {
		return "", err
	}
	if !a.topics.Exists(topic) {
		return "", fmt.Errorf("%w: %s", services.ErrTopicNotFound, services.DisplayName(topic))
	}
	return topic, nil
}
