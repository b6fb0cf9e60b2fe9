package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"study-ai/internal/config"
	"study-ai/internal/services"
)

func runIngest(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		rest, code, ok := parseArgs(cmd, flags, args, 2, s)
		if !ok {
			return code
		}
		pdfPath := rest[0]
		if info, err := os.Stat(pdfPath); err != nil || info.IsDir() {
			fmt.Fprintln(s.err, "File not found.")
			return ExitError
		}
		if _, err := services.SanitizeTopic(rest[1]); err != nil {
			fmt.Fprintln(s.err, "Topic name cannot be empty.")
			return ExitUsage
		}

		return withApp(s, func(a *app) int {
			ingestion, err := a.ingestion()
			if errors.Is(err, services.ErrAIUnavailable) {
				fmt.Fprintf(s.err, "AI features are disabled: %s\n", missingKeyHint(a.cfg))
				return ExitError
			}
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}

			fmt.Fprintln(s.out, "Processing PDF...")
			progress := func(step, message string, current, total int) {
				fmt.Fprintf(s.out, "[%d/%d] %s\n", current, total, message)
			}
			res, err := ingestion.Ingest(ctx, pdfPath, rest[1], progress)
			if err != nil {
				fmt.Fprintf(s.err, "Error processing PDF: %v\n", err)
				return ExitError
			}
			fmt.Fprintf(s.out, "Files saved in: %s\n", res.Topic.Dir)
			return ExitOK
		})
	}
}

func runSetup(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		if _, code, ok := parseArgs(cmd, flags, args, 0, s); !ok {
			return code
		}

		return withApp(s, func(a *app) int {
			fmt.Fprintln(s.out, "Setup Information")
			fmt.Fprintln(s.out, "=================")
			status := "Available"
			if !a.cfg.HasAIKey() {
				status = "Disabled (" + missingKeyHint(a.cfg) + ")"
			}
			fmt.Fprintf(s.out, "  %-15s %s\n", "AI provider", a.cfg.AIProvider)
			fmt.Fprintf(s.out, "  %-15s %s\n", "AI features", status)
			fmt.Fprintf(s.out, "  %-15s %s\n", "Output dir", a.cfg.OutputDir)
			fmt.Fprintf(s.out, "  %-15s %s\n", "Database", a.cfg.Database)
			envStatus := "Missing"
			if _, err := os.Stat(".env"); err == nil {
				envStatus = "Found"
			}
			fmt.Fprintf(s.out, "  %-15s %s\n", ".env", envStatus)
			return ExitOK
		})
	}
}

func missingKeyHint(cfg config.Config) string {
	if cfg.AIProvider == config.ProviderAnthropic {
		return "set ANTHROPIC_API_KEY"
	}
	return "set OPENAI_API_KEY"
}
