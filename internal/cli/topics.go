package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"study-ai/internal/services"
)

func runTopics(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		if _, code, ok := parseArgs(cmd, flags, args, 0, s); !ok {
			return code
		}

		return withApp(s, func(a *app) int {
			topics, err := a.topics.List(ctx)
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			if len(topics) == 0 {
				fmt.Fprintln(s.out, "No topics found yet.")
				return ExitOK
			}

			fmt.Fprintln(s.out, "Available Topics:")
			for i, t := range topics {
				kinds, err := a.topics.Artifacts(t.Name)
				if err != nil {
					fmt.Fprintf(s.err, "Error: %v\n", err)
					return ExitError
				}
				line := fmt.Sprintf("%d. %s", i+1, services.DisplayName(t.Name))
				if t.PageCount > 0 {
					line += fmt.Sprintf(" (%d pages)", t.PageCount)
				}
				fmt.Fprintln(s.out, line)
				if len(kinds) > 0 {
					names := make([]string, len(kinds))
					for j, k := range kinds {
						names[j] = string(k)
					}
					fmt.Fprintf(s.out, "   %s\n", strings.Join(names, ", "))
				}
			}
			return ExitOK
		})
	}
}

func runShow(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		rest, code, ok := parseArgs(cmd, flags, args, 2, s)
		if !ok {
			return code
		}
		kind, err := parseKind(rest[1])
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
			content, err := a.topics.Load(topic, kind)
			if errors.Is(err, services.ErrArtifactNotFound) {
				fmt.Fprintf(s.out, "No %s found for this topic.\n", strings.ToLower(kind.Title()))
				return ExitError
			}
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}

			fmt.Fprintln(s.out, kind.Title())
			fmt.Fprintln(s.out, strings.Repeat("=", 60))
			fmt.Fprintln(s.out, strings.TrimRight(content, "\n"))
			return ExitOK
		})
	}
}

func runHistory(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		limit := flags.Int("limit", 20, "Number of attempts to show")
		rest, code, ok := parseArgs(cmd, flags, args, 1, s)
		if !ok {
			return code
		}

		return withApp(s, func(a *app) int {
			topic, err := services.SanitizeTopic(rest[0])
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			attempts, err := a.attempts.List(ctx, topic, *limit)
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			if len(attempts) == 0 {
				fmt.Fprintf(s.out, "No quiz attempts for %s yet.\n", services.DisplayName(topic))
				return ExitOK
			}
			for _, at := range attempts {
				fmt.Fprintf(s.out, "%s  %-11s %6.1f%%  %g/%d  %s\n",
					at.FinishedAt.Local().Format("2006-01-02 15:04"),
					at.Kind, at.Percentage, at.Score, at.Total, at.Band)
			}
			return ExitOK
		})
	}
}

func runExport(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		format := flags.String("format", services.FormatJSON, "Output format: json or yaml")
		outPath := flags.String("out", "", "Write to a file instead of stdout")
		rest, code, ok := parseArgs(cmd, flags, args, 2, s)
		if !ok {
			return code
		}
		kind, err := parseKind(rest[1])
		if err != nil {
			fmt.Fprintln(s.err, err)
			return ExitUsage
		}
		if err := services.CheckFormat(*format); err != nil {
			fmt.Fprintln(s.err, err)
			return ExitUsage
		}

		return withApp(s, func(a *app) int {
			topic, err := resolveTopic(a, rest[0])
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			content, err := a.topics.Load(topic, kind)
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}

			if *outPath == "" {
				if err := services.Export(s.out, kind, content, *format); err != nil {
					fmt.Fprintf(s.err, "Error: %v\n", err)
					return ExitError
				}
				return ExitOK
			}

			// Render fully before creating the file so a failed export leaves nothing behind.
			var buf bytes.Buffer
			if err := services.Export(&buf, kind, content, *format); err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			if err := writeFile(*outPath, buf.Bytes()); err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return ExitError
			}
			fmt.Fprintf(s.out, "Exported %s to %s\n", kind.Title(), *outPath)
			return ExitOK
		})
	}
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
