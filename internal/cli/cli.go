package cli

import (
	"context"
	"fmt"
	"io"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type Command struct {
	Name    string
	Summary string
	Usage   []string
	Run     func(ctx context.Context, args []string, s streams) int
}

// Run dispatches args to a command and returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := streams{in: stdin, out: stdout, err: stderr}
	if len(args) == 0 {
		printUsage(stdout)
		return ExitUsage
	}
	if isHelpArg(args[0]) {
		printUsage(stdout)
		return ExitOK
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}

	return cmd.Run(ctx, args[1:], s)
}

func findCommand(name string) *Command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			return true
		}
	}
	return false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  study-ai <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w, "\nUse \"study-ai <command> --help\" for more information.")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}

func command(name, summary string, usage []string, runner func(cmd *Command) func(ctx context.Context, args []string, s streams) int) *Command {
	cmd := &Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
	}
	cmd.Run = runner(cmd)
	return cmd
}

var commands []*Command

func init() {
	commands = []*Command{
		command("ingest", "Turn a PDF into study material for a topic", []string{
			"study-ai ingest <pdf> <topic>",
		}, runIngest),
		command("topics", "List topics", []string{
			"study-ai topics",
		}, runTopics),
		command("show", "Print a topic's generated material", []string{
			"study-ai show <topic> <summary|notes|flashcards|mcq|fill|tf|qa|raw>",
		}, runShow),
		command("study", "Study a topic's flashcards", []string{
			"study-ai study [--qa] [--review] [--ui auto|tui|plain] [--seed n] <topic>",
		}, runStudy),
		command("quiz", "Take a quiz on a topic", []string{
			"study-ai quiz [--ui auto|tui|plain] <topic> <mcq|fill|tf>",
		}, runQuiz),
		command("history", "Show past quiz scores", []string{
			"study-ai history [--limit n] <topic>",
		}, runHistory),
		command("export", "Export structured material as JSON or YAML", []string{
			"study-ai export [--format json|yaml] [--out path] <topic> <flashcards|mcq|fill|tf|qa>",
		}, runExport),
		command("serve", "Serve the HTTP API", []string{
			"study-ai serve [--port n]",
		}, runServe),
		command("setup", "Check configuration and create data directories", []string{
			"study-ai setup",
		}, runSetup),
	}
}
