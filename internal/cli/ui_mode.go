package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"study-ai/internal/host"
)

// uiModeDecision captures whether to run a session full screen.
type uiModeDecision struct {
	useTUI  bool
	warning string
}

// isTerminal reports whether a reader or writer is a TTY.
var isTerminal = defaultIsTerminal

// resolveUIMode picks the session host. Full screen needs a terminal on both ends.
func resolveUIMode(mode string, stdin io.Reader, stdout io.Writer) (uiModeDecision, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = "auto"
	}
	interactive := isTerminal(stdin) && isTerminal(stdout)
	switch normalized {
	case "auto":
		return uiModeDecision{useTUI: interactive}, nil
	case "tui":
		if interactive {
			return uiModeDecision{useTUI: true}, nil
		}
		return uiModeDecision{
			useTUI:  false,
			warning: "Full-screen UI requested but the terminal is not interactive; falling back to plain output.",
		}, nil
	case "plain":
		return uiModeDecision{useTUI: false}, nil
	default:
		return uiModeDecision{}, fmt.Errorf("invalid ui mode %q (expected auto|tui|plain)", mode)
	}
}

func defaultIsTerminal(v any) bool {
	if v == nil {
		return false
	}
	if file, ok := v.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := v.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

// runSession drives m on the chosen host.
func runSession(ctx context.Context, s streams, ui uiModeDecision, title string, m host.Machine, observe host.Observer) error {
	if ui.warning != "" {
		fmt.Fprintln(s.err, ui.warning)
	}
	if ui.useTUI {
		return host.RunTUI(ctx, m, host.TUIOptions{
			Title:   title,
			NoColor: os.Getenv("NO_COLOR") != "",
			Observe: observe,
		})
	}
	return host.NewConsole(s.in, s.out).Run(ctx, m, observe)
}
