package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dialogrun/diavolo/internal/dialogue/config"
	"github.com/dialogrun/diavolo/internal/dialogue/runner"
	"github.com/dialogrun/diavolo/internal/dialogue/script"
)

func dialogueRun(args []string) {
	var scriptPath string
	var actors uint8 = 1
	var lang string
	var argsPath string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--actors":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--actors requires a value")
				os.Exit(1)
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 0 || n > 255 {
				fmt.Fprintf(os.Stderr, "invalid --actors value %q\n", args[i])
				os.Exit(1)
			}
			actors = uint8(n)
		case "--lang":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--lang requires a value")
				os.Exit(1)
			}
			lang = args[i]
		case "--args":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--args requires a value")
				os.Exit(1)
			}
			argsPath = args[i]
		default:
			if scriptPath != "" || strings.HasPrefix(args[i], "--") {
				fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
				os.Exit(1)
			}
			scriptPath = args[i]
		}
	}
	if scriptPath == "" {
		usage()
		os.Exit(1)
	}

	source, err := os.ReadFile(scriptPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	dialogue, err := script.Parse(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var rawArgs map[string]any
	if argsPath != "" {
		raw, err := os.ReadFile(argsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(raw, &rawArgs); err != nil {
			fmt.Fprintf(os.Stderr, "invalid --args file: %v\n", err)
			os.Exit(1)
		}
	}

	cfg := config.Default()
	if lang != "" {
		cfg.Language = lang
	}

	run, err := runner.Instantiate(cfg, dialogue, actors, rawArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	driveInteractive(run)
}

// driveInteractive renders successive Views to stdout and reads one
// command per line from stdin until the dialogue terminates.
func driveInteractive(run *runner.Runner) {
	stdin := bufio.NewScanner(os.Stdin)

	for {
		run.UpdateView()
		v := run.View()
		if v == nil || v.Kind == runner.KindTerminated {
			code := uint8(0)
			if v != nil {
				code = v.ExitCode
			}
			fmt.Printf("[exit %d]\n", code)
			os.Exit(int(code))
		}
		renderView(v)

		fmt.Print("> ")
		if !stdin.Scan() {
			return
		}
		line := strings.TrimSpace(stdin.Text())

		action, ok := parseCommand(line, v)
		if !ok {
			fmt.Fprintln(os.Stderr, "commands: advance (a), skip (s), fast (f), yes/no (y/n), select <key>")
			continue
		}

		accepted, err := run.Dispatch(action)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !accepted {
			fmt.Fprintln(os.Stderr, "action not valid for the current view")
		}
	}
}

func parseCommand(line string, v *runner.View) (runner.Action, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return runner.Action{}, false
	}
	switch strings.ToLower(fields[0]) {
	case "advance", "a", "":
		return runner.Advance(), true
	case "skip", "s":
		return runner.Skip(), true
	case "fast", "f":
		return runner.ToggleFastForward(), true
	case "yes", "y":
		return runner.ConfirmWith(true), true
	case "no", "n":
		return runner.ConfirmWith(false), true
	case "select":
		if len(fields) < 2 {
			return runner.Action{}, false
		}
		return runner.Select(fields[1]), true
	default:
		if v.Kind == runner.KindChoice {
			return runner.Select(fields[0]), true
		}
		return runner.Action{}, false
	}
}

func renderView(v *runner.View) {
	switch v.Kind {
	case runner.KindMessage:
		m := v.Message
		fmt.Printf("[%d] %s (%d/%d)\n", m.Owner, visibleText(m), m.VisibleChars, m.TotalChars)
	case runner.KindConfirm:
		m := v.Confirm.Message
		fmt.Printf("[%d] %s (%d/%d) [y/n]\n", m.Owner, visibleText(&m), m.VisibleChars, m.TotalChars)
	case runner.KindChoice:
		if v.Choice.Message != nil {
			m := v.Choice.Message
			fmt.Printf("[%d] %s\n", m.Owner, visibleText(m))
		}
		for _, opt := range v.Choice.Options {
			marker := " "
			if v.Choice.Selected != nil && *v.Choice.Selected == opt.Key {
				marker = "*"
			}
			fmt.Printf("  %s %s) %s\n", marker, opt.Key, opt.Text)
		}
	}
}

func visibleText(m *runner.MessageView) string {
	runes := []rune(m.Text)
	n := m.VisibleChars
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n])
}
