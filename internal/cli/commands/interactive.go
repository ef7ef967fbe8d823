package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leappivot/internal/cli/output"
	"github.com/leapstack-labs/leappivot/internal/engine"
	"github.com/spf13/cobra"
)

const interactivePrompt = "leappivot> "

// errQuit ends the session from any prompt.
var errQuit = errors.New("quit")

// lineReader is the part of readline.Instance the session uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// NewInteractiveCommand creates the interactive command.
func NewInteractiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "interactive [file]",
		Aliases: []string{"repl"},
		Short:   "Build pivot tables from prompts",
		Long: `Start an interactive session that asks for a data file, index columns,
grouping columns, value columns, a fill value and an output path, then shows
the resulting pivot table.

Column prompts take comma-separated names. Leave an answer empty to use the
default. Errors are reported and the next pivot starts. Type .quit or press
Ctrl-D to leave; Ctrl-C abandons the current pivot.`,
		Example: `  leappivot interactive
  leappivot interactive titanic.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runInteractive(cmd, file)
		},
	}
}

func runInteractive(cmd *cobra.Command, file string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          interactivePrompt,
		HistoryFile:     historyPath(cmdCtx.Cfg.HistoryFile),
		AutoComplete:    newPromptCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize interactive session: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cmdCtx.Renderer
	r.Println("LeapPivot interactive session")
	r.Println("Leave an answer empty for the default, .quit to exit")
	r.Println("")

	s := &session{rl: rl, cmdCtx: cmdCtx, file: file}
	return s.run(cmd.Context())
}

// historyPath places a relative history file in the user's home directory.
func historyPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, name)
}

func newPromptCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem(".help"),
	)
}

// session runs the prompt loop.
type session struct {
	rl     lineReader
	cmdCtx *CommandContext
	file   string // last file used, offered as the default
}

func (s *session) run(ctx context.Context) error {
	r := s.cmdCtx.Renderer
	for {
		req, err := s.ask()
		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, readline.ErrInterrupt):
			r.Println("")
			continue
		case err != nil:
			r.Error(err.Error())
			continue
		}

		res, err := s.cmdCtx.Engine.Run(ctx, req)
		if err != nil {
			r.Error(err.Error())
			continue
		}
		if err := renderPivot(r, res); err != nil {
			r.Error(err.Error())
		}
		r.Println("")
	}
}

// ask prompts for one pivot request.
func (s *session) ask() (engine.Request, error) {
	var req engine.Request
	cfg := s.cmdCtx.Cfg

	fileLabel := "File path: "
	if s.file != "" {
		fileLabel = fmt.Sprintf("File path [%s]: ", s.file)
	}
	file, err := s.prompt(fileLabel)
	if err != nil {
		return req, err
	}
	if file == "" {
		file = s.file
	}
	if file == "" {
		return req, errors.New("a file path is required")
	}
	s.file = file

	var answers [5]string
	labels := [5]string{
		"Index columns: ",
		"Grouping columns: ",
		"Aggregation columns: ",
		"Fill value: ",
		"Output path: ",
	}
	for i, label := range labels {
		if answers[i], err = s.prompt(label); err != nil {
			return req, err
		}
	}

	fill := answers[3]
	if fill == "" {
		fill = cfg.Fill
	}
	opts, err := buildOptions(cfg, splitList(answers[0]), splitList(answers[1]), splitList(answers[2]), fill)
	if err != nil {
		return req, err
	}

	return engine.Request{Input: file, Output: answers[4], Options: opts}, nil
}

// prompt reads one answer, handling dot-commands.
func (s *session) prompt(label string) (string, error) {
	for {
		s.rl.SetPrompt(label)
		line, err := s.rl.Readline()
		s.rl.SetPrompt(interactivePrompt)
		if err != nil {
			return "", err
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case ".quit", ".exit":
			return "", errQuit
		case ".help":
			printInteractiveHelp(s.cmdCtx.Renderer)
			continue
		}
		return line, nil
	}
}

func printInteractiveHelp(r *output.Renderer) {
	r.Println(`
Commands:
  .help           Show this help message
  .quit / .exit   Leave the session

Tips:
  - Separate several column names with commas
  - Leave an answer empty to use the default
  - Ctrl-C abandons the pivot being entered
`)
}
