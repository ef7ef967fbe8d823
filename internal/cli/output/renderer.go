// Package output renders command results for terminals, pipes and machines.
//
// Auto mode picks styled text when stdout is a terminal and markdown when it
// is piped. JSON, CSV and YAML are available for scripting.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode selects how results are rendered.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeYAML     Mode = "yaml"
)

// Modes lists every accepted mode, for flag completion and validation.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON), string(ModeCSV), string(ModeYAML)}
}

// ParseMode validates s. The empty string means auto; "md" is accepted as
// an alias for markdown.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return ModeAuto, nil
	case "md":
		return ModeMarkdown, nil
	}
	if slices.Contains(Modes(), s) {
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid output format %q (valid: %s)", s, strings.Join(Modes(), ", "))
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	w      io.Writer
	errW   io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer for w. Diagnostics go to errW.
func NewRenderer(w, errW io.Writer, mode Mode) *Renderer {
	isTTY := IsTerminal(w)

	lr := lipgloss.NewRenderer(w)
	if !isTTY || os.Getenv("NO_COLOR") != "" {
		lr.SetColorProfile(termenv.Ascii)
	}

	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		w:      w,
		errW:   errW,
		mode:   mode,
		isTTY:  isTTY,
		styles: NewStyles(lr),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves auto to text or markdown.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the output writer.
func (r *Renderer) Writer() io.Writer {
	return r.w
}

// Println writes a line.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.w, s)
}

// Printf writes formatted output.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

// Header writes a level 1 or 2 heading.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(strings.Repeat("#", level) + " " + text)
		r.Println("")
		return
	}
	style := r.styles.Header1
	if level > 1 {
		style = r.styles.Header2
	}
	r.Println(style.Render(text))
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(msg))
}

// Muted writes secondary information.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// Error writes an error message to the error writer.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errW, r.styles.Error.Render("Error: "+msg))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
