package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mcoot/leaderboard/internal/api/response"
	"github.com/mcoot/leaderboard/internal/session"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// IsJSON reports whether machine-readable output was requested
func (o *Output) IsJSON() bool {
	return o.format == "json"
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.IsJSON() {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.IsJSON() {
		body := map[string]any{"message": err.Error()}
		var classified *session.ClassifiedError
		if errors.As(err, &classified) {
			body["context"] = classified.Context
			body["kind"] = classified.Kind
			body["message"] = classified.Message
		}
		var invalid *FormError
		if errors.As(err, &invalid) {
			body["warnings"] = invalid.Warnings
		}
		data, _ := json.Marshal(map[string]any{"error": body})
		fmt.Fprintln(o.errOut, string(data))
	} else {
		fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.IsJSON() {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.out, string(data))
	} else {
		fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Record:
		o.printRecord(v)
	case WhoamiResult:
		o.printWhoami(v)
	case ScoreResult:
		o.printScore(v)
	case LinkResult:
		o.printLink(v)
	case response.Health:
		fmt.Fprintf(o.out, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// WhoamiResult describes the cached session
type WhoamiResult struct {
	Active bool             `json:"active"`
	Player *response.Record `json:"player,omitempty"`
}

// ScoreResult is the outcome of a score submission
type ScoreResult struct {
	Accepted bool  `json:"accepted"`
	Score    int64 `json:"score"`
}

// LinkResult is a legal document link requested through a hook
type LinkResult struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// FormError carries the validation warnings that stopped a form submission
type FormError struct {
	Warnings map[string][]string `json:"warnings"`

	fields []string
}

func (e *FormError) Error() string {
	return errInvalidForm.Error()
}

func (e *FormError) Unwrap() error {
	return errInvalidForm
}

func (o *Output) printRecord(r response.Record) {
	fmt.Fprintf(o.out, "Player: %s (%s)\n", r.Nickname, r.ID)
	fmt.Fprintf(o.out, "Name: %s\n", r.Name)
	fmt.Fprintf(o.out, "Email: %s\n", r.Email)
	fmt.Fprintf(o.out, "Score: %d\n", r.Score)
}

func (o *Output) printWhoami(w WhoamiResult) {
	if !w.Active || w.Player == nil {
		fmt.Fprintln(o.out, "No active session")
		return
	}
	o.printRecord(*w.Player)
}

func (o *Output) printScore(s ScoreResult) {
	if s.Accepted {
		fmt.Fprintf(o.out, "New best score: %d\n", s.Score)
		return
	}
	fmt.Fprintf(o.out, "Score not improved, best is still %d\n", s.Score)
}

func (o *Output) printLink(l LinkResult) {
	if l.URL == "" {
		fmt.Fprintf(o.out, "No %s link configured\n", l.Kind)
		return
	}
	fmt.Fprintln(o.out, l.URL)
}

// printWarnings lists form warnings one per line, in field order
func (o *Output) printWarnings(e *FormError) {
	for _, field := range e.fields {
		for _, msg := range e.Warnings[field] {
			fmt.Fprintf(o.errOut, "%s: %s\n", field, msg)
		}
	}
}
