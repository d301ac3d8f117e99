package ui

import (
	"encoding/json"
	"io"
)

// Severity is the visual weight of a piece of inline text.
type Severity uint8

const (
	SeverityInfo     Severity = iota // plain
	SeveritySuccess                  // green, confirmed on chain
	SeverityWarn                     // yellow, needs attention
	SeverityError                    // red, failed
	SeverityCritical                 // bold, money is about to move
)

// StyledText pairs a plain string with a Severity. It marshals to JSON as
// the plain string.
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

func Styled(text string, severity Severity) StyledText {
	return StyledText{Text: text, Severity: severity}
}

// UI is every interaction ecodine has with the person at the terminal.
// TerminalUI is used by the CLI, RecordingUI by tests. Implementations must
// be safe for use from the wallet event goroutine.
type UI interface {
	// Style colours t for embedding in a larger line.
	Style(t StyledText) string

	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	// Error reports a failure. It doesn't exit.
	Error(format string, args ...any)
	// Critical is for data the user must review before a payment is sent.
	Critical(format string, args ...any)

	Section(title string)
	KeyValue(rows [][2]string)
	Table(headers []string, rows [][]string)
	// TableWithGroups separates each group of rows with a divider, e.g. one
	// group per restaurant.
	TableWithGroups(headers []string, groups [][][]string)

	// Spinner shows msg while waiting for a confirmation and returns the
	// function that stops it.
	Spinner(msg string) func()

	// Interpret echoes how the last input was understood, e.g. a price in
	// base units.
	Interpret(value string)

	// Ask reads a line until validate accepts it. nil accepts anything.
	Ask(validate func(string) error) string
	// Password reads a line without echo.
	Password(prompt string) string
	Confirm(prompt string, defaultYes bool) bool
	// Choose returns the 0-based index of the picked option.
	Choose(prompt string, options []string) int

	// Indent returns a child UI one level deeper that shares output and input.
	Indent() UI
	Writer() io.Writer
}
