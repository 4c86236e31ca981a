package errors

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryProtocol Category = "protocol"
	CategorySession  Category = "session"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Location is a position in a configuration or source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// MorphError is a coded error with an explanation and a fix hint.
type MorphError struct {
	// Code is a unique error identifier (e.g., "M101").
	Code string

	// Category is the error type (config, protocol, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position the error refers to.
	Location *Location

	// Context contains the lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct form.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *MorphError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *MorphError) Unwrap() error {
	return e.Wrapped
}

// Is matches another MorphError with the same code.
func (e *MorphError) Is(target error) bool {
	t, ok := target.(*MorphError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithLocation adds a file position and the surrounding lines.
func (e *MorphError) WithLocation(file string, line, column int) *MorphError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

var lineRe = regexp.MustCompile(`line (\d+)(?::(\d+))?`)

// WithLocationFromError takes the line from a parser error such as
// "yaml: line 3: mapping values are not allowed".
func (e *MorphError) WithLocationFromError(file string, err error) *MorphError {
	if err == nil {
		return e
	}
	m := lineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	line, _ := strconv.Atoi(m[1])
	col, _ := strconv.Atoi(m[2])
	if line > 0 {
		e.WithLocation(file, line, col)
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *MorphError) WithSuggestion(s string) *MorphError {
	e.Suggestion = s
	return e
}

// WithExample adds an example of the correct form.
func (e *MorphError) WithExample(ex string) *MorphError {
	e.Example = ex
	return e
}

// WithDetail replaces the explanation.
func (e *MorphError) WithDetail(d string) *MorphError {
	e.Detail = d
	return e
}

// WithDetailf replaces the explanation with a formatted one.
func (e *MorphError) WithDetailf(format string, args ...any) *MorphError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *MorphError) Wrap(err error) *MorphError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// New creates a MorphError from a registered error code.
func New(code string) *MorphError {
	template, ok := registry[code]
	if !ok {
		return &MorphError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &MorphError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a MorphError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *MorphError {
	return &MorphError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a MorphError with code. An err that already is
// a MorphError is returned as is.
func FromError(err error, code string) *MorphError {
	if err == nil {
		return nil
	}
	var me *MorphError
	if errors.As(err, &me) {
		return me
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first MorphError in err's chain.
func Code(err error) string {
	var me *MorphError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}
