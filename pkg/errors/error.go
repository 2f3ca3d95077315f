package errors

import (
	"fmt"
	"os"
	"strings"
)

// Category groups error codes by the stage that reports them.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryMount      Category = "mount"
	CategoryHandle     Category = "handle"
	CategoryHost       Category = "host"
	CategoryProtocol   Category = "protocol"
	CategoryDocument   Category = "document"
	CategoryConfig     Category = "config"
)

// contextRadius is how many lines above and below a location are kept.
const contextRadius = 2

// Location is a position inside a source document.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

func (l *Location) String() string {
	switch {
	case l == nil:
		return ""
	case l.Column > 0:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	default:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
}

// Error is a coded failure. Node-related errors carry the class and key of
// the node; document errors carry a location and the surrounding lines.
type Error struct {
	Code     string
	Category Category
	Message  string
	Detail   string

	// Class and Key identify the node and property or child involved.
	Class string
	Key   string

	Location *Location

	// Context holds source lines around Location, the first of which is
	// line ContextLine.
	Context     []string
	ContextLine int

	Suggestion string
	DocURL     string
	Wrapped    error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}

	var node []string
	if e.Class != "" {
		node = append(node, fmt.Sprintf("class %q", e.Class))
	}
	if e.Key != "" {
		node = append(node, fmt.Sprintf("key %q", e.Key))
	}
	if len(node) > 0 {
		msg += " (" + strings.Join(node, ", ") + ")"
	}

	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is matches any *Error carrying the same non-empty code, so the sentinel
// values in this package work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithLocation sets the location and, if file can be read, the lines
// around it.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	if data, err := os.ReadFile(file); err == nil {
		first, lines := excerpt(strings.Split(string(data), "\n"), line)
		e.WithContext(first, lines)
	}
	return e
}

// WithContext sets the source lines shown around the location. first is
// the line number of lines[0].
func (e *Error) WithContext(first int, lines []string) *Error {
	e.ContextLine = first
	e.Context = lines
	return e
}

func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

func (e *Error) WithClass(class string) *Error {
	e.Class = class
	return e
}

func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// Wrap records err as the cause.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// excerpt returns the 1-based line number of the first kept line and the
// lines within contextRadius of line.
func excerpt(lines []string, line int) (int, []string) {
	first := max(line-contextRadius, 1)
	last := min(line+contextRadius, len(lines))
	if first > last {
		return 0, nil
	}
	return first, lines[first-1 : last]
}

// New returns an Error populated from the registered template for code.
// Unregistered codes still produce an Error carrying the code.
func New(code string) *Error {
	t, ok := registry[code]
	if !ok {
		return &Error{Code: code, Message: "Unknown error"}
	}
	return &Error{
		Code:     code,
		Category: t.Category,
		Message:  t.Message,
		Detail:   t.Detail,
		DocURL:   t.DocURL,
	}
}

// Newf returns an uncoded Error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// FromError wraps err under code unless it already is an *Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if be, ok := err.(*Error); ok {
		return be
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the outermost coded *Error in err's chain, or "".
func CodeOf(err error) string {
	for err != nil {
		if be, ok := err.(*Error); ok && be.Code != "" {
			return be.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ""
}
