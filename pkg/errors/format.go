package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

const detailWidth = 70

// style is an ANSI SGR sequence.
type style string

const (
	styleRed    style = "31"
	styleYellow style = "33"
	styleBlue   style = "34"
	styleCyan   style = "36"
	styleGray   style = "90"
	styleAlert  style = "1;31"
	styleStrong style = "1;37"
)

var plain atomic.Bool

// DisableColors turns off ANSI styling in Format and PrintError.
func DisableColors() { plain.Store(true) }

// EnableColors turns ANSI styling back on.
func EnableColors() { plain.Store(false) }

func paint(s style, text string) string {
	if plain.Load() || text == "" {
		return text
	}
	return "\033[" + string(s) + "m" + text + "\033[0m"
}

// Format renders the error for a terminal: a header, the node, the source
// excerpt with a caret under the column, then cause, detail, hint and link.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	e.writeHeader(&b)
	e.writeNode(&b)
	e.writeSource(&b)

	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n\n", paint(styleYellow, "Cause: "), e.Wrapped)
	}
	if lines := wrapWords(e.Detail, detailWidth); len(lines) > 0 {
		for _, line := range lines {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint(styleCyan, "Hint: "), e.Suggestion)
	}
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s%s\n", paint(styleGray, "Learn more: "), paint(styleBlue, e.DocURL))
	}
	return b.String()
}

func (e *Error) writeHeader(b *strings.Builder) {
	title := "ERROR: "
	if e.Code != "" {
		title = "ERROR " + e.Code + ": "
	}
	fmt.Fprintf(b, "%s%s\n\n", paint(styleAlert, title), paint(styleStrong, e.Message))
}

func (e *Error) writeNode(b *strings.Builder) {
	if e.Class == "" && e.Key == "" {
		return
	}
	var parts []string
	if e.Class != "" {
		parts = append(parts, paint(styleGray, "class ")+e.Class)
	}
	if e.Key != "" {
		parts = append(parts, paint(styleGray, "key ")+e.Key)
	}
	b.WriteString("  " + strings.Join(parts, "  ") + "\n\n")
}

func (e *Error) writeSource(b *strings.Builder) {
	if e.Location == nil {
		return
	}
	b.WriteString("  " + paint(styleCyan, e.Location.String()) + "\n\n")
	if len(e.Context) == 0 {
		return
	}

	bar := paint(styleGray, " │ ")
	for i, text := range e.Context {
		n := e.ContextLine + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, bar, text)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", paint(styleRed, "→ "), n, bar, text)
		if e.Location.Column > 0 {
			fmt.Fprintf(b, "       %s%s%s\n", paint(styleGray, "│ "), strings.Repeat(" ", e.Location.Column-1), paint(styleRed, "^"))
		}
	}
	b.WriteString("\n")
}

// FormatCompact renders "file:line:col: CODE: message", omitting absent parts.
func (e *Error) FormatCompact() string {
	var parts []string
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	return strings.Join(append(parts, e.Message), ": ")
}

type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Class      string    `json:"class,omitempty"`
	Key        string    `json:"key,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	DocURL     string    `json:"docUrl,omitempty"`
	Cause      string    `json:"cause,omitempty"`
}

// FormatJSON renders the error as a single JSON object.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Class:      e.Class,
		Key:        e.Key,
		Location:   e.Location,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapWords splits text into lines no longer than width, except for single
// words that are longer.
func wrapWords(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// Fprint writes err to w, fully formatted when it is an *Error.
func Fprint(w io.Writer, err error) {
	if be, ok := err.(*Error); ok {
		fmt.Fprint(w, be.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint(styleAlert, "ERROR:"), err)
}

// PrintError writes err to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
