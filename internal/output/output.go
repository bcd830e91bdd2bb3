// Package output renders CLI results either as plain text or JSON.
// Grounded on internal/output/output.go's icon/status writer and
// internal/ui/ui.go's terminal detection, merged into one small surface
// sized for spec.md's query/status/ping responses rather than the
// teacher's indexing progress UI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/kestr-dev/kestr/internal/query"
)

// Writer renders CLI output, choosing color only when attached to a
// real terminal (respects NO_COLOR).
type Writer struct {
	out      io.Writer
	useColor bool
	asJSON   bool
}

// New creates a Writer. Color is auto-detected from out when it is an
// *os.File; pass asJSON=true to render machine-readable JSON instead.
func New(out io.Writer, asJSON bool) *Writer {
	return &Writer{out: out, useColor: isTerminal(out) && os.Getenv("NO_COLOR") == "", asJSON: asJSON}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Results prints query results, either as a JSON array or as numbered
// plain-text entries.
func (w *Writer) Results(results []query.Result) error {
	if w.asJSON {
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		w.Status("", "no results")
		return nil
	}
	for i, r := range results {
		label := fmt.Sprintf("[%s] lines %d-%d", r.Type, r.Lines[0], r.Lines[1])
		if w.useColor {
			label = "\033[36m" + label + "\033[0m"
		}
		fmt.Fprintf(w.out, "%d. %s\n%s\n\n", i+1, label, r.Content)
	}
	return nil
}

// Status prints a message, prefixed with icon when present.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	fmt.Fprintf(w.out, "%s\n", msg)
}

// Error prints an error message to the writer's stream.
func (w *Writer) Error(msg string) {
	icon := "error:"
	if w.useColor {
		icon = "\033[31merror:\033[0m"
	}
	w.Status(icon, msg)
}

// Value prints any JSON-encodable value in the writer's chosen format,
// used for ping/status replies.
func (w *Writer) Value(label string, v any) error {
	if w.asJSON {
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Fprintf(w.out, "%s: %v\n", label, v)
	return nil
}
