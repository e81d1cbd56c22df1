package errstore

import (
	"fmt"
	"io"
	"strings"
)

// RenderOptions controls Render.
type RenderOptions struct {
	// DevMode prints the original error under each message.
	DevMode bool
}

// Render writes one banner line per entry. Nothing is written for an empty
// slice.
func Render(w io.Writer, entries []Entry, opts RenderOptions) error {
	if len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)
		if e.Context != "" {
			fmt.Fprintf(&b, " (%s)", e.Context)
		}
		b.WriteByte('\n')
		if opts.DevMode && e.Err != nil && e.Err.Error() != e.Message {
			fmt.Fprintf(&b, "    caused by: %v\n", e.Err)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
