// Package stats emits the human-readable, driver-parsed statistics lines
// each stage prints to standard error/output on completion (spec §4.1, §4.2, §6).
package stats

import (
	"fmt"
	"io"
)

// Line writes one "Label: value" line in the literal format the upstream
// driver parses (spec §4.1 "Total documents: N" etc).
func Line(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s: %v\n", label, value)
}

// Lines writes an ordered sequence of label, value, label, value, ... pairs.
func Lines(w io.Writer, labelsAndValues ...any) {
	for i := 0; i+1 < len(labelsAndValues); i += 2 {
		Line(w, fmt.Sprint(labelsAndValues[i]), labelsAndValues[i+1])
	}
}
