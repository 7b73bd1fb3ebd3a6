// Package jsonl provides the line-delimited JSON reading and writing
// helpers shared by every stage's corpus, candidate-phrase, scored-phrase
// and tagged-corpus file formats (spec §6).
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/scientist-labs/phrasekit/internal/perrors"
)

// Each reads a stream of newline-delimited JSON objects and calls fn for
// every decoded value. A malformed line aborts the whole read per §7
// ("Malformed input line: fatal for the stage; no partial output").
func Each[T any](r io.Reader, fn func(T) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: line %d: %v", perrors.ErrMalformedInput, line, err)
		}
		if err := fn(v); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// Writer emits newline-delimited JSON records with a shared encoder.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter wraps w in a buffered JSON-lines writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// Write encodes v as one JSON line.
func (jw *Writer) Write(v any) error {
	return jw.enc.Encode(v)
}

// Flush flushes any buffered output.
func (jw *Writer) Flush() error {
	return jw.w.Flush()
}
