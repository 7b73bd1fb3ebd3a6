// Package automaton wraps the double-array Aho-Corasick library used to
// drive the matcher's core match loop, and defines this system's own
// on-disk serialization for it (spec §4.3 step 3, §4.4, §9 "automaton.daac").
package automaton

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	aho_corasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/scientist-labs/phrasekit/internal/perrors"
)

// daacMagic and daacVersion identify the on-disk format header. The library
// exposes no native serialization of its own, so this format stores the
// ordered pattern byte-strings and rebuilds the automaton with identical
// Opts on load — deterministic because insertion order fixes pattern index.
const (
	daacMagic   = "PKDAAC01"
	daacVersion = 1
)

// Hit is one raw occurrence reported by the automaton (spec §4.4 "raw hits").
type Hit struct {
	Pattern int // pattern index, equal to insertion order
	Start   int // byte offset, inclusive
	End     int // byte offset, exclusive
}

// Automaton is the built multi-pattern matcher over token-ID byte patterns.
type Automaton struct {
	ac       aho_corasick.AhoCorasick
	patterns [][]byte
}

// Build constructs an automaton from patterns in insertion order. Duplicate
// patterns are a fatal error (spec §4.3 step 3).
func Build(patterns [][]byte) (*Automaton, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w", perrors.ErrEmptyPhraseList)
	}

	seen := make(map[string]struct{}, len(patterns))
	pats := make([]string, len(patterns))
	for i, p := range patterns {
		s := string(p)
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("%w: pattern at index %d", perrors.ErrDuplicatePattern, i)
		}
		seen[s] = struct{}{}
		pats[i] = s
	}

	b := aho_corasick.NewAhoCorasickBuilder(aho_corasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            aho_corasick.StandardMatch,
		DFA:                  false,
	})
	ac := b.Build(pats)

	stored := make([][]byte, len(patterns))
	for i, p := range patterns {
		stored[i] = append([]byte(nil), p...)
	}

	return &Automaton{ac: ac, patterns: stored}, nil
}

// NumPatterns returns the number of patterns the automaton was built with.
func (a *Automaton) NumPatterns() int {
	return len(a.patterns)
}

// IterOverlapping collects every overlapping hit over the byte-encoded token
// sequence and returns them in the order the automaton reports them
// (spec §4.4 core match loop).
func (a *Automaton) IterOverlapping(data []byte) []Hit {
	iter := a.ac.IterOverlapping(string(data))
	var hits []Hit
	for {
		m := iter.Next()
		if m == nil {
			break
		}
		hits = append(hits, Hit{Pattern: m.Pattern(), Start: m.Start(), End: m.End()})
	}
	return hits
}

// onDiskHeader precedes the gob-encoded pattern list in automaton.daac.
type onDiskHeader struct {
	Magic       [8]byte
	Version     uint32
	NumPatterns uint32
}

// WriteTo serializes the automaton to w as the header followed by a gob
// encoding of the ordered pattern byte-strings.
func (a *Automaton) WriteTo(w interface{ Write([]byte) (int, error) }) error {
	hdr := onDiskHeader{Version: daacVersion, NumPatterns: uint32(len(a.patterns))}
	copy(hdr.Magic[:], daacMagic)
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("writing automaton header: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a.patterns); err != nil {
		return fmt.Errorf("encoding automaton patterns: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing automaton body: %w", err)
	}
	return nil
}

// ReadFrom reconstructs an automaton from bytes previously produced by
// WriteTo, verifying the header and rebuilding the automaton from the
// stored pattern order. Corrupt input is a load-time fatal error (spec §7).
func ReadFrom(data []byte) (*Automaton, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("%w: automaton file too short", perrors.ErrArtifactMismatch)
	}
	var hdr onDiskHeader
	if err := binary.Read(bytes.NewReader(data[:16]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading automaton header: %v", perrors.ErrArtifactMismatch, err)
	}
	if string(hdr.Magic[:]) != daacMagic {
		return nil, fmt.Errorf("%w: bad automaton magic", perrors.ErrArtifactMismatch)
	}
	if hdr.Version != daacVersion {
		return nil, fmt.Errorf("%w: unsupported automaton version %d", perrors.ErrArtifactMismatch, hdr.Version)
	}

	var patterns [][]byte
	if err := gob.NewDecoder(bytes.NewReader(data[16:])).Decode(&patterns); err != nil {
		return nil, fmt.Errorf("%w: decoding automaton patterns: %v", perrors.ErrArtifactMismatch, err)
	}
	if uint32(len(patterns)) != hdr.NumPatterns {
		return nil, fmt.Errorf("%w: pattern count %d does not match header %d", perrors.ErrArtifactMismatch, len(patterns), hdr.NumPatterns)
	}

	return Build(patterns)
}
