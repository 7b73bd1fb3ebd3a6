// Package token handles the case normalization and vocabulary bookkeeping
// shared by every stage (spec §3 "Token", "Vocabulary").
package token

import (
	"sort"
	"strings"
)

// Reserved token IDs (spec §3).
const (
	// UnknownID is the sentinel ID for tokens absent from the vocabulary.
	UnknownID uint32 = 0
	// DefaultSeparatorID is the default inter-phrase separator used by the
	// automaton; it must never collide with a real token ID.
	DefaultSeparatorID uint32 = 4294967294
	// UnknownToken is the literal special-token string for UnknownID.
	UnknownToken = "<UNK>"
)

// Normalize lowercases a token string. Case normalization is applied on
// ingress at every stage so upstream tokenization variance does not
// fragment counts (spec §3).
func Normalize(s string) string {
	return strings.ToLower(s)
}

// NormalizeAll normalizes a slice of tokens in place and returns it.
func NormalizeAll(tokens []string) []string {
	for i, t := range tokens {
		tokens[i] = Normalize(t)
	}
	return tokens
}

// Vocabulary maps normalized token strings to dense uint32 IDs assigned in
// alphabetical order starting at 1, with 0 reserved for <UNK> and
// SeparatorID reserved for the automaton's inter-phrase separator.
type Vocabulary struct {
	ids         map[string]uint32
	byID        []string // byID[0] unused, byID[i] is the token for ID i
	SeparatorID uint32
}

// Build constructs a Vocabulary from the set of distinct tokens appearing
// across a phrase list, sorted alphabetically before ID assignment for
// deterministic builds (spec §3, §4.3 step 1).
func Build(tokens map[string]struct{}, separatorID uint32) *Vocabulary {
	sorted := make([]string, 0, len(tokens))
	for t := range tokens {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	v := &Vocabulary{
		ids:         make(map[string]uint32, len(sorted)),
		byID:        make([]string, len(sorted)+1),
		SeparatorID: separatorID,
	}
	for i, t := range sorted {
		id := uint32(i + 1)
		v.ids[t] = id
		v.byID[id] = t
	}
	return v
}

// ID looks up a token's ID, returning (UnknownID, false) for a miss.
func (v *Vocabulary) ID(tok string) (uint32, bool) {
	id, ok := v.ids[Normalize(tok)]
	if !ok {
		return UnknownID, false
	}
	return id, true
}

// Token returns the token string for an ID, or "" if out of range.
func (v *Vocabulary) Token(id uint32) (string, bool) {
	if id == 0 || int(id) >= len(v.byID) {
		return "", false
	}
	return v.byID[id], true
}

// Size returns the number of real (non-reserved) tokens in the vocabulary.
func (v *Vocabulary) Size() int {
	return len(v.ids)
}

// Encode maps a slice of token strings to IDs, substituting UnknownID for
// any miss (spec §4.4 "encode_tokens").
func (v *Vocabulary) Encode(tokens []string) []uint32 {
	ids := make([]uint32, len(tokens))
	for i, t := range tokens {
		id, _ := v.ID(t)
		ids[i] = id
	}
	return ids
}

// Tokens returns the sorted set of real tokens, in ID order.
func (v *Vocabulary) Tokens() []string {
	if len(v.byID) == 0 {
		return nil
	}
	out := make([]string, 0, len(v.byID)-1)
	out = append(out, v.byID[1:]...)
	return out
}

// IDMap returns a copy of the token -> ID mapping, for JSON serialization.
func (v *Vocabulary) IDMap() map[string]uint32 {
	out := make(map[string]uint32, len(v.ids))
	for t, id := range v.ids {
		out[t] = id
	}
	return out
}

// FromIDMap reconstructs a Vocabulary from a previously serialized
// token -> ID mapping (used when loading vocab.json).
func FromIDMap(m map[string]uint32, separatorID uint32) *Vocabulary {
	maxID := uint32(0)
	for _, id := range m {
		if id > maxID {
			maxID = id
		}
	}
	v := &Vocabulary{
		ids:         make(map[string]uint32, len(m)),
		byID:        make([]string, maxID+1),
		SeparatorID: separatorID,
	}
	for t, id := range m {
		v.ids[t] = id
		v.byID[id] = t
	}
	return v
}
