// Package ngram implements the streaming n-gram miner: it reads a document
// stream and produces a frequency-filtered candidate-phrase table (spec §4.1).
package ngram

import (
	"fmt"

	"github.com/scientist-labs/phrasekit/internal/perrors"
	"github.com/scientist-labs/phrasekit/pkg/token"
)

// Document is one corpus record (spec §6 corpus format).
type Document struct {
	Tokens []string `json:"tokens"`
	DocID  string   `json:"doc_id,omitempty"`
}

// Config bounds the n-gram window and the emission floor (spec §6 mining config).
type Config struct {
	MinN     int `json:"min_n"`
	MaxN     int `json:"max_n"`
	MinCount int `json:"min_count"`
}

// Validate checks the config's range constraints (spec §7 config validation).
func (c Config) Validate() error {
	if c.MinN < 1 || c.MaxN < c.MinN {
		return fmt.Errorf("%w: min_n/max_n out of range (min_n=%d, max_n=%d)", perrors.ErrInvalidConfig, c.MinN, c.MaxN)
	}
	if c.MinCount < 0 {
		return fmt.Errorf("%w: min_count must be non-negative", perrors.ErrInvalidConfig)
	}
	return nil
}

// Candidate is one emitted n-gram record (spec §6 candidate phrase format).
type Candidate struct {
	Tokens []string `json:"tokens"`
	Count  uint32   `json:"count"`
}

// Stats tracks the miner's running totals for the stderr report (spec §4.1).
type Stats struct {
	TotalDocuments int
	TotalTokens    int
	UniqueNgrams   int
	AfterMinCount  int
}

// Miner accumulates n-gram counts across a document stream in memory: a
// single map keyed by the joined token sequence, holding one entry per
// distinct n-gram seen (min_count applies only at emission), counts widened to uint64
// internally and narrowed to uint32 only at emission (spec §9 "count
// saturation").
type Miner struct {
	cfg    Config
	counts map[string]*entry
	stats  Stats
}

type entry struct {
	tokens []string
	count  uint64
}

// New constructs a Miner for the given config. Callers must Validate cfg first.
func New(cfg Config) *Miner {
	return &Miner{
		cfg:    cfg,
		counts: make(map[string]*entry),
	}
}

// Add processes one document, extracting every n-gram of length
// [min_n, min(max_n, len(tokens)-i)] at each position (spec §4.1 algorithm).
// Documents with an empty or absent token array are skipped silently.
func (m *Miner) Add(doc Document) {
	toks := doc.Tokens
	if len(toks) == 0 {
		return
	}
	toks = token.NormalizeAll(append([]string(nil), toks...))

	m.stats.TotalDocuments++
	m.stats.TotalTokens += len(toks)

	for i := range toks {
		maxK := m.cfg.MaxN
		if rem := len(toks) - i; rem < maxK {
			maxK = rem
		}
		for k := m.cfg.MinN; k <= maxK; k++ {
			gram := toks[i : i+k]
			key := joinKey(gram)
			e, ok := m.counts[key]
			if !ok {
				e = &entry{tokens: append([]string(nil), gram...)}
				m.counts[key] = e
				m.stats.UniqueNgrams++
			}
			e.count++
		}
	}
}

// joinKey builds a map key for a token sequence by joining the tokens with a
// NUL byte. Normalization does not remove NUL, so the key is collision-free
// only for tokens that do not contain one.
func joinKey(gram []string) string {
	const sep = "\x00"
	out := gram[0]
	for _, t := range gram[1:] {
		out += sep + t
	}
	return out
}

// Results returns every n-gram with count >= min_count, narrowing counts to
// uint32 and failing hard on overflow (spec §4.1, §9).
func (m *Miner) Results() ([]Candidate, error) {
	out := make([]Candidate, 0, len(m.counts))
	for _, e := range m.counts {
		if e.count < uint64(m.cfg.MinCount) {
			continue
		}
		if e.count > 0xFFFFFFFF {
			return nil, fmt.Errorf("%w: ngram %v count %d exceeds uint32 range", perrors.ErrCountOverflow, e.tokens, e.count)
		}
		out = append(out, Candidate{Tokens: e.tokens, Count: uint32(e.count)})
	}
	m.stats.AfterMinCount = len(out)
	return out, nil
}

// Stats returns the current running totals for the stderr report.
func (m *Miner) Stats() Stats {
	return m.stats
}
