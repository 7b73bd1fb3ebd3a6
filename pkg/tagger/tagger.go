// Package tagger streams a document corpus through a loaded matcher,
// emitting tagged documents and an aggregate report (spec §4.4 "Tagger").
package tagger

import (
	"github.com/scientist-labs/phrasekit/pkg/matcher"
)

// Document mirrors the corpus record format, required doc_id (spec §6).
type Document struct {
	Tokens []string `json:"tokens"`
	DocID  string   `json:"doc_id"`
}

// Tagged is one output record (spec §6 "Tagged-corpus format").
type Tagged struct {
	DocID  string         `json:"doc_id"`
	Tokens []string       `json:"tokens"`
	Spans  []matcher.Span `json:"spans"`
}

// Config carries the tagger's per-run settings (spec §6 "Tagger config").
type Config struct {
	Policy   matcher.Policy
	MaxSpans int
	Label    string
}

// Report is the aggregate summary printed on completion (spec §4.4).
type Report struct {
	Documents       int     `json:"documents"`
	TotalSpans      int     `json:"total_spans"`
	DocsWithSpans   int     `json:"docs_with_spans"`
	AvgSpansPerDoc  float64 `json:"avg_spans_per_doc"`
}

// Tagger drives one corpus through a matcher and accumulates Report totals.
type Tagger struct {
	m   *matcher.Matcher
	cfg Config
	rep Report
}

// New constructs a Tagger over an already-loaded matcher.
func New(m *matcher.Matcher, cfg Config) *Tagger {
	return &Tagger{m: m, cfg: cfg}
}

// Tag encodes and matches one document, returning its tagged record and
// updating the running report (spec §4.4 step (b)/(c)).
func (t *Tagger) Tag(doc Document) (Tagged, error) {
	ids, err := t.m.EncodeTokens(doc.Tokens)
	if err != nil {
		return Tagged{}, err
	}
	spans, err := t.m.Match(ids, t.cfg.Policy, t.cfg.MaxSpans, t.cfg.Label)
	if err != nil {
		return Tagged{}, err
	}

	t.rep.Documents++
	t.rep.TotalSpans += len(spans)
	if len(spans) > 0 {
		t.rep.DocsWithSpans++
	}

	return Tagged{DocID: doc.DocID, Tokens: doc.Tokens, Spans: spans}, nil
}

// Report returns the accumulated totals, computing the average spans per
// document over all documents seen so far (spec §4.4 "aggregates").
func (t *Tagger) Report() Report {
	r := t.rep
	if r.Documents > 0 {
		r.AvgSpansPerDoc = float64(r.TotalSpans) / float64(r.Documents)
	}
	return r
}
