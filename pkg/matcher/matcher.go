// Package matcher loads an artifact set and drives the automaton over a
// token-ID stream, resolving overlaps under a configurable policy (spec §4.4).
package matcher

import (
	"encoding/binary"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/scientist-labs/phrasekit/internal/perrors"
	"github.com/scientist-labs/phrasekit/pkg/artifact"
	"github.com/scientist-labs/phrasekit/pkg/token"
)

// Policy selects the overlap-resolution rule (spec §4.4).
type Policy string

const (
	PolicyLeftmostLongest Policy = "leftmost_longest"
	PolicyLeftmostFirst   Policy = "leftmost_first"
	PolicySalienceMax     Policy = "salience_max"
	PolicyAll             Policy = "all" // tagger-only
)

// Span is one resolved match (spec §3 "Span", §4.4 "Result record").
type Span struct {
	Start    int     `json:"start"`
	End      int     `json:"end"`
	PhraseID uint32  `json:"phrase_id"`
	Salience float32 `json:"salience"`
	Count    uint32  `json:"count"`
	N        uint8   `json:"n"`
	Label    string  `json:"label,omitempty"`
}

// Stats is the matcher's observability snapshot (spec §4.4 "Observability").
type Stats struct {
	HitsTotal   uint64 `json:"hits_total"`
	LoadedAt    int64  `json:"loaded_at"`
	NumPatterns int    `json:"num_patterns"`
	HeapMB      string `json:"heap_mb"`
	Version     string `json:"version"`
	P50Micros   int64  `json:"p50_micros"`
	P95Micros   int64  `json:"p95_micros"`
	P99Micros   int64  `json:"p99_micros"`
}

// latencySampleRate samples roughly 1-in-256 match calls for the rolling
// latency window, avoiding per-call contention on the shared slice (spec
// §4.4 "sampled at sub-percent rate").
const latencySampleRate = 256

const latencyWindowSize = 1024

// Matcher is the thread-safe, hot-reloadable handle over a loaded artifact
// set (spec §9 "Global-state matcher -> explicit service object").
type Matcher struct {
	mu   sync.RWMutex
	set  *artifact.Set

	hitsTotal  atomic.Uint64
	matchCalls atomic.Uint64
	loadedAt   atomic.Int64

	latMu      sync.Mutex
	latencies  []int64
	latencyPos int
}

// New returns an unloaded Matcher. Call Load before Match.
func New() *Matcher {
	return &Matcher{}
}

// Load reads the artifact set from dir and swaps it into place. Readers
// that began a match before the swap complete under the old set; those
// that begin after complete under the new one (spec §4.4 "Loading").
func (m *Matcher) Load(dir string) error {
	set, err := artifact.Load(dir)
	if err != nil {
		slog.Error("artifact load failed", "dir", dir, "error", err)
		return err
	}
	m.mu.Lock()
	reloaded := m.set != nil
	m.set = set
	m.mu.Unlock()
	m.loadedAt.Store(time.Now().UnixMilli())
	slog.Info("artifact loaded", "dir", dir, "num_patterns", set.Automaton.NumPatterns(), "reload", reloaded)
	return nil
}

// Healthcheck reports success only if an artifact is loaded with a
// non-zero pattern count (spec §4.4).
func (m *Matcher) Healthcheck() error {
	m.mu.RLock()
	set := m.set
	m.mu.RUnlock()
	if set == nil {
		return perrors.ErrNotLoaded
	}
	if set.Automaton.NumPatterns() == 0 {
		return perrors.ErrArtifactMismatch
	}
	return nil
}

// EncodeTokens normalizes and looks up every token string, substituting
// UnknownID (0) for a miss (spec §4.4 "Encoding path").
func (m *Matcher) EncodeTokens(tokens []string) ([]uint32, error) {
	m.mu.RLock()
	set := m.set
	m.mu.RUnlock()
	if set == nil {
		return nil, perrors.ErrNotLoaded
	}
	ids := make([]uint32, len(tokens))
	for i, t := range tokens {
		if id, ok := set.Vocab.Tokens[token.Normalize(t)]; ok {
			ids[i] = id
		} else {
			ids[i] = token.UnknownID
		}
	}
	return ids, nil
}

// rawHit pairs one automaton hit with its token-unit span, payload and the
// automaton's own pattern index (equal to insertion order, spec §3
// "Payload record"). phrase_id is NOT a substitute for this: it only
// happens to track pattern index under this pipeline's default scorer
// (assign_phrase_ids=true feeding an unreordered builder read), but the
// external scored-phrase format does not guarantee that ordering.
type rawHit struct {
	start, end int
	pattern    int
	payload    artifact.PayloadRecord
}

// Match drives the automaton over ids and resolves overlaps under policy,
// returning at most max spans (spec §4.4 "Core match loop").
func (m *Matcher) Match(ids []uint32, policy Policy, max int, label string) ([]Span, error) {
	start := time.Now()
	m.mu.RLock()
	set := m.set
	m.mu.RUnlock()
	if set == nil {
		return nil, perrors.ErrNotLoaded
	}

	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], id)
	}

	hits := set.Automaton.IterOverlapping(buf)
	m.hitsTotal.Add(uint64(len(hits)))

	raw := make([]rawHit, 0, len(hits))
	for _, h := range hits {
		if h.Pattern < 0 || h.Pattern >= len(set.Payloads) {
			continue
		}
		// A byte match that does not start on a 4-byte token boundary is
		// not a token-level match.
		if h.Start%4 != 0 {
			continue
		}
		p := set.Payloads[h.Pattern]
		startTok := h.Start / 4
		endTok := h.End / 4
		raw = append(raw, rawHit{start: startTok, end: endTok, pattern: h.Pattern, payload: p})
	}

	var spans []Span
	switch policy {
	case PolicyAll:
		spans = resolveAll(raw, max)
	case PolicyLeftmostFirst:
		spans = resolveLeftmost(raw, max, true)
	case PolicySalienceMax:
		spans = resolveSalienceMax(raw, max)
	case PolicyLeftmostLongest, "":
		spans = resolveLeftmost(raw, max, false)
	default:
		return nil, perrors.ErrInvalidConfig
	}

	for i := range spans {
		spans[i].Label = label
	}

	m.recordLatency(time.Since(start))
	return spans, nil
}

func toSpan(h rawHit) Span {
	return Span{
		Start:    h.start,
		End:      h.end,
		PhraseID: h.payload.PhraseID,
		Salience: h.payload.Salience,
		Count:    h.payload.Count,
		N:        h.payload.N,
	}
}

// resolveAll emits every hit in original order, up to max (spec §4.4 "all").
func resolveAll(raw []rawHit, max int) []Span {
	out := make([]Span, 0, len(raw))
	for _, h := range raw {
		if max > 0 && len(out) >= max {
			break
		}
		out = append(out, toSpan(h))
	}
	return out
}

// resolveLeftmost implements leftmost_longest and leftmost_first: walk hits
// left to right by start, and on a start tie either prefer the longest
// (leftmost_longest) or the smallest pattern index, i.e. the earliest-
// inserted phrase (leftmost_first); once a hit is chosen the cursor
// advances past its end (spec §4.4).
func resolveLeftmost(raw []rawHit, max int, firstOnTie bool) []Span {
	sorted := append([]rawHit(nil), raw...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		if firstOnTie {
			return sorted[i].pattern < sorted[j].pattern
		}
		return sorted[i].end > sorted[j].end
	})

	var out []Span
	cursor := 0
	for _, h := range sorted {
		if max > 0 && len(out) >= max {
			break
		}
		if h.start < cursor {
			continue
		}
		out = append(out, toSpan(h))
		cursor = h.end
	}
	return out
}

// resolveSalienceMax partitions hits into connected overlap clusters and
// greedily selects the highest-salience hit from each, removing it and
// repeating on the remainder of the cluster (spec §4.4, §9 "cluster problem").
func resolveSalienceMax(raw []rawHit, max int) []Span {
	sorted := append([]rawHit(nil), raw...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].start < sorted[j].start
	})

	var out []Span
	i := 0
	for i < len(sorted) {
		if max > 0 && len(out) >= max {
			break
		}
		j := i + 1
		clusterEnd := sorted[i].end
		for j < len(sorted) && sorted[j].start < clusterEnd {
			if sorted[j].end > clusterEnd {
				clusterEnd = sorted[j].end
			}
			j++
		}
		cluster := sorted[i:j]

		remaining := append([]rawHit(nil), cluster...)
		for len(remaining) > 0 {
			if max > 0 && len(out) >= max {
				break
			}
			best := 0
			for k := 1; k < len(remaining); k++ {
				if betterForSalienceMax(remaining[k], remaining[best]) {
					best = k
				}
			}
			chosen := remaining[best]
			out = append(out, toSpan(chosen))

			next := remaining[:0]
			for _, h := range remaining {
				if h.start >= chosen.end || h.end <= chosen.start {
					next = append(next, h)
				}
			}
			remaining = next
		}
		i = j
	}
	return out
}

// betterForSalienceMax reports whether a outranks b: greater salience,
// ties broken by longer span, then by smaller pattern index (spec §4.4).
func betterForSalienceMax(a, b rawHit) bool {
	if a.payload.Salience != b.payload.Salience {
		return a.payload.Salience > b.payload.Salience
	}
	aLen, bLen := a.end-a.start, b.end-b.start
	if aLen != bLen {
		return aLen > bLen
	}
	return a.pattern < b.pattern
}

// recordLatency samples roughly 1-in-latencySampleRate match calls into a
// fixed-size rolling window for the p50/p95/p99 estimates.
func (m *Matcher) recordLatency(d time.Duration) {
	n := m.matchCalls.Add(1)
	if n%latencySampleRate != 0 {
		return
	}
	m.latMu.Lock()
	defer m.latMu.Unlock()
	if m.latencies == nil {
		m.latencies = make([]int64, 0, latencyWindowSize)
	}
	micros := d.Microseconds()
	if len(m.latencies) < latencyWindowSize {
		m.latencies = append(m.latencies, micros)
	} else {
		m.latencies[m.latencyPos] = micros
		m.latencyPos = (m.latencyPos + 1) % latencyWindowSize
	}
}

// Stats returns the observability snapshot (spec §4.4 "Observability").
func (m *Matcher) Stats() Stats {
	m.mu.RLock()
	set := m.set
	m.mu.RUnlock()

	st := Stats{
		HitsTotal: m.hitsTotal.Load(),
		LoadedAt:  m.loadedAt.Load(),
	}
	if set != nil {
		st.NumPatterns = set.Automaton.NumPatterns()
		st.Version = set.Manifest.Version
		// Approximate: payload table is exact, automaton resident size is
		// estimated at 32 bytes/pattern (double-array node overhead).
		heapBytes := uint64(len(set.Payloads))*17 + uint64(set.Automaton.NumPatterns())*32
		st.HeapMB = humanize.Bytes(heapBytes)
	}

	m.latMu.Lock()
	sorted := append([]int64(nil), m.latencies...)
	m.latMu.Unlock()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	st.P50Micros = percentile(sorted, 0.50)
	st.P95Micros = percentile(sorted, 0.95)
	st.P99Micros = percentile(sorted, 0.99)
	return st
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
