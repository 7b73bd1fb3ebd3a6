package matcher

import (
	"path/filepath"
	"testing"

	"github.com/scientist-labs/phrasekit/internal/perrors"
	"github.com/scientist-labs/phrasekit/pkg/artifact"
	"github.com/scientist-labs/phrasekit/pkg/builder"
	"github.com/scientist-labs/phrasekit/pkg/salience"
)

func buildTestArtifacts(t *testing.T, dir string, phrases []salience.Phrase) {
	t.Helper()
	set, err := builder.Build(builder.Config{Version: "v1", Tokenizer: "whitespace"}, phrases, "2026-07-30T00:00:00Z")
	if err != nil {
		t.Fatalf("builder.Build: %v", err)
	}
	if err := artifact.Write(dir, *set); err != nil {
		t.Fatalf("artifact.Write: %v", err)
	}
}

func TestMatchBeforeLoadFails(t *testing.T) {
	m := New()
	_, err := m.Match([]uint32{1, 2}, PolicyLeftmostLongest, 10, "PHRASE")
	if err != perrors.ErrNotLoaded {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

// TestLeftmostLongestResolution is scenario S3.
func TestLeftmostLongestResolution(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")
	buildTestArtifacts(t, dir, []salience.Phrase{
		{Tokens: []string{"machine", "learning"}, Salience: 1, DomainCount: 1, PhraseID: 100},
		{Tokens: []string{"machine", "learning", "algorithms"}, Salience: 1, DomainCount: 1, PhraseID: 300},
	})

	m := New()
	if err := m.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ids, err := m.EncodeTokens([]string{"machine", "learning", "algorithms"})
	if err != nil {
		t.Fatalf("EncodeTokens: %v", err)
	}
	spans, err := m.Match(ids, PolicyLeftmostLongest, 10, "PHRASE")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}
	if spans[0].Start != 0 || spans[0].End != 3 || spans[0].PhraseID != 300 {
		t.Errorf("got %+v, want start=0 end=3 phrase_id=300", spans[0])
	}
}

// TestLeftmostFirstTieBreakUsesPatternIndex exercises leftmost_first's tie
// rule against an artifact where phrase_id order diverges from pattern
// insertion order (legal per the external scored-phrase format, e.g. a
// hand-assembled scored.jsonl or assign_phrase_ids=false). Pattern 0 (the
// longer phrase) carries the larger phrase_id, so a tie-break that
// mistakenly keyed off phrase_id would pick pattern 1 instead.
func TestLeftmostFirstTieBreakUsesPatternIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")
	buildTestArtifacts(t, dir, []salience.Phrase{
		{Tokens: []string{"machine", "learning", "algorithms"}, Salience: 1, DomainCount: 1, PhraseID: 300},
		{Tokens: []string{"machine", "learning"}, Salience: 1, DomainCount: 1, PhraseID: 100},
	})

	m := New()
	if err := m.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ids, err := m.EncodeTokens([]string{"machine", "learning", "algorithms"})
	if err != nil {
		t.Fatalf("EncodeTokens: %v", err)
	}
	spans, err := m.Match(ids, PolicyLeftmostFirst, 10, "PHRASE")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}
	if spans[0].PhraseID != 300 {
		t.Errorf("expected the earliest-inserted pattern (phrase_id 300, pattern index 0), got phrase_id %d", spans[0].PhraseID)
	}
}

// TestSalienceMaxResolution is scenario S4.
func TestSalienceMaxResolution(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")
	buildTestArtifacts(t, dir, []salience.Phrase{
		{Tokens: []string{"big", "data"}, Salience: 2.5, DomainCount: 1, PhraseID: 100},
		{Tokens: []string{"big", "data", "systems"}, Salience: 5.0, DomainCount: 1, PhraseID: 200},
	})

	m := New()
	if err := m.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ids, err := m.EncodeTokens([]string{"big", "data", "systems"})
	if err != nil {
		t.Fatalf("EncodeTokens: %v", err)
	}
	spans, err := m.Match(ids, PolicySalienceMax, 10, "PHRASE")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}
	if spans[0].PhraseID != 200 {
		t.Errorf("expected the higher-salience phrase (200), got %d", spans[0].PhraseID)
	}
}

// TestUnknownTokenGap is scenario S5.
func TestUnknownTokenGap(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")
	buildTestArtifacts(t, dir, []salience.Phrase{
		{Tokens: []string{"machine", "learning"}, Salience: 1, DomainCount: 1, PhraseID: 100},
	})

	m := New()
	if err := m.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ids, err := m.EncodeTokens([]string{"machine", "unknown", "learning"})
	if err != nil {
		t.Fatalf("EncodeTokens: %v", err)
	}
	if ids[1] != 0 {
		t.Fatalf("expected unknown token to encode to 0, got %d", ids[1])
	}

	spans, err := m.Match(ids, PolicyLeftmostLongest, 10, "PHRASE")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(spans) != 0 {
		t.Errorf("expected no spans across the unknown-token gap, got %+v", spans)
	}
}

// TestLeftmostLongestNonOverlap is testable property 7.
func TestLeftmostLongestNonOverlap(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")
	buildTestArtifacts(t, dir, []salience.Phrase{
		{Tokens: []string{"a", "b"}, Salience: 1, DomainCount: 1, PhraseID: 100},
		{Tokens: []string{"b", "c"}, Salience: 1, DomainCount: 1, PhraseID: 101},
		{Tokens: []string{"c", "d"}, Salience: 1, DomainCount: 1, PhraseID: 102},
	})

	m := New()
	if err := m.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ids, _ := m.EncodeTokens([]string{"a", "b", "c", "d"})
	spans, err := m.Match(ids, PolicyLeftmostLongest, 10, "PHRASE")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	for i := 0; i+1 < len(spans); i++ {
		if spans[i].End > spans[i+1].Start {
			t.Errorf("spans overlap: %+v then %+v", spans[i], spans[i+1])
		}
	}
}

func TestHealthcheckRequiresLoad(t *testing.T) {
	m := New()
	if err := m.Healthcheck(); err != perrors.ErrNotLoaded {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestReloadSwapsArtifactSet(t *testing.T) {
	dir1 := filepath.Join(t.TempDir(), "build1")
	buildTestArtifacts(t, dir1, []salience.Phrase{
		{Tokens: []string{"a", "b"}, Salience: 1, DomainCount: 1, PhraseID: 100},
	})
	dir2 := filepath.Join(t.TempDir(), "build2")
	buildTestArtifacts(t, dir2, []salience.Phrase{
		{Tokens: []string{"c", "d"}, Salience: 1, DomainCount: 1, PhraseID: 200},
	})

	m := New()
	if err := m.Load(dir1); err != nil {
		t.Fatalf("Load dir1: %v", err)
	}
	ids, _ := m.EncodeTokens([]string{"a", "b"})
	spans, _ := m.Match(ids, PolicyLeftmostLongest, 10, "PHRASE")
	if len(spans) != 1 || spans[0].PhraseID != 100 {
		t.Fatalf("expected match against build1, got %+v", spans)
	}

	if err := m.Load(dir2); err != nil {
		t.Fatalf("Load dir2: %v", err)
	}
	ids2, _ := m.EncodeTokens([]string{"c", "d"})
	spans2, _ := m.Match(ids2, PolicyLeftmostLongest, 10, "PHRASE")
	if len(spans2) != 1 || spans2[0].PhraseID != 200 {
		t.Fatalf("expected match against build2 after reload, got %+v", spans2)
	}
}
