package tagger

import (
	"path/filepath"
	"testing"

	"github.com/scientist-labs/phrasekit/pkg/artifact"
	"github.com/scientist-labs/phrasekit/pkg/builder"
	"github.com/scientist-labs/phrasekit/pkg/matcher"
	"github.com/scientist-labs/phrasekit/pkg/salience"
)

// TestTaggerEndToEnd is scenario S6: three documents, one with the phrase,
// one without, one with it twice.
func TestTaggerEndToEnd(t *testing.T) {
	set, err := builder.Build(builder.Config{Version: "v1", Tokenizer: "whitespace"}, []salience.Phrase{
		{Tokens: []string{"machine", "learning"}, Salience: 1, DomainCount: 1, PhraseID: 100},
	}, "2026-07-30T00:00:00Z")
	if err != nil {
		t.Fatalf("builder.Build: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "build")
	if err := artifact.Write(dir, *set); err != nil {
		t.Fatalf("artifact.Write: %v", err)
	}

	m := matcher.New()
	if err := m.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tg := New(m, Config{Policy: matcher.PolicyLeftmostLongest, MaxSpans: 10, Label: "PHRASE"})

	docs := []Document{
		{DocID: "doc1", Tokens: []string{"machine", "learning", "is", "great"}},
		{DocID: "doc2", Tokens: []string{"no", "match", "here"}},
		{DocID: "doc3", Tokens: []string{"machine", "learning", "and", "machine", "learning"}},
	}
	for _, d := range docs {
		if _, err := tg.Tag(d); err != nil {
			t.Fatalf("Tag(%s): %v", d.DocID, err)
		}
	}

	rep := tg.Report()
	if rep.Documents != 3 {
		t.Errorf("Documents = %d, want 3", rep.Documents)
	}
	if rep.DocsWithSpans != 2 {
		t.Errorf("DocsWithSpans = %d, want 2", rep.DocsWithSpans)
	}
	if rep.TotalSpans != 3 {
		t.Errorf("TotalSpans = %d, want 3", rep.TotalSpans)
	}
	if rep.AvgSpansPerDoc != 1.0 {
		t.Errorf("AvgSpansPerDoc = %f, want 1.0", rep.AvgSpansPerDoc)
	}
}
