package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scientist-labs/phrasekit/pkg/salience"
)

func TestLoadProfileExpandsNamedPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	doc := `
profiles:
  - name: strict-pmi
    version: "2026.07"
    tokenizer: whitespace
    method: pmi
    min_salience: 3.0
    min_domain_count: 10
    starting_phrase_id: 5000
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := LoadProfile(path, "strict-pmi")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	bc := p.BuildConfig()
	if bc.Version != "2026.07" || bc.Tokenizer != "whitespace" {
		t.Errorf("BuildConfig() = %+v", bc)
	}

	sc := p.ScoreConfig()
	want := salience.Config{
		Method:           salience.MethodPMI,
		MinSalience:      3.0,
		MinDomainCount:   10,
		AssignPhraseIDs:  true,
		StartingPhraseID: 5000,
	}
	if sc != want {
		t.Errorf("ScoreConfig() = %+v, want %+v", sc, want)
	}
}

func TestLoadProfileRejectsUnknownName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte("profiles: []\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadProfile(path, "missing"); err == nil {
		t.Fatal("expected error for unknown profile name")
	}
}
