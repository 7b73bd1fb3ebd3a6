package builder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scientist-labs/phrasekit/internal/perrors"
	"github.com/scientist-labs/phrasekit/pkg/salience"
)

// Profile is a human-edited convenience preset that expands into the
// canonical JSON Config/salience.Config structs. It is purely additive: the
// JSON configs remain the machine-driven contract this system is built
// around (SPEC_FULL "Build profile file").
type Profile struct {
	Name             string          `yaml:"name"`
	Version          string          `yaml:"version"`
	Tokenizer        string          `yaml:"tokenizer"`
	Method           salience.Method `yaml:"method"`
	MinSalience      float64         `yaml:"min_salience"`
	MinDomainCount   uint32          `yaml:"min_domain_count"`
	StartingPhraseID uint32          `yaml:"starting_phrase_id"`
}

// LoadProfile reads a named preset out of a profiles.yaml document, keyed
// by Profile.Name.
func LoadProfile(path, name string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile file: %w", err)
	}

	var doc struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Profile{}, fmt.Errorf("%w: parsing profile file: %v", perrors.ErrInvalidConfig, err)
	}

	for _, p := range doc.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: no profile named %q", perrors.ErrInvalidConfig, name)
}

// BuildConfig expands the profile into the canonical builder Config.
func (p Profile) BuildConfig() Config {
	return Config{Version: p.Version, Tokenizer: p.Tokenizer}
}

// ScoreConfig expands the profile into the canonical salience.Config, with
// phrase-ID assignment always enabled since a profile implies a full build.
func (p Profile) ScoreConfig() salience.Config {
	return salience.Config{
		Method:           p.Method,
		MinSalience:      p.MinSalience,
		MinDomainCount:   p.MinDomainCount,
		AssignPhraseIDs:  true,
		StartingPhraseID: p.StartingPhraseID,
	}
}
