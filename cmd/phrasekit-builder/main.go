// Command phrasekit-builder assembles a scored phrase list into a complete
// artifact set (automaton, payload table, manifest, vocabulary).
//
// Usage:
//
//	phrasekit-builder <scored.jsonl> <config.json> <output_dir>
//	phrasekit-builder <scored.jsonl> <profile_name> <profiles.yaml> <output_dir>
//
// The second form picks a named preset out of a build-profile file (see
// pkg/builder.LoadProfile) instead of reading a build config directly.
package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/scientist-labs/phrasekit/internal/jsonl"
	"github.com/scientist-labs/phrasekit/internal/stats"
	"github.com/scientist-labs/phrasekit/pkg/artifact"
	"github.com/scientist-labs/phrasekit/pkg/builder"
	"github.com/scientist-labs/phrasekit/pkg/salience"
)

func main() {
	var scoredPath, outputDir string
	var cfg builder.Config

	switch len(os.Args) {
	case 4:
		scoredPath, outputDir = os.Args[1], os.Args[3]
		var err error
		cfg, err = loadConfig(os.Args[2])
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	case 5:
		scoredPath, outputDir = os.Args[1], os.Args[4]
		profile, err := builder.LoadProfile(os.Args[3], os.Args[2])
		if err != nil {
			log.Fatalf("loading profile: %v", err)
		}
		cfg = profile.BuildConfig()
	default:
		log.Fatalf("usage: %s <scored.jsonl> <config.json> <output_dir>\n       %s <scored.jsonl> <profile_name> <profiles.yaml> <output_dir>", os.Args[0], os.Args[0])
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	f, err := os.Open(scoredPath)
	if err != nil {
		log.Fatalf("opening %s: %v", scoredPath, err)
	}
	var phrases []salience.Phrase
	err = jsonl.Each(f, func(p salience.Phrase) error {
		phrases = append(phrases, p)
		return nil
	})
	f.Close()
	if err != nil {
		log.Fatalf("reading %s: %v", scoredPath, err)
	}

	set, err := builder.Build(cfg, phrases, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.Fatalf("building artifacts: %v", err)
	}

	if err := artifact.Write(outputDir, *set); err != nil {
		log.Fatalf("writing artifacts: %v", err)
	}

	stats.Lines(os.Stderr, "Num patterns", set.Manifest.NumPatterns)
}

func loadConfig(path string) (builder.Config, error) {
	var cfg builder.Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
