// Command phrasekit-scorer reads a domain and a background frequency table
// and writes the scored, filtered, phrase-ID-assigned phrase list.
//
// Usage:
//
//	phrasekit-scorer <domain.jsonl> <background.jsonl> <config.json> <output.jsonl>
//	phrasekit-scorer <domain.jsonl> <background.jsonl> <profile_name> <profiles.yaml> <output.jsonl>
//
// The second form picks a named preset out of a build-profile file (see
// pkg/builder.LoadProfile) instead of reading a scoring config directly.
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/scientist-labs/phrasekit/internal/jsonl"
	"github.com/scientist-labs/phrasekit/internal/stats"
	"github.com/scientist-labs/phrasekit/pkg/builder"
	"github.com/scientist-labs/phrasekit/pkg/salience"
)

func main() {
	var domainPath, backgroundPath, outputPath string
	var cfg salience.Config

	switch len(os.Args) {
	case 5:
		domainPath, backgroundPath, outputPath = os.Args[1], os.Args[2], os.Args[4]
		var err error
		cfg, err = loadConfig(os.Args[3])
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	case 6:
		domainPath, backgroundPath, outputPath = os.Args[1], os.Args[2], os.Args[5]
		profile, err := builder.LoadProfile(os.Args[4], os.Args[3])
		if err != nil {
			log.Fatalf("loading profile: %v", err)
		}
		cfg = profile.ScoreConfig()
	default:
		log.Fatalf("usage: %s <domain.jsonl> <background.jsonl> <config.json> <output.jsonl>\n       %s <domain.jsonl> <background.jsonl> <profile_name> <profiles.yaml> <output.jsonl>", os.Args[0], os.Args[0])
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	domain, err := readRecords(domainPath)
	if err != nil {
		log.Fatalf("reading %s: %v", domainPath, err)
	}
	background, err := readRecords(backgroundPath)
	if err != nil {
		log.Fatalf("reading %s: %v", backgroundPath, err)
	}

	phrases, st, err := salience.Score(cfg, domain, background)
	if err != nil {
		log.Fatalf("scoring: %v", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("creating %s: %v", outputPath, err)
	}
	w := jsonl.NewWriter(out)
	for _, p := range phrases {
		if err := w.Write(p); err != nil {
			out.Close()
			log.Fatalf("writing output: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		out.Close()
		log.Fatalf("flushing output: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("closing output: %v", err)
	}

	stats.Lines(os.Stderr,
		"Domain phrases", st.DomainPhrases,
		"Background phrases", st.BackgroundPhrases,
		"After domain filter", st.AfterDomainFilter,
		"After salience filter", st.AfterSalienceFilter,
	)
}

func loadConfig(path string) (salience.Config, error) {
	var cfg salience.Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readRecords(path string) ([]salience.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []salience.Record
	err = jsonl.Each(f, func(r salience.Record) error {
		records = append(records, r)
		return nil
	})
	return records, err
}
