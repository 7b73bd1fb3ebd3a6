// Command phrasekit-miner streams one or more corpus files through the
// n-gram miner and writes the frequency-filtered candidate table.
//
// Usage: phrasekit-miner <input.jsonl>.. <config.json> <output.jsonl>
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/scientist-labs/phrasekit/internal/jsonl"
	"github.com/scientist-labs/phrasekit/internal/stats"
	"github.com/scientist-labs/phrasekit/pkg/ngram"
)

func main() {
	if len(os.Args) < 4 {
		log.Fatalf("usage: %s <input.jsonl>.. <config.json> <output.jsonl>", os.Args[0])
	}
	inputs := os.Args[1 : len(os.Args)-2]
	configPath := os.Args[len(os.Args)-2]
	outputPath := os.Args[len(os.Args)-1]

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	m := ngram.New(cfg)
	for _, path := range inputs {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("opening %s: %v", path, err)
		}
		err = jsonl.Each(f, func(doc ngram.Document) error {
			m.Add(doc)
			return nil
		})
		f.Close()
		if err != nil {
			log.Fatalf("reading %s: %v", path, err)
		}
	}

	candidates, err := m.Results()
	if err != nil {
		log.Fatalf("computing results: %v", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("creating %s: %v", outputPath, err)
	}
	w := jsonl.NewWriter(out)
	for _, c := range candidates {
		if err := w.Write(c); err != nil {
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

	st := m.Stats()
	stats.Lines(os.Stderr,
		"Total documents", st.TotalDocuments,
		"Total tokens", st.TotalTokens,
		"Unique n-grams", st.UniqueNgrams,
		fmt.Sprintf("After min_count=%d", cfg.MinCount), st.AfterMinCount,
	)
}

func loadConfig(path string) (ngram.Config, error) {
	var cfg ngram.Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
