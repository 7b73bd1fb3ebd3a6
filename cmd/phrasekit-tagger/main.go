// Command phrasekit-tagger streams a corpus through a loaded matcher and
// writes tagged documents to the output file. The aggregate report is
// emitted twice on completion: as a JSON summary object on standard output
// (for piping into another tool) and as human stderr lines (for operators).
//
// Usage: phrasekit-tagger <input.jsonl>.. <config.json> <output.jsonl>
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/scientist-labs/phrasekit/internal/jsonl"
	"github.com/scientist-labs/phrasekit/internal/stats"
	"github.com/scientist-labs/phrasekit/pkg/matcher"
	"github.com/scientist-labs/phrasekit/pkg/tagger"
)

// fileConfig is the tagger config JSON shape (spec §6 "Tagger config").
type fileConfig struct {
	ArtifactDir string `json:"artifact_dir"`
	Policy      string `json:"policy"`
	MaxSpans    int    `json:"max_spans"`
	Label       string `json:"label"`
}

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
	if cfg.ArtifactDir == "" {
		log.Fatalf("invalid config: artifact_dir is required")
	}
	label := cfg.Label
	if label == "" {
		label = "PHRASE"
	}

	m := matcher.New()
	if err := m.Load(cfg.ArtifactDir); err != nil {
		log.Fatalf("loading artifacts: %v", err)
	}

	t := tagger.New(m, tagger.Config{
		Policy:   matcher.Policy(cfg.Policy),
		MaxSpans: cfg.MaxSpans,
		Label:    label,
	})

	out, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("creating %s: %v", outputPath, err)
	}
	w := jsonl.NewWriter(out)

	for _, path := range inputs {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("opening %s: %v", path, err)
		}
		err = jsonl.Each(f, func(doc tagger.Document) error {
			tagged, err := t.Tag(doc)
			if err != nil {
				return err
			}
			return w.Write(tagged)
		})
		f.Close()
		if err != nil {
			out.Close()
			log.Fatalf("tagging %s: %v", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		out.Close()
		log.Fatalf("flushing output: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("closing output: %v", err)
	}

	rep := t.Report()
	if err := json.NewEncoder(os.Stdout).Encode(rep); err != nil {
		log.Fatalf("writing report summary: %v", err)
	}
	stats.Lines(os.Stderr,
		"documents", rep.Documents,
		"total_spans", rep.TotalSpans,
		"docs_with_spans", rep.DocsWithSpans,
		"avg_spans_per_doc", rep.AvgSpansPerDoc,
	)
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
