// Package salience implements the scorer: it combines a domain and a
// background frequency table into a per-phrase salience score, filters, and
// assigns dense phrase IDs (spec §4.2).
package salience

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/scientist-labs/phrasekit/internal/perrors"
)

// Method selects the scoring formula (spec §4.2).
type Method string

const (
	MethodRatio  Method = "ratio"
	MethodPMI    Method = "pmi"
	MethodTFIDF  Method = "tfidf"
)

// Config carries the tunables for one scoring run (spec §6 scoring config).
type Config struct {
	Method            Method  `json:"method"`
	MinSalience       float64 `json:"min_salience"`
	MinDomainCount    uint32  `json:"min_domain_count"`
	AssignPhraseIDs   bool    `json:"assign_phrase_ids"`
	StartingPhraseID  uint32  `json:"starting_phrase_id"`
}

// Validate checks the config (spec §7).
func (c Config) Validate() error {
	switch c.Method {
	case MethodRatio, MethodPMI, MethodTFIDF:
	default:
		return fmt.Errorf("%w: unknown scoring method %q", perrors.ErrInvalidConfig, c.Method)
	}
	return nil
}

// Record is one input table row (spec §6 candidate phrase format, reused for
// both the domain and the background table).
type Record struct {
	Tokens []string `json:"tokens"`
	Count  uint32   `json:"count"`
}

// Phrase is one scorer output row (spec §6 scored phrase format).
type Phrase struct {
	Tokens          []string `json:"tokens"`
	Salience        float32  `json:"salience"`
	DomainCount     uint32   `json:"domain_count"`
	BackgroundCount uint32   `json:"background_count"`
	PhraseID        uint32   `json:"phrase_id"`
}

// Stats tracks the scorer's running totals for the stderr report (spec §4.2).
type Stats struct {
	DomainPhrases     int
	BackgroundPhrases int
	AfterDomainFilter int
	AfterSalienceFilter int
}

func key(tokens []string) string {
	return strings.Join(tokens, "\x00")
}

// Score computes salience for every domain phrase against the background
// table, applies the domain-count and salience filters in order, and
// optionally assigns dense phrase IDs (spec §4.2).
func Score(cfg Config, domain, background []Record) ([]Phrase, Stats, error) {
	st := Stats{
		DomainPhrases:     len(domain),
		BackgroundPhrases: len(background),
	}

	bg := make(map[string]uint32, len(background))
	for _, r := range background {
		bg[key(r.Tokens)] = r.Count
	}

	var totalDomain, totalBackground uint64
	for _, r := range domain {
		totalDomain += uint64(r.Count)
	}
	for _, r := range background {
		totalBackground += uint64(r.Count)
	}

	filtered := make([]Record, 0, len(domain))
	for _, r := range domain {
		if r.Count < cfg.MinDomainCount {
			continue
		}
		filtered = append(filtered, r)
	}
	st.AfterDomainFilter = len(filtered)

	phrases := make([]Phrase, 0, len(filtered))
	for _, r := range filtered {
		bgCount, present := bg[key(r.Tokens)]
		s, err := score(cfg.Method, r.Count, bgCount, present, totalDomain, totalBackground)
		if err != nil {
			return nil, st, err
		}
		if s < cfg.MinSalience {
			continue
		}
		phrases = append(phrases, Phrase{
			Tokens:          r.Tokens,
			Salience:        float32(s),
			DomainCount:     r.Count,
			BackgroundCount: bgCount,
		})
	}
	st.AfterSalienceFilter = len(phrases)

	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Salience != phrases[j].Salience {
			return phrases[i].Salience > phrases[j].Salience
		}
		return strings.Join(phrases[i].Tokens, " ") < strings.Join(phrases[j].Tokens, " ")
	})

	if cfg.AssignPhraseIDs {
		seen := make(map[uint32]struct{}, len(phrases))
		for i := range phrases {
			id := cfg.StartingPhraseID + uint32(i)
			if _, dup := seen[id]; dup {
				return nil, st, fmt.Errorf("%w: phrase_id %d", perrors.ErrDuplicatePhraseID, id)
			}
			seen[id] = struct{}{}
			phrases[i].PhraseID = id
		}
	}

	return phrases, st, nil
}

func score(method Method, domainCount, bgCount uint32, bgPresent bool, totalDomain, totalBackground uint64) (float64, error) {
	switch method {
	case MethodRatio:
		return float64(domainCount) / (float64(bgCount) + 1), nil
	case MethodPMI:
		bc := float64(bgCount)
		if !bgPresent {
			bc = 0.5
		}
		if totalDomain == 0 || totalBackground == 0 {
			return 0, nil
		}
		pDomain := float64(domainCount) / float64(totalDomain)
		pBackground := bc / float64(totalBackground)
		if pBackground == 0 {
			return 0, nil
		}
		return math.Log2(pDomain / pBackground), nil
	case MethodTFIDF:
		// Approximation: background_count stands in for document frequency
		// and total_background for the number of documents.
		if totalDomain == 0 {
			return 0, nil
		}
		tf := float64(domainCount) / float64(totalDomain)
		df := float64(bgCount)
		nDocs := float64(totalBackground)
		return tf * math.Log((1+nDocs)/(1+df)), nil
	default:
		return 0, fmt.Errorf("%w: unknown scoring method %q", perrors.ErrInvalidConfig, method)
	}
}
