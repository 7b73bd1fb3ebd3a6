// Package builder assembles a scored-phrase list into a complete artifact
// set: vocabulary, encoded patterns, automaton, payload table and manifest
// (spec §4.3).
package builder

import (
	"encoding/binary"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/scientist-labs/phrasekit/internal/perrors"
	"github.com/scientist-labs/phrasekit/pkg/artifact"
	"github.com/scientist-labs/phrasekit/pkg/automaton"
	"github.com/scientist-labs/phrasekit/pkg/salience"
	"github.com/scientist-labs/phrasekit/pkg/token"
)

// Config carries the build's metadata fields (spec §6 "Build config").
type Config struct {
	Version           string   `json:"version"`
	Tokenizer         string   `json:"tokenizer"`
	SeparatorID       uint32   `json:"separator_id"`
	MinCount          *uint32  `json:"min_count,omitempty"`
	SalienceThreshold *float64 `json:"salience_threshold,omitempty"`
}

// Validate checks required fields (spec §7 config validation).
func (c Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("%w: version is required", perrors.ErrInvalidConfig)
	}
	if c.Tokenizer == "" {
		return fmt.Errorf("%w: tokenizer is required", perrors.ErrInvalidConfig)
	}
	return nil
}

// Build runs all of §4.3's steps over phrases (already scored and, if
// configured, already phrase-ID-assigned) and returns the in-memory
// artifact.Set ready for artifact.Write. builtAt is the ISO-8601 UTC
// timestamp to record in the manifest.
func Build(cfg Config, phrases []salience.Phrase, builtAt string) (*artifact.Set, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(phrases) == 0 {
		return nil, fmt.Errorf("%w", perrors.ErrEmptyPhraseList)
	}

	separatorID := cfg.SeparatorID
	if separatorID == 0 {
		separatorID = token.DefaultSeparatorID
	}

	// Step 1: vocabulary construction.
	tokSet := make(map[string]struct{})
	for _, p := range phrases {
		for _, t := range p.Tokens {
			tokSet[token.Normalize(t)] = struct{}{}
		}
	}
	vocab := token.Build(tokSet, separatorID)
	for t, id := range vocab.IDMap() {
		if id == separatorID {
			return nil, fmt.Errorf("%w: token %q", perrors.ErrSeparatorCollision, t)
		}
	}

	// Step 2: pattern encoding and phrase-ID uniqueness check.
	patterns := make([][]byte, len(phrases))
	seenIDs := make(map[uint32]struct{}, len(phrases))
	for i, p := range phrases {
		if _, dup := seenIDs[p.PhraseID]; dup {
			return nil, fmt.Errorf("%w: phrase_id %d", perrors.ErrDuplicatePhraseID, p.PhraseID)
		}
		seenIDs[p.PhraseID] = struct{}{}

		buf := make([]byte, 4*len(p.Tokens))
		for j, t := range p.Tokens {
			id, ok := vocab.ID(t)
			if !ok {
				return nil, fmt.Errorf("token %q missing from vocabulary", t)
			}
			binary.LittleEndian.PutUint32(buf[j*4:], id)
		}
		patterns[i] = buf
	}

	// Step 3: automaton build.
	ac, err := automaton.Build(patterns)
	if err != nil {
		return nil, err
	}

	// Step 4: payload table, in insertion order.
	records := make([]artifact.PayloadRecord, len(phrases))
	for i, p := range phrases {
		if len(p.Tokens) > 255 {
			return nil, fmt.Errorf("%w: phrase length %d exceeds payload n field range", perrors.ErrInvalidConfig, len(p.Tokens))
		}
		records[i] = artifact.PayloadRecord{
			PhraseID: p.PhraseID,
			Salience: p.Salience,
			Count:    p.DomainCount,
			N:        uint8(len(p.Tokens)),
		}
	}

	// Step 5: manifest.
	manifest := artifact.Manifest{
		Version:           cfg.Version,
		Tokenizer:         cfg.Tokenizer,
		NumPatterns:       len(phrases),
		MinCount:          cfg.MinCount,
		SalienceThreshold: cfg.SalienceThreshold,
		BuiltAt:           builtAt,
		SeparatorID:       separatorID,
		BuildID:           ulid.Make().String(),
	}

	// Step 6: vocab file.
	vocabFile := artifact.Vocab{
		Tokens:        vocab.IDMap(),
		SpecialTokens: map[string]uint32{token.UnknownToken: token.UnknownID},
		VocabSize:     vocab.Size(),
		SeparatorID:   separatorID,
	}

	return &artifact.Set{
		Automaton: ac,
		Payloads:  records,
		Manifest:  manifest,
		Vocab:     vocabFile,
	}, nil
}
