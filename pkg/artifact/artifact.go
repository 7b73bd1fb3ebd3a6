// Package artifact defines the four co-located build outputs — automaton,
// payload table, manifest, vocabulary — and their atomic on-disk lifecycle
// (spec §3 "Artifact set", §4.3, §6 "Binary artifacts").
package artifact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/scientist-labs/phrasekit/internal/perrors"
	"github.com/scientist-labs/phrasekit/pkg/automaton"
)

// Filenames for the four co-located artifacts (spec §4.3).
const (
	AutomatonFile = "automaton.daac"
	PayloadsFile  = "payloads.bin"
	ManifestFile  = "manifest.json"
	VocabFile     = "vocab.json"
)

// payloadRecordSize is the fixed per-phrase record size (spec §3 "Payload record").
const payloadRecordSize = 17

// Manifest is the build's JSON metadata file (spec §4.3 step 5).
type Manifest struct {
	Version           string   `json:"version"`
	Tokenizer         string   `json:"tokenizer"`
	NumPatterns       int      `json:"num_patterns"`
	MinCount          *uint32  `json:"min_count,omitempty"`
	SalienceThreshold *float64 `json:"salience_threshold,omitempty"`
	BuiltAt           string   `json:"built_at"`
	SeparatorID       uint32   `json:"separator_id"`
	BuildID           string   `json:"build_id"`
}

// Vocab is the vocabulary's JSON file (spec §4.3 step 6).
type Vocab struct {
	Tokens        map[string]uint32 `json:"tokens"`
	SpecialTokens map[string]uint32 `json:"special_tokens"`
	VocabSize     int               `json:"vocab_size"`
	SeparatorID   uint32            `json:"separator_id"`
}

// PayloadRecord is the fixed 17-byte per-phrase record (spec §3).
type PayloadRecord struct {
	PhraseID uint32
	Salience float32
	Count    uint32
	N        uint8
}

// EncodePayloads serializes records in order to the on-disk 17-byte layout:
// phrase_id (u32 LE), salience (f32 LE), count (u32 LE), 4 bytes padding,
// length n (u8) — padding retained verbatim for on-disk compatibility (spec §9).
func EncodePayloads(records []PayloadRecord) []byte {
	out := make([]byte, len(records)*payloadRecordSize)
	for i, r := range records {
		off := i * payloadRecordSize
		binary.LittleEndian.PutUint32(out[off:], r.PhraseID)
		binary.LittleEndian.PutUint32(out[off+4:], math.Float32bits(r.Salience))
		binary.LittleEndian.PutUint32(out[off+8:], r.Count)
		// out[off+12:off+16] left as zero padding.
		out[off+16] = r.N
	}
	return out
}

// DecodePayloads parses a payloads.bin buffer into records, failing if the
// buffer size is not a multiple of the fixed record size (spec §6, §8 property 5).
func DecodePayloads(data []byte) ([]PayloadRecord, error) {
	if len(data)%payloadRecordSize != 0 {
		return nil, fmt.Errorf("%w: payload size %d not a multiple of %d", perrors.ErrArtifactMismatch, len(data), payloadRecordSize)
	}
	n := len(data) / payloadRecordSize
	out := make([]PayloadRecord, n)
	for i := 0; i < n; i++ {
		off := i * payloadRecordSize
		out[i] = PayloadRecord{
			PhraseID: binary.LittleEndian.Uint32(data[off:]),
			Salience: math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])),
			Count:    binary.LittleEndian.Uint32(data[off+8:]),
			N:        data[off+16],
		}
	}
	return out, nil
}

// Set is the fully loaded, in-memory form of one artifact build.
type Set struct {
	Automaton *automaton.Automaton
	Payloads  []PayloadRecord
	Manifest  Manifest
	Vocab     Vocab
}

// Write stages the four artifacts under a temporary sibling directory and
// renames it into place once all four are written, so dir never holds a
// partially written set (spec §4.3 "Atomicity"). An existing directory at
// dir is removed before the rename, so replacing a previous build is not a
// single atomic step for a reader that is loading from dir meanwhile.
func Write(dir string, set Set) error {
	tmp := dir + ".tmp-" + ulid.Make().String()
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	automatonPath := filepath.Join(tmp, AutomatonFile)
	f, err := os.Create(automatonPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", AutomatonFile, err)
	}
	if err := set.Automaton.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", AutomatonFile, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", AutomatonFile, err)
	}

	payloadBytes := EncodePayloads(set.Payloads)
	if err := os.WriteFile(filepath.Join(tmp, PayloadsFile), payloadBytes, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", PayloadsFile, err)
	}

	manifestBytes, err := json.MarshalIndent(set.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ManifestFile, err)
	}
	if err := os.WriteFile(filepath.Join(tmp, ManifestFile), manifestBytes, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ManifestFile, err)
	}

	vocabBytes, err := json.MarshalIndent(set.Vocab, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", VocabFile, err)
	}
	if err := os.WriteFile(filepath.Join(tmp, VocabFile), vocabBytes, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", VocabFile, err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing previous output directory: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("renaming staging directory into place: %w", err)
	}
	return nil
}

// Load reads and validates the four co-located artifacts from dir (spec
// §4.4 "Loading"). Mismatches between the manifest, payload table and
// automaton are load-time fatal errors.
func Load(dir string) (*Set, error) {
	manifestBytes, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ManifestFile, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", perrors.ErrArtifactMismatch, ManifestFile, err)
	}

	vocabBytes, err := os.ReadFile(filepath.Join(dir, VocabFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", VocabFile, err)
	}
	var vocab Vocab
	if err := json.Unmarshal(vocabBytes, &vocab); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", perrors.ErrArtifactMismatch, VocabFile, err)
	}

	payloadBytes, err := os.ReadFile(filepath.Join(dir, PayloadsFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", PayloadsFile, err)
	}
	payloads, err := DecodePayloads(payloadBytes)
	if err != nil {
		return nil, err
	}
	if len(payloads) != manifest.NumPatterns {
		return nil, fmt.Errorf("%w: payload count %d != manifest num_patterns %d", perrors.ErrArtifactMismatch, len(payloads), manifest.NumPatterns)
	}

	automatonBytes, err := os.ReadFile(filepath.Join(dir, AutomatonFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", AutomatonFile, err)
	}
	ac, err := automaton.ReadFrom(automatonBytes)
	if err != nil {
		return nil, err
	}
	if ac.NumPatterns() != manifest.NumPatterns {
		return nil, fmt.Errorf("%w: automaton pattern count %d != manifest num_patterns %d", perrors.ErrArtifactMismatch, ac.NumPatterns(), manifest.NumPatterns)
	}

	return &Set{Automaton: ac, Payloads: payloads, Manifest: manifest, Vocab: vocab}, nil
}
