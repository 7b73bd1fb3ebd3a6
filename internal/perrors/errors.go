// Package perrors collects the sentinel errors shared by the mining,
// scoring, building and matching stages.
package perrors

import "errors"

// Sentinel errors. Stage mains wrap these with fmt.Errorf("...: %w", err)
// for a single diagnostic line; callers of the Matcher can distinguish
// ErrNotLoaded (retry after Load) from the data-error sentinels below.
var (
	ErrNotLoaded           = errors.New("matcher: not loaded")
	ErrMalformedInput      = errors.New("malformed input line")
	ErrDuplicatePattern    = errors.New("duplicate pattern")
	ErrDuplicatePhraseID   = errors.New("duplicate phrase_id")
	ErrSeparatorCollision  = errors.New("token id collides with separator id")
	ErrEmptyPhraseList     = errors.New("empty phrase list")
	ErrArtifactMismatch    = errors.New("artifact mismatch")
	ErrCountOverflow       = errors.New("count overflow")
	ErrInvalidConfig       = errors.New("invalid configuration")
)
