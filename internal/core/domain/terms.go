package domain

import "time"

// StoredTerm is a previously persisted vocabulary term for a
// company+format pair. Occurrence counts accumulate across runs.
type StoredTerm struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	FormatID    string    `json:"format_id"`
	Normalized  string    `json:"normalized"`
	Display     string    `json:"display"`
	Occurrences int       `json:"occurrences"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DetectedTerm is a normalized candidate phrase found in document content.
type DetectedTerm struct {
	Normalized  string `json:"normalized"`
	Display     string `json:"display"`
	Occurrences int    `json:"occurrences"`
}

// MatchedTerm pairs a detected term with the stored term it resolved to,
// either exactly or by fuzzy similarity.
type MatchedTerm struct {
	Detected   DetectedTerm `json:"detected"`
	StoredID   string       `json:"stored_id"`
	Similarity float64      `json:"similarity"`
	Exact      bool         `json:"exact"`
}

// NewTerm is a detected term with no stored counterpart.
type NewTerm struct {
	Detected DetectedTerm `json:"detected"`
	Saved    bool         `json:"saved,omitempty"`
}

// SynonymCandidate sits in the similarity band below same-term but above
// unrelated; it is queued for human confirmation and never auto-merged.
type SynonymCandidate struct {
	Detected   DetectedTerm `json:"detected"`
	StoredID   string       `json:"stored_id"`
	Similarity float64      `json:"similarity"`
}

type TermDetectionResult struct {
	Detected   []DetectedTerm     `json:"detected"`
	Matched    []MatchedTerm      `json:"matched"`
	NewTerms   []NewTerm          `json:"new_terms"`
	Candidates []SynonymCandidate `json:"synonym_candidates"`
}

// Clone returns a deep copy. Detached persistence marks terms saved on
// its own copy while the caller's result is still being read and
// serialized, so the two must not share backing arrays.
func (r *TermDetectionResult) Clone() *TermDetectionResult {
	if r == nil {
		return nil
	}
	return &TermDetectionResult{
		Detected:   append([]DetectedTerm(nil), r.Detected...),
		Matched:    append([]MatchedTerm(nil), r.Matched...),
		NewTerms:   append([]NewTerm(nil), r.NewTerms...),
		Candidates: append([]SynonymCandidate(nil), r.Candidates...),
	}
}

// MatchRate is matched/total over detected terms; -1 when no terms.
func (r *TermDetectionResult) MatchRate() float64 {
	if r == nil || len(r.Detected) == 0 {
		return -1
	}
	return float64(len(r.Matched)) / float64(len(r.Detected))
}
