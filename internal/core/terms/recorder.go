// Package terms detects recurring descriptive phrases in document content
// that the canonical field schema does not cover, so future mapping rules
// can be authored from real data.
package terms

import (
	"context"
	"log/slog"
	"sort"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

const (
	// Similarity at or above this treats two terms as the same.
	fuzzyThreshold = 0.85
	// Similarity in [synonymThreshold, fuzzyThreshold) queues a synonym
	// candidate for human confirmation.
	synonymThreshold = 0.80
)

type Recorder struct {
	store  ports.TermStore
	logger *slog.Logger
}

func NewRecorder(store ports.TermStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Detect classifies candidate phrases against the stored vocabulary for
// the company+format pair. It performs no writes, so repeated calls over
// unchanged input yield identical results.
func (r *Recorder) Detect(ctx context.Context, companyID, formatID string, candidates []string) (*domain.TermDetectionResult, error) {
	detected := collectTerms(candidates)
	result := &domain.TermDetectionResult{Detected: detected}
	if len(detected) == 0 {
		return result, nil
	}

	stored, err := r.store.ListTerms(ctx, companyID, formatID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "list stored terms", err)
	}

	for _, term := range detected {
		kind, match := classify(term, stored)
		switch kind {
		case matchExact:
			result.Matched = append(result.Matched, domain.MatchedTerm{
				Detected:   term,
				StoredID:   match.id,
				Similarity: 1,
				Exact:      true,
			})
		case matchFuzzy:
			result.Matched = append(result.Matched, domain.MatchedTerm{
				Detected:   term,
				StoredID:   match.id,
				Similarity: match.similarity,
			})
		case matchSynonym:
			result.Candidates = append(result.Candidates, domain.SynonymCandidate{
				Detected:   term,
				StoredID:   match.id,
				Similarity: match.similarity,
			})
		default:
			result.NewTerms = append(result.NewTerms, domain.NewTerm{Detected: term})
		}
	}
	return result, nil
}

// Persist applies the writes for one detection result: occurrence bumps
// for matches, inserts for new terms, queue entries for synonym
// candidates. Candidates are never merged here.
func (r *Recorder) Persist(ctx context.Context, companyID, formatID string, result *domain.TermDetectionResult) error {
	if result == nil {
		return nil
	}

	for _, matched := range result.Matched {
		if err := r.store.IncrementOccurrences(ctx, matched.StoredID, matched.Detected.Occurrences); err != nil {
			return domain.WrapError(domain.ErrTemporary, "increment term occurrences", err)
		}
	}

	for i, newTerm := range result.NewTerms {
		term := domain.StoredTerm{
			ID:          uuid.NewString(),
			CompanyID:   companyID,
			FormatID:    formatID,
			Normalized:  newTerm.Detected.Normalized,
			Display:     newTerm.Detected.Display,
			Occurrences: newTerm.Detected.Occurrences,
		}
		if err := r.store.UpsertTerm(ctx, term); err != nil {
			return domain.WrapError(domain.ErrTemporary, "save new term", err)
		}
		result.NewTerms[i].Saved = true
	}

	for _, candidate := range result.Candidates {
		if err := r.store.QueueSynonymCandidate(ctx, candidate, companyID, formatID); err != nil {
			return domain.WrapError(domain.ErrTemporary, "queue synonym candidate", err)
		}
	}
	return nil
}

type matchKind int

const (
	matchNone matchKind = iota
	matchExact
	matchFuzzy
	matchSynonym
)

type storedMatch struct {
	id         string
	similarity float64
}

// classify finds the best stored counterpart for one detected term.
// An exact normalized hit wins outright; otherwise the highest
// similarity decides the band.
func classify(term domain.DetectedTerm, stored []domain.StoredTerm) (matchKind, storedMatch) {
	best := storedMatch{}
	for _, s := range stored {
		if s.Normalized == term.Normalized {
			return matchExact, storedMatch{id: s.ID, similarity: 1}
		}
		similarity := levenshtein.Similarity(term.Normalized, s.Normalized, nil)
		if similarity > best.similarity {
			best = storedMatch{id: s.ID, similarity: similarity}
		}
	}

	switch {
	case best.similarity >= fuzzyThreshold:
		return matchFuzzy, best
	case best.similarity >= synonymThreshold:
		return matchSynonym, best
	default:
		return matchNone, best
	}
}

// collectTerms normalizes and deduplicates candidates, dropping those
// that fail the length or address filters. Output order is deterministic.
func collectTerms(candidates []string) []domain.DetectedTerm {
	byNormalized := make(map[string]*domain.DetectedTerm)
	for _, candidate := range candidates {
		normalized := Normalize(candidate)
		if !Acceptable(normalized) {
			continue
		}
		if existing, ok := byNormalized[normalized]; ok {
			existing.Occurrences++
			continue
		}
		byNormalized[normalized] = &domain.DetectedTerm{
			Normalized:  normalized,
			Display:     trimDisplay(candidate),
			Occurrences: 1,
		}
	}

	out := make([]domain.DetectedTerm, 0, len(byNormalized))
	for _, term := range byNormalized {
		out = append(out, *term)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Normalized < out[j].Normalized })
	return out
}
