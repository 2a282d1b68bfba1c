package terms

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

type fakeTermStore struct {
	stored []domain.StoredTerm

	listErr    error
	upserted   []domain.StoredTerm
	increments map[string]int
	queued     []domain.SynonymCandidate
}

func (s *fakeTermStore) ListTerms(_ context.Context, _, _ string) ([]domain.StoredTerm, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.stored, nil
}

func (s *fakeTermStore) UpsertTerm(_ context.Context, term domain.StoredTerm) error {
	s.upserted = append(s.upserted, term)
	return nil
}

func (s *fakeTermStore) IncrementOccurrences(_ context.Context, termID string, by int) error {
	if s.increments == nil {
		s.increments = make(map[string]int)
	}
	s.increments[termID] += by
	return nil
}

func (s *fakeTermStore) QueueSynonymCandidate(_ context.Context, candidate domain.SynonymCandidate, _, _ string) error {
	s.queued = append(s.queued, candidate)
	return nil
}

func TestDetectExactMatchIgnoresCaseAndWhitespace(t *testing.T) {
	store := &fakeTermStore{stored: []domain.StoredTerm{
		{ID: "t1", Normalized: "dhl express"},
	}}
	recorder := NewRecorder(store, nil)

	result, err := recorder.Detect(context.Background(), "c1", "f1", []string{"DHL  EXPRESS"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(result.Matched) != 1 || !result.Matched[0].Exact {
		t.Fatalf("expected one exact match, got %+v", result.Matched)
	}
	if result.Matched[0].StoredID != "t1" {
		t.Fatalf("matched stored id = %s, want t1", result.Matched[0].StoredID)
	}
}

func TestDetectFuzzyMatchAboveThreshold(t *testing.T) {
	store := &fakeTermStore{stored: []domain.StoredTerm{
		{ID: "t1", Normalized: "express worldwide shipping"},
	}}
	recorder := NewRecorder(store, nil)

	result, err := recorder.Detect(context.Background(), "c1", "f1", []string{"express worldwide shippin"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(result.Matched) != 1 {
		t.Fatalf("expected one fuzzy match, got matched=%d new=%d candidates=%d",
			len(result.Matched), len(result.NewTerms), len(result.Candidates))
	}
	if result.Matched[0].Exact {
		t.Fatalf("fuzzy match flagged exact")
	}
	if result.Matched[0].Similarity < fuzzyThreshold {
		t.Fatalf("similarity %.3f below fuzzy threshold", result.Matched[0].Similarity)
	}
}

func TestDetectQueuesSynonymCandidateInBand(t *testing.T) {
	store := &fakeTermStore{stored: []domain.StoredTerm{
		{ID: "t1", Normalized: "delivery surcharge", Display: "Delivery Surcharge"},
	}}
	recorder := NewRecorder(store, nil)

	// Three edits over 18 runes lands between the synonym and fuzzy
	// thresholds.
	result, err := recorder.Detect(context.Background(), "c1", "f1", []string{"Delivry Surchrg"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected one synonym candidate, got matched=%d new=%d candidates=%d",
			len(result.Matched), len(result.NewTerms), len(result.Candidates))
	}
	candidate := result.Candidates[0]
	if candidate.StoredID != "t1" {
		t.Fatalf("candidate stored id = %s, want t1", candidate.StoredID)
	}
	if candidate.Similarity < synonymThreshold || candidate.Similarity >= fuzzyThreshold {
		t.Fatalf("similarity %.4f outside [%.2f, %.2f)", candidate.Similarity, synonymThreshold, fuzzyThreshold)
	}
	if len(result.Matched) != 0 || len(result.NewTerms) != 0 {
		t.Fatalf("candidate leaked into other buckets: %+v", result)
	}
}

func TestDetectUnrelatedTermIsNew(t *testing.T) {
	store := &fakeTermStore{stored: []domain.StoredTerm{
		{ID: "t1", Normalized: "dhl express"},
	}}
	recorder := NewRecorder(store, nil)

	result, err := recorder.Detect(context.Background(), "c1", "f1", []string{"ocean freight surcharge"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(result.NewTerms) != 1 {
		t.Fatalf("expected one new term, got %+v", result)
	}
	if len(result.Matched) != 0 || len(result.Candidates) != 0 {
		t.Fatalf("unexpected matches for unrelated term: %+v", result)
	}
}

func TestDetectDeduplicatesAndCountsOccurrences(t *testing.T) {
	store := &fakeTermStore{}
	recorder := NewRecorder(store, nil)

	result, err := recorder.Detect(context.Background(), "c1", "f1",
		[]string{"Fuel Surcharge", "fuel  surcharge", "FUEL SURCHARGE"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(result.Detected) != 1 {
		t.Fatalf("expected one deduplicated term, got %d", len(result.Detected))
	}
	if result.Detected[0].Occurrences != 3 {
		t.Fatalf("occurrences = %d, want 3", result.Detected[0].Occurrences)
	}
}

func TestDetectDropsAddressLikeAndShortCandidates(t *testing.T) {
	store := &fakeTermStore{}
	recorder := NewRecorder(store, nil)

	result, err := recorder.Detect(context.Background(), "c1", "f1",
		[]string{"ab", "120 Main Street", "valid term"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(result.Detected) != 1 || result.Detected[0].Normalized != "valid term" {
		t.Fatalf("expected only 'valid term' to survive filters, got %+v", result.Detected)
	}
}

func TestDetectIsIdempotent(t *testing.T) {
	store := &fakeTermStore{stored: []domain.StoredTerm{
		{ID: "t1", Normalized: "dhl express"},
	}}
	recorder := NewRecorder(store, nil)
	candidates := []string{"DHL Express", "customs clearance fee"}

	first, err := recorder.Detect(context.Background(), "c1", "f1", candidates)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	second, err := recorder.Detect(context.Background(), "c1", "f1", candidates)
	if err != nil {
		t.Fatalf("Detect() second call error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated Detect over unchanged input diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if len(store.upserted) != 0 || len(store.increments) != 0 || len(store.queued) != 0 {
		t.Fatalf("Detect performed writes")
	}
}

func TestDetectListErrorIsTemporary(t *testing.T) {
	store := &fakeTermStore{listErr: fmt.Errorf("connection refused")}
	recorder := NewRecorder(store, nil)

	_, err := recorder.Detect(context.Background(), "c1", "f1", []string{"some term"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestPersistAppliesAllWriteKinds(t *testing.T) {
	store := &fakeTermStore{}
	recorder := NewRecorder(store, nil)

	result := &domain.TermDetectionResult{
		Matched: []domain.MatchedTerm{
			{Detected: domain.DetectedTerm{Normalized: "dhl express", Occurrences: 2}, StoredID: "t1"},
		},
		NewTerms: []domain.NewTerm{
			{Detected: domain.DetectedTerm{Normalized: "ocean freight", Display: "Ocean Freight", Occurrences: 1}},
		},
		Candidates: []domain.SynonymCandidate{
			{Detected: domain.DetectedTerm{Normalized: "dhl expres"}, StoredID: "t1", Similarity: 0.82},
		},
	}

	if err := recorder.Persist(context.Background(), "c1", "f1", result); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if store.increments["t1"] != 2 {
		t.Fatalf("increment for t1 = %d, want 2", store.increments["t1"])
	}
	if len(store.upserted) != 1 || store.upserted[0].Normalized != "ocean freight" {
		t.Fatalf("unexpected upserts: %+v", store.upserted)
	}
	if store.upserted[0].CompanyID != "c1" || store.upserted[0].FormatID != "f1" {
		t.Fatalf("new term missing scope: %+v", store.upserted[0])
	}
	if !result.NewTerms[0].Saved {
		t.Fatalf("new term not marked saved")
	}
	if len(store.queued) != 1 {
		t.Fatalf("expected one queued synonym candidate, got %d", len(store.queued))
	}
}

func TestPersistOnCloneLeavesOriginalUntouched(t *testing.T) {
	store := &fakeTermStore{}
	recorder := NewRecorder(store, nil)

	result, err := recorder.Detect(context.Background(), "c1", "f1", []string{"ocean freight surcharge"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	// Background persistence gets a clone so its saved-flag writes never
	// land on the result the caller is still serializing.
	snapshot := result.Clone()
	if err := recorder.Persist(context.Background(), "c1", "f1", snapshot); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	if len(snapshot.NewTerms) != 1 || !snapshot.NewTerms[0].Saved {
		t.Fatalf("persisted copy not marked saved: %+v", snapshot.NewTerms)
	}
	if result.NewTerms[0].Saved {
		t.Fatalf("persist wrote through to the original result")
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upserted %d terms, want 1", len(store.upserted))
	}
}

func TestPersistNilResultIsNoop(t *testing.T) {
	store := &fakeTermStore{}
	recorder := NewRecorder(store, nil)

	if err := recorder.Persist(context.Background(), "c1", "f1", nil); err != nil {
		t.Fatalf("Persist(nil) error = %v", err)
	}
	if len(store.upserted) != 0 || len(store.increments) != 0 || len(store.queued) != 0 {
		t.Fatalf("nil result caused writes")
	}
}

func TestNormalizeFoldsCaseAndWhitespace(t *testing.T) {
	if got := Normalize("  DHL\t EXPRESS  "); got != "dhl express" {
		t.Fatalf("Normalize = %q, want %q", got, "dhl express")
	}
}

func TestAcceptableRejectsPostalCodes(t *testing.T) {
	if Acceptable("some town 90210") {
		t.Fatalf("postal-code suffix accepted")
	}
	if !Acceptable("handling charge") {
		t.Fatalf("plain phrase rejected")
	}
}
