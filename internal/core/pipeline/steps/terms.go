package steps

import (
	"context"
	"log/slog"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/terms"
)

const persistTimeout = 30 * time.Second

// TermRecording detects vocabulary terms in document content and, when
// auto-save is on, persists them in the background. Detection is split
// from persistence so a slow database write never delays the run.
type TermRecording struct {
	recorder *terms.Recorder
	logger   *slog.Logger
}

func NewTermRecording(recorder *terms.Recorder, logger *slog.Logger) *TermRecording {
	if logger == nil {
		logger = slog.Default()
	}
	return &TermRecording{recorder: recorder, logger: logger}
}

func (s *TermRecording) ID() domain.StepID { return domain.StepTermRecording }

// Vocabulary is keyed by company+format, so the step needs an identified
// issuer to attribute terms to.
func (s *TermRecording) Applicable(pctx *domain.ProcessingContext) bool {
	return pctx.Issuer != nil && pctx.Issuer.Identified
}

func (s *TermRecording) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	companyID := pctx.Issuer.CompanyID
	formatID := ""
	if pctx.Format != nil {
		formatID = pctx.Format.FormatID
	}

	result, err := s.recorder.Detect(ctx, companyID, formatID, s.candidates(pctx))
	if err != nil {
		return nil, err
	}
	pctx.Terms = result

	if pctx.Flags.TermAutoSave && hasWrites(result) {
		// Detached from the request context: the run must not block on,
		// or be failed by, vocabulary writes. Persist mutates its input,
		// so it gets a copy while the run keeps reading the original.
		fileID := pctx.Input.FileID
		snapshot := result.Clone()
		go func() {
			persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.recorder.Persist(persistCtx, companyID, formatID, snapshot); err != nil {
				s.logger.Error("term_persist_failed", "file_id", fileID, "error", err)
			}
		}()
	}

	return map[string]any{
		"detected":           len(result.Detected),
		"matched":            len(result.Matched),
		"new_terms":          len(result.NewTerms),
		"synonym_candidates": len(result.Candidates),
	}, nil
}

// candidates gathers phrases worth recording: line item descriptions plus
// the raw values of fields the mapper could not place.
func (s *TermRecording) candidates(pctx *domain.ProcessingContext) []string {
	var out []string
	if pctx.Primary != nil {
		for _, item := range pctx.Primary.LineItems {
			out = append(out, item.Description)
		}
	}
	if pctx.Vision != nil {
		for _, item := range pctx.Vision.LineItems {
			out = append(out, item.Description)
		}
	}
	for _, unmapped := range pctx.UnmappedFields {
		if unmapped.RawValue != "" {
			out = append(out, unmapped.RawValue)
		}
	}
	return out
}

func hasWrites(result *domain.TermDetectionResult) bool {
	return len(result.Matched) > 0 || len(result.NewTerms) > 0 || len(result.Candidates) > 0
}
