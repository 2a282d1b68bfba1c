package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// ProgressPublisher emits step-started events so interactive callers can
// show live progress. Publishing is fire-and-forget: a lost progress
// event must never slow the pipeline down.
type ProgressPublisher struct {
	queue   *Queue
	subject string
	logger  *slog.Logger
}

func NewProgressPublisher(queue *Queue, subject string, logger *slog.Logger) *ProgressPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressPublisher{queue: queue, subject: subject, logger: logger}
}

type progressEvent struct {
	FileID string `json:"file_id"`
	Step   string `json:"step"`
	At     string `json:"at"`
}

func (p *ProgressPublisher) StepStarted(_ context.Context, fileID string, step domain.StepID) {
	payload, err := json.Marshal(progressEvent{
		FileID: fileID,
		Step:   string(step),
		At:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}
	if err := p.queue.conn.Publish(p.subject, payload); err != nil {
		p.logger.Debug("progress_publish_failed", "file_id", fileID, "step", string(step), "error", err)
	}
}
