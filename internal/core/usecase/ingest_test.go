package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

type fakeDocumentRepo struct {
	docs      map[string]*domain.Document
	createErr error
	statuses  []domain.DocumentStatus
	saved     map[string]*domain.ProcessResult
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:  make(map[string]*domain.Document),
		saved: make(map[string]*domain.ProcessResult),
	}
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *domain.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("document %s", id))
	}
	return doc, nil
}

func (r *fakeDocumentRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	r.statuses = append(r.statuses, status)
	if doc, ok := r.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

func (r *fakeDocumentRepo) SaveResult(_ context.Context, id string, result *domain.ProcessResult) error {
	r.saved[id] = result
	return nil
}

func (r *fakeDocumentRepo) ListProcessed(_ context.Context, _ int) ([]domain.Document, error) {
	return nil, nil
}

type fakeStorage struct {
	objects map[string][]byte
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = content
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(strings.NewReader(string(content))), nil
}

type fakeQueue struct {
	published  []string
	publishErr error
}

func (q *fakeQueue) PublishDocumentUploaded(_ context.Context, documentID string) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestUploadStoresRecordsAndPublishes(t *testing.T) {
	repo := newFakeDocumentRepo()
	storage := newFakeStorage()
	queue := &fakeQueue{}
	uc := NewIngestUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "Invoice March.pdf", "application/pdf",
		strings.NewReader("%PDF-1.7 content"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if doc.Status != domain.StatusUploaded {
		t.Fatalf("status = %s, want uploaded", doc.Status)
	}
	if _, ok := repo.docs[doc.ID]; !ok {
		t.Fatalf("document record not created")
	}
	if len(storage.objects) != 1 {
		t.Fatalf("stored objects = %d, want 1", len(storage.objects))
	}
	if !strings.Contains(doc.StoragePath, "Invoice_March.pdf") {
		t.Fatalf("storage path %q not sanitized as expected", doc.StoragePath)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("published = %v, want [%s]", queue.published, doc.ID)
	}
}

func TestUploadStorageFailureStopsEarly(t *testing.T) {
	repo := newFakeDocumentRepo()
	storage := newFakeStorage()
	storage.saveErr = fmt.Errorf("disk full")
	queue := &fakeQueue{}
	uc := NewIngestUseCase(repo, storage, queue)

	_, err := uc.Upload(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.docs) != 0 {
		t.Fatalf("record created despite storage failure")
	}
	if len(queue.published) != 0 {
		t.Fatalf("event published despite storage failure")
	}
}

func TestSanitizeFilenameStripsPathAndOddRunes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"../../etc/passwd", "passwd"},
		{"my invoice (final).pdf", "my_invoice__final_.pdf"},
		{"", "document.bin"},
		{"простой.pdf", "_______.pdf"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
