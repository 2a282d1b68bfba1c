// Package httpadapter exposes the document pipeline over HTTP.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/usecase"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/export"
)

// Uploads above this size are rejected before buffering.
const maxUploadBytes = 32 << 20

type Router struct {
	ingestUC    *usecase.IngestUseCase
	processUC   *usecase.ProcessUseCase
	repo        ports.DocumentRepository
	exporter    *export.Service
	exportLimit int
	limiter     *rate.Limiter
}

func NewRouter(
	ingestUC *usecase.IngestUseCase,
	processUC *usecase.ProcessUseCase,
	repo ports.DocumentRepository,
	exporter *export.Service,
	exportLimit int,
	limiter *rate.Limiter,
) *Router {
	return &Router{
		ingestUC:    ingestUC,
		processUC:   processUC,
		repo:        repo,
		exporter:    exporter,
		exportLimit: exportLimit,
		limiter:     limiter,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/process", rt.processSync)
	mux.HandleFunc("/v1/process/batch", rt.processBatch)
	mux.HandleFunc("/v1/export", rt.exportProcessed)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rt.limiter, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// processSync runs one upload through the pipeline in-request and
// returns the full result. Query parameters override the configured
// flag defaults per call.
func (rt *Router) processSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	input, err := readUpload(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result := rt.processUC.ProcessUpload(r.Context(), input, flagOverrides(r))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) processBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes*4)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	inputs := make([]domain.ProcessFileInput, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("open %s: %v", header.Filename, err)})
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("read %s: %v", header.Filename, err)})
			return
		}
		inputs = append(inputs, domain.ProcessFileInput{
			FileID:   uuid.NewString(),
			Content:  content,
			MimeType: header.Header.Get("Content-Type"),
			FileName: header.Filename,
		})
	}

	results := rt.processUC.ProcessBatch(r.Context(), inputs)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (rt *Router) exportProcessed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := rt.exportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	workbook, err := rt.exporter.ExportProcessedXLSX(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func readUpload(w http.ResponseWriter, r *http.Request) (domain.ProcessFileInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		return domain.ProcessFileInput{}, fmt.Errorf("multipart field 'file' is required")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return domain.ProcessFileInput{}, fmt.Errorf("read upload: %w", err)
	}
	return domain.ProcessFileInput{
		FileID:   uuid.NewString(),
		Content:  content,
		MimeType: fileHeader.Header.Get("Content-Type"),
		FileName: fileHeader.Filename,
	}, nil
}

// flagOverrides maps optional query parameters onto per-call flags.
func flagOverrides(r *http.Request) func(*domain.ProcessingFlags) {
	query := r.URL.Query()
	return func(flags *domain.ProcessingFlags) {
		if v, err := strconv.ParseBool(query.Get("legacy")); err == nil {
			flags.ForceLegacy = v
		}
		if v, err := strconv.ParseBool(query.Get("term_auto_save")); err == nil {
			flags.TermAutoSave = v
		}
		if v, err := strconv.ParseBool(query.Get("notify_steps")); err == nil {
			flags.NotifySteps = v
		}
		if v, err := strconv.ParseBool(query.Get("vision")); err == nil {
			flags.VisionEnabled = v
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
