// Package http exposes the rule engine over a JSON REST API.
package http

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/stabledocs/regula/internal/port/auditlog"
	"github.com/stabledocs/regula/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB, JSON bodies only

// Handlers bundles the service dependencies of the HTTP API.
type Handlers struct {
	Guidelines  *service.GuidelineService
	Packs       *service.PackService
	Rules       *service.ReviewService
	Waivers     *service.WaiverService
	Evaluations *service.EvaluationService
	Audit       auditlog.Store

	// UploadLimit caps guideline uploads, in bytes.
	UploadLimit int64
}

// ---------------------------------------------------------------------------
// Guidelines
// ---------------------------------------------------------------------------

// UploadGuideline handles multipart guideline uploads. The file part is
// required; title, agency and notes are optional and refined from the
// document during extraction when absent.
func (h *Handlers) UploadGuideline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.UploadLimit)
	if err := r.ParseMultipartForm(h.UploadLimit); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".pdf" {
		writeError(w, http.StatusBadRequest, "unsupported file type, expected .pdf")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	g, err := h.Guidelines.Upload(r.Context(), service.UploadRequest{
		Title:    r.FormValue("title"),
		Agency:   r.FormValue("agency"),
		Notes:    r.FormValue("notes"),
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		writeDomainError(w, err, "guideline not found")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handlers) ListGuidelines(w http.ResponseWriter, r *http.Request) {
	gs, err := h.Guidelines.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *Handlers) GetGuideline(w http.ResponseWriter, r *http.Request) {
	g, err := h.Guidelines.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "guideline not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handlers) DeleteGuideline(w http.ResponseWriter, r *http.Request) {
	if err := h.Guidelines.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "guideline not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGuidelineFile streams back the exact uploaded bytes.
func (h *Handlers) GetGuidelineFile(w http.ResponseWriter, r *http.Request) {
	data, err := h.Guidelines.File(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "guideline file not found")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ReextractGuideline queues a fresh extraction run.
func (h *Handlers) ReextractGuideline(w http.ResponseWriter, r *http.Request) {
	if err := h.Guidelines.Reextract(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "guideline not found")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
