package http

import (
	"net/http"
	"time"

	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/waiver"
	"github.com/stabledocs/regula/internal/port/auditlog"
)

// ---------------------------------------------------------------------------
// Per-project resources: activations, waivers, evaluation, logs
// ---------------------------------------------------------------------------

func (h *Handlers) ListActivations(w http.ResponseWriter, r *http.Request) {
	acts, err := h.Guidelines.Activations(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acts)
}

func (h *Handlers) ActivateGuideline(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[guideline.ActivationRequest](w, r)
	if !ok {
		return
	}
	act, err := h.Guidelines.Activate(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "guideline not found")
		return
	}
	writeJSON(w, http.StatusCreated, act)
}

func (h *Handlers) DeactivateGuideline(w http.ResponseWriter, r *http.Request) {
	if err := h.Guidelines.Deactivate(r.Context(), urlParam(r, "id"), urlParam(r, "guidelineId")); err != nil {
		writeDomainError(w, err, "activation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListWaivers(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Waivers.List(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *Handlers) AddWaiver(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[waiver.AddRequest](w, r)
	if !ok {
		return
	}
	wv, err := h.Waivers.Add(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusCreated, wv)
}

func (h *Handlers) RemoveWaiver(w http.ResponseWriter, r *http.Request) {
	if err := h.Waivers.Remove(r.Context(), urlParam(r, "id"), urlParam(r, "code")); err != nil {
		writeDomainError(w, err, "waiver not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type evaluateRequest struct {
	GenerationRunID string `json:"generation_run_id,omitempty"`
}

// Evaluate runs the full rule evaluation for a project and returns the
// gate report. An empty body is accepted.
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	var runID string
	if r.ContentLength > 0 {
		req, ok := readJSON[evaluateRequest](w, r)
		if !ok {
			return
		}
		runID = req.GenerationRunID
	}

	report, err := h.Evaluations.Evaluate(r.Context(), urlParam(r, "id"), runID)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// EvaluationLog returns the newest evaluation log entries for a project.
func (h *Handlers) EvaluationLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Evaluations.Log(r.Context(), urlParam(r, "id"), queryInt(r, "limit", 0))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// AuditLog returns audit entries for a project, newest first. Filterable by
// repeated type params, subject, and an after/before time window (RFC 3339).
func (h *Handlers) AuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := auditlog.Filter{Subject: q.Get("subject")}
	for _, t := range q["type"] {
		filter.Types = append(filter.Types, audit.Type(t))
	}
	if raw := q.Get("after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after timestamp, expected RFC 3339")
			return
		}
		filter.After = &t
	}
	if raw := q.Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid before timestamp, expected RFC 3339")
			return
		}
		filter.Before = &t
	}

	entries, err := h.Audit.List(r.Context(), urlParam(r, "id"), filter, queryInt(r, "limit", 0))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// FieldPaths lists every context field path the rule language can reference.
func (h *Handlers) FieldPaths(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"fields": h.Evaluations.FieldPaths()})
}
