package http

import (
	"net/http"
)

// ---------------------------------------------------------------------------
// Allocation packs
// ---------------------------------------------------------------------------

func (h *Handlers) GetPack(w http.ResponseWriter, r *http.Request) {
	p, err := h.Packs.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "pack not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetLatestPack returns the highest-version pack extracted from a guideline.
func (h *Handlers) GetLatestPack(w http.ResponseWriter, r *http.Request) {
	p, err := h.Packs.Latest(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "no pack extracted for this guideline")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DownloadPack serves the pack as a pretty-printed JSON attachment.
func (h *Handlers) DownloadPack(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	data, err := h.Packs.Download(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "pack not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="allocation_pack_`+id+`.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetGlossary returns the glossary of the latest pack for a guideline.
func (h *Handlers) GetGlossary(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Packs.Glossary(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "no pack extracted for this guideline")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
