package http

import (
	"net/http"

	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/port/database"
	"github.com/stabledocs/regula/internal/service"
)

// ---------------------------------------------------------------------------
// Rules and review
// ---------------------------------------------------------------------------

// ListRules returns rules filtered by pack, status, side or mapped section.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.RuleFilter{
		PackID:  q.Get("pack_id"),
		Status:  rule.Status(q.Get("status")),
		Side:    rule.ProductSide(q.Get("side")),
		Section: q.Get("section"),
	}
	rules, err := h.Rules.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *Handlers) GetRule(w http.ResponseWriter, r *http.Request) {
	ru, err := h.Rules.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, ru)
}

// SetRuleStatus applies a review disposition (confirm, reject, override).
func (h *Handlers) SetRuleStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.StatusRequest](w, r)
	if !ok {
		return
	}
	ru, err := h.Rules.SetStatus(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, ru)
}
