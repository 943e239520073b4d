package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Guidelines
		r.Post("/guidelines", h.UploadGuideline)
		r.Get("/guidelines", h.ListGuidelines)
		r.Get("/guidelines/{id}", h.GetGuideline)
		r.Delete("/guidelines/{id}", h.DeleteGuideline)
		r.Get("/guidelines/{id}/file", h.GetGuidelineFile)
		r.Post("/guidelines/{id}/extract", h.ReextractGuideline)

		// Allocation packs (nested under guidelines for the latest version)
		r.Get("/guidelines/{id}/pack", h.GetLatestPack)
		r.Get("/guidelines/{id}/glossary", h.GetGlossary)

		// Allocation packs (direct access)
		r.Get("/packs/{id}", h.GetPack)
		r.Get("/packs/{id}/download", h.DownloadPack)

		// Rules and review
		r.Get("/rules", h.ListRules)
		r.Get("/rules/{id}", h.GetRule)
		r.Put("/rules/{id}/status", h.SetRuleStatus)

		// Per-project activations
		r.Get("/projects/{id}/guidelines", h.ListActivations)
		r.Post("/projects/{id}/guidelines", h.ActivateGuideline)
		r.Delete("/projects/{id}/guidelines/{guidelineId}", h.DeactivateGuideline)

		// Per-project waivers
		r.Get("/projects/{id}/waivers", h.ListWaivers)
		r.Post("/projects/{id}/waivers", h.AddWaiver)
		r.Delete("/projects/{id}/waivers/{code}", h.RemoveWaiver)

		// Evaluation
		r.Post("/projects/{id}/evaluate", h.Evaluate)
		r.Get("/projects/{id}/evaluation-log", h.EvaluationLog)
		r.Get("/projects/{id}/audit-log", h.AuditLog)

		// Rule language introspection
		r.Get("/fields", h.FieldPaths)
	})
}
