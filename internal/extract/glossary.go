package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/stabledocs/regula/internal/domain/pack"
)

// Definitions in EMA guidance come in two textual shapes: a quoted term
// followed by a copula ("'In-use stability' is defined as ...") or a
// glossary-style "Term: definition" line inside a definitions section.
var quotedDefPattern = regexp.MustCompile(`[\x{2018}'"]([A-Z][\w\s-]{2,40})[\x{2019}'"]\s+(?:is defined as|means|refers to)\s+([^.]{10,300}\.)`)
var colonDefPattern = regexp.MustCompile(`(?m)^([A-Z][\w\s-]{2,40}):\s+([A-Z][^.\n]{10,300}\.)`)

// coreTerms are always reported when the document uses them, even if it
// never defines them inline. Definitions follow ICH Q1A terminology.
var coreTerms = map[string]string{
	"retest period": "The period of time during which the drug substance is expected to remain within its specification and can be used without retesting.",
	"shelf life":    "The time period during which a drug product is expected to remain within the approved specification, provided it is stored under the conditions defined on the label.",
	"in-use stability": "The stability of a product after first opening or reconstitution, over the period it is in use.",
	"accelerated testing": "Studies designed to increase the rate of chemical or physical degradation by using exaggerated storage conditions.",
	"long-term testing": "Stability studies under the recommended storage condition for the retest period or shelf life claimed.",
	"stability commitment": "A commitment to conduct or complete stability studies post-approval when available long-term data do not cover the proposed period.",
}

func extractGlossary(pages []Page) []pack.GlossaryEntry {
	seen := make(map[string]bool)
	var entries []pack.GlossaryEntry

	add := func(term, def string, page int) {
		key := strings.ToLower(strings.TrimSpace(term))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		entries = append(entries, pack.GlossaryEntry{
			Term:       strings.TrimSpace(term),
			Definition: strings.TrimSpace(def),
			SourcePage: page,
		})
	}

	for _, p := range pages {
		for _, m := range quotedDefPattern.FindAllStringSubmatch(p.Text, -1) {
			add(m[1], m[2], p.Number)
		}
		for _, m := range colonDefPattern.FindAllStringSubmatch(p.Text, -1) {
			add(m[1], m[2], p.Number)
		}
	}

	// Backfill core stability vocabulary the document uses without defining.
	for term, def := range coreTerms {
		for _, p := range pages {
			if strings.Contains(strings.ToLower(p.Text), term) {
				add(term, def, p.Number)
				break
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SourcePage != entries[j].SourcePage {
			return entries[i].SourcePage < entries[j].SourcePage
		}
		return entries[i].Term < entries[j].Term
	})
	return entries
}
