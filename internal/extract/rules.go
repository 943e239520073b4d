package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stabledocs/regula/internal/domain/rule"
)

// extractionConfidence is attached to every heuristically extracted rule.
// Human review, not this number, decides whether a rule is enforced.
const extractionConfidence = 0.7

// fieldMappings maps clause keywords to field paths. "{scope}" expands per
// applicable product side. Every template target must exist in the
// evaluation field path registry or the resulting rule fails closed.
var fieldMappings = []struct {
	keyword string
	field   string
}{
	{"retest period", "ds.retest_period"},
	{"retest date", "ds.retest_period"},
	{"shelf life", "dp.shelf_life"},
	{"shelf-life", "dp.shelf_life"},
	{"storage condition", "{scope}.storage_conditions"},
	{"accelerated", "{scope}.study_accelerated"},
	{"long-term", "{scope}.study_long_term"},
	{"long term", "{scope}.study_long_term"},
	{"in-use stability", "dp.in_use_stability"},
	{"in use stability", "dp.in_use_stability"},
	{"stability commitment", "{scope}.stability_commitment"},
	{"ongoing stability", "{scope}.stability_commitment"},
	{"stability program", "{scope}.stability_commitment"},
	{"tabulated", "{scope}.stability_table"},
	{"summary", "{scope}.stability_table"},
	{"photostability", "{scope}.study_photostability"},
	{"stress", "{scope}.study_stress"},
	{"reconstitution", "dp.in_use_stability"},
	{"dilution", "dp.in_use_stability"},
	{"multi-dose", "dp.in_use_stability"},
	{"specification", "{scope}.specification_reference"},
	{"container closure", "{scope}.container_closure"},
	{"batch", "{scope}.lot_information"},
}

// evidenceMap maps evidence descriptions to the clause keywords implying them.
var evidenceMap = []struct {
	evidence string
	keywords []string
}{
	{"stability table", []string{"table", "tabulated", "data", "results"}},
	{"retest period statement", []string{"retest period", "retest date"}},
	{"shelf-life statement", []string{"shelf life", "shelf-life"}},
	{"storage condition specification", []string{"storage condition", "store at"}},
	{"stability commitment statement", []string{"commitment", "ongoing", "stability program"}},
	{"accelerated study results", []string{"accelerated"}},
	{"long-term study results", []string{"long-term", "long term"}},
	{"photostability study", []string{"photostability", "photo"}},
	{"in-use stability data", []string{"in-use", "in use", "reconstitut", "dilut"}},
	{"stress study results", []string{"stress", "forced degradation"}},
	{"justification statement", []string{"justif", "rationale"}},
}

// structureRules converts detected clauses into pending_review rule records
// with stable rule id codes, section mappings, and templated validation
// logic.
func (e *Extractor) structureRules(clauses []clause) []rule.RegulatoryRule {
	rules := make([]rule.RegulatoryRule, 0, len(clauses))
	dsCounter, dpCounter, genCounter := 0, 0, 0

	for _, c := range clauses {
		isDS := sideIn(c.appliesTo, rule.SideDS)
		isDP := sideIn(c.appliesTo, rule.SideDP)

		var code string
		switch {
		case isDS && !isDP:
			dsCounter++
			code = fmt.Sprintf("EMA-IMPD-S7-%03d", dsCounter)
		case isDP && !isDS:
			dpCounter++
			code = fmt.Sprintf("EMA-IMPD-P8-%03d", dpCounter)
		default:
			genCounter++
			code = fmt.Sprintf("EMA-IMPD-GEN-%03d", genCounter)
		}

		var sections []string
		if isDS {
			sections = append(sections, "3.2.S.7", "2.2.1.S.7")
		}
		if isDP {
			sections = append(sections, "3.2.P.8", "2.2.1.P.8")
		}

		fields := inferFields(c.text, c.appliesTo)
		severity := rule.SeverityWarn
		if c.level == rule.LevelMust {
			severity = rule.SeverityBlock
		}

		rules = append(rules, rule.RegulatoryRule{
			RuleIDCode:         code,
			AppliesTo:          c.appliesTo,
			MappedAppSections:  sections,
			RequirementLevel:   c.level,
			RuleText:           c.text,
			EvidenceExpected:   inferEvidence(c.text),
			UIFieldsRequired:   fields,
			ValidationSeverity: severity,
			ValidationLogic:    inferValidationLogic(fields),
			Traceability: rule.Traceability{
				SourceFileID:   e.SourceFileID,
				Page:           c.page,
				SectionHeading: c.sectionHeading,
				Excerpt:        excerpt(c.text),
			},
			Confidence: extractionConfidence,
			Status:     rule.StatusPendingReview,
			Source:     rule.SourceGuideline,
		})
	}
	return rules
}

// inferFields derives required field paths from clause keywords, expanding
// {scope} templates per applicable side. Output is sorted and de-duplicated
// so extraction runs are reproducible.
func inferFields(text string, appliesTo []rule.ProductSide) []string {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	for _, m := range fieldMappings {
		if !strings.Contains(lower, m.keyword) {
			continue
		}
		if strings.Contains(m.field, "{scope}") {
			for _, side := range appliesTo {
				prefix := "dp"
				if side == rule.SideDS {
					prefix = "ds"
				}
				seen[strings.ReplaceAll(m.field, "{scope}", prefix)] = true
			}
		} else {
			seen[m.field] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// inferEvidence derives the expected-evidence description list.
func inferEvidence(text string) []string {
	lower := strings.ToLower(text)
	var evidence []string
	for _, em := range evidenceMap {
		for _, kw := range em.keywords {
			if strings.Contains(lower, kw) {
				evidence = append(evidence, em.evidence)
				break
			}
		}
	}
	return evidence
}

// inferValidationLogic templates the declarative logic string: presence
// checks joined by AND, or manual review when no field could be mapped.
func inferValidationLogic(fields []string) string {
	if len(fields) == 0 {
		return "manual_review_required"
	}
	checks := make([]string, len(fields))
	for i, f := range fields {
		checks[i] = fmt.Sprintf("field_present('%s')", f)
	}
	return strings.Join(checks, " AND ")
}

func sideIn(sides []rule.ProductSide, s rule.ProductSide) bool {
	for _, v := range sides {
		if v == s {
			return true
		}
	}
	return false
}
