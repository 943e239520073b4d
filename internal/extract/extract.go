// Package extract implements the allocation extraction pipeline: it turns
// guideline text into candidate RegulatoryRule records. The pipeline is
// heuristic and best-effort by design; everything it produces lands as
// pending_review and requires human confirmation before it can gate anything.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stabledocs/regula/internal/domain/pack"
	"github.com/stabledocs/regula/internal/domain/rule"
)

// Page is one page of extracted guideline text. Text extraction itself is a
// collaborator behind the textextract port.
type Page struct {
	Number int
	Text   string
}

// Section is a heading-delimited slice of the document.
type Section struct {
	HeadingNumber string
	Heading       string
	Page          int
	Text          string
}

// clause is a candidate obligation sentence with its detected attributes.
type clause struct {
	text           string
	level          rule.RequirementLevel
	appliesTo      []rule.ProductSide
	sectionHeading string
	page           int
}

// Result is the full output of one extraction run.
type Result struct {
	Metadata Metadata
	Rules    []rule.RegulatoryRule
	Glossary []pack.GlossaryEntry
}

// stabilityKeywords mark sections relevant to the stability obligations the
// engine enforces.
var stabilityKeywords = []string{
	"stability", "retest period", "retest date", "shelf life", "shelf-life",
	"storage condition", "accelerated", "long-term", "long term",
	"intermediate", "stress testing", "photostability",
	"in-use stability", "in use stability",
	"stability commitment", "ongoing stability",
	"stability protocol", "stability program",
	"bulk stability", "drug substance stability", "drug product stability",
	"3.2.s.7", "3.2.p.8", "s.7", "p.8",
}

var dsSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b3\.2\.S\.7\b`),
	regexp.MustCompile(`(?i)\b2\.2\.1\.S\.7\b`),
	regexp.MustCompile(`(?i)\bdrug\s+substance\s+stability\b`),
	regexp.MustCompile(`(?i)\bretest\s+period\b`),
}

var dpSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b3\.2\.P\.8\b`),
	regexp.MustCompile(`(?i)\b2\.2\.1\.P\.8\b`),
	regexp.MustCompile(`(?i)\bdrug\s+product\s+stability\b`),
	regexp.MustCompile(`(?i)\bshelf[\s-]?life\b`),
}

// Modal cue patterns in priority order: MUST beats SHOULD beats MAY when a
// clause carries more than one cue.
var mustPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmust\b`),
	regexp.MustCompile(`(?i)\bshall\b`),
	regexp.MustCompile(`(?i)\bis\s+required\b`),
	regexp.MustCompile(`(?i)\bare\s+required\b`),
	regexp.MustCompile(`(?i)\bmandatory\b`),
	regexp.MustCompile(`(?i)\bis\s+expected\s+to\b`),
}

var shouldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bshould\b`),
	regexp.MustCompile(`(?i)\bis\s+recommended\b`),
	regexp.MustCompile(`(?i)\bis\s+advisable\b`),
	regexp.MustCompile(`(?i)\bnormally\b`),
	regexp.MustCompile(`(?i)\bgenerally\b`),
}

var mayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmay\b`),
	regexp.MustCompile(`(?i)\bcan\b`),
	regexp.MustCompile(`(?i)\boptional\b`),
	regexp.MustCompile(`(?i)\bif\s+applicable\b`),
	regexp.MustCompile(`(?i)\bwhere\s+relevant\b`),
}

// headingPattern accepts plain numbering ("6", "2.2.1") and CTD-style
// numbering with section letters ("3.2.P.8", "2.2.1.S.7").
var headingPattern = regexp.MustCompile(`^(\d+(?:\.(?:\d+|[SPA]))*\.?)\s+(.+)$`)

var sentenceSplit = regexp.MustCompile(`(?:[.;])\s+`)

// Extractor runs the allocation extraction pipeline over pre-extracted pages.
type Extractor struct {
	SourceFileID string
	Checksum     string
}

// Extract runs all pipeline stages and returns candidate rules plus glossary
// and detected metadata.
func (e *Extractor) Extract(pages []Page) (*Result, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to extract from")
	}

	meta := detectMetadata(pages, e.SourceFileID, e.Checksum)
	sections := identifySections(pages)
	relevant := filterStabilitySections(sections)
	clauses := segmentClauses(relevant)
	rules := e.structureRules(clauses)
	glossary := extractGlossary(pages)

	return &Result{Metadata: meta, Rules: rules, Glossary: glossary}, nil
}

// identifySections splits pages into heading-delimited sections.
func identifySections(pages []Page) []Section {
	var sections []Section
	var current *Section

	for _, page := range pages {
		for _, line := range strings.Split(page.Text, "\n") {
			line = strings.TrimSpace(line)
			m := headingPattern.FindStringSubmatch(line)
			if m != nil && len(line) < 200 {
				if current != nil {
					sections = append(sections, *current)
				}
				current = &Section{
					HeadingNumber: m[1],
					Heading:       strings.TrimSpace(m[2]),
					Page:          page.Number,
				}
				continue
			}
			if current != nil {
				current.Text += line + "\n"
			}
		}
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}

// filterStabilitySections keeps only sections touching stability content.
func filterStabilitySections(sections []Section) []Section {
	var relevant []Section
	for _, s := range sections {
		combined := strings.ToLower(s.Heading + " " + s.Text)
		for _, kw := range stabilityKeywords {
			if strings.Contains(combined, kw) {
				relevant = append(relevant, s)
				break
			}
		}
	}
	return relevant
}

// segmentClauses splits sections into sentences and keeps those carrying a
// modal obligation cue.
func segmentClauses(sections []Section) []clause {
	var clauses []clause
	for _, s := range sections {
		for _, sentence := range sentenceSplit.Split(s.Text, -1) {
			sentence = strings.TrimSpace(sentence)
			if len(sentence) < 15 {
				continue
			}
			lower := strings.ToLower(sentence)
			if strings.HasPrefix(lower, "see ") || strings.HasPrefix(lower, "refer to ") || strings.HasPrefix(lower, "note:") {
				continue
			}
			level, ok := detectRequirementLevel(sentence)
			if !ok {
				continue
			}
			clauses = append(clauses, clause{
				text:           sentence,
				level:          level,
				appliesTo:      determineAppliesTo(sentence, s.Heading),
				sectionHeading: strings.TrimSpace(s.HeadingNumber + " " + s.Heading),
				page:           s.Page,
			})
		}
	}
	return clauses
}

// detectRequirementLevel classifies a clause's modal strength. Returns false
// when no obligation cue is present.
func detectRequirementLevel(text string) (rule.RequirementLevel, bool) {
	for _, p := range mustPatterns {
		if p.MatchString(text) {
			return rule.LevelMust, true
		}
	}
	for _, p := range shouldPatterns {
		if p.MatchString(text) {
			return rule.LevelShould, true
		}
	}
	for _, p := range mayPatterns {
		if p.MatchString(text) {
			return rule.LevelMay, true
		}
	}
	return "", false
}

// determineAppliesTo decides DS, DP, or both from clause and heading text.
// Ambiguous clauses default to both sides.
func determineAppliesTo(text, heading string) []rule.ProductSide {
	combined := strings.ToLower(text + " " + heading)
	var sides []rule.ProductSide
	for _, p := range dsSectionPatterns {
		if p.MatchString(combined) {
			sides = append(sides, rule.SideDS)
			break
		}
	}
	for _, p := range dpSectionPatterns {
		if p.MatchString(combined) {
			sides = append(sides, rule.SideDP)
			break
		}
	}
	if len(sides) == 0 {
		sides = []rule.ProductSide{rule.SideDS, rule.SideDP}
	}
	return sides
}

// excerpt truncates text to at most 25 words at a word boundary.
func excerpt(text string) string {
	words := strings.Fields(text)
	if len(words) <= 25 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:25], " ") + "..."
}
