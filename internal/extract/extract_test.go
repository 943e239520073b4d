package extract

import (
	"strings"
	"testing"

	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/domain/rule/logic"
)

var samplePages = []Page{
	{
		Number: 1,
		Text: "Guideline on the requirements to the chemical and pharmaceutical quality documentation\n" +
			"European Medicines Agency\n" +
			"EMA/CHMP/545489/2015\n" +
			"Revision 2\n" +
			"15 February 2022\n",
	},
	{
		Number: 4,
		Text: "2.2.1.S.7 Stability\n" +
			"A retest period must be defined for the drug substance and supported by stability data. " +
			"Results from accelerated and long-term studies should be presented in tabulated form. " +
			"Photostability testing may be performed where relevant.\n" +
			"2.2.1.P.8 Stability\n" +
			"The shelf life of the drug product must be stated together with the storage conditions. " +
			"In-use stability data should be provided for multi-dose containers after first opening.\n",
	},
	{
		Number: 9,
		Text: "6 Definitions\n" +
			"'Retest period' is defined as the period of time during which the drug substance " +
			"remains within its specification and can be used without retesting.\n",
	},
}

func TestExtractEndToEnd(t *testing.T) {
	e := &Extractor{SourceFileID: "file-1", Checksum: "abc123"}
	res, err := e.Extract(samplePages)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if res.Metadata.Agency != "EMA" {
		t.Errorf("agency = %q, want EMA", res.Metadata.Agency)
	}
	if res.Metadata.DocumentID != "EMA/CHMP/545489/2015" {
		t.Errorf("document id = %q", res.Metadata.DocumentID)
	}
	if res.Metadata.Version != "Revision 2" {
		t.Errorf("version = %q", res.Metadata.Version)
	}
	if res.Metadata.Checksum != "abc123" || res.Metadata.SourceFileID != "file-1" {
		t.Errorf("provenance not carried: %+v", res.Metadata)
	}

	if len(res.Rules) == 0 {
		t.Fatal("no rules extracted")
	}
	for _, r := range res.Rules {
		if r.Status != rule.StatusPendingReview {
			t.Errorf("%s: status = %q, want pending_review", r.RuleIDCode, r.Status)
		}
		if r.Source != rule.SourceGuideline {
			t.Errorf("%s: source = %q", r.RuleIDCode, r.Source)
		}
		if r.Confidence != extractionConfidence {
			t.Errorf("%s: confidence = %v", r.RuleIDCode, r.Confidence)
		}
		if r.Traceability.SourceFileID != "file-1" || r.Traceability.Page == 0 {
			t.Errorf("%s: traceability incomplete: %+v", r.RuleIDCode, r.Traceability)
		}
		if _, err := logic.Parse(r.ValidationLogic); err != nil {
			t.Errorf("%s: generated logic does not parse: %v", r.RuleIDCode, err)
		}
	}

	found := false
	for _, g := range res.Glossary {
		if strings.EqualFold(g.Term, "retest period") {
			found = true
			if g.SourcePage == 0 || g.Definition == "" {
				t.Errorf("glossary entry incomplete: %+v", g)
			}
		}
	}
	if !found {
		t.Error("glossary missing 'retest period'")
	}
}

func TestExtractNoPages(t *testing.T) {
	e := &Extractor{}
	if _, err := e.Extract(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDetectRequirementLevelPriority(t *testing.T) {
	cases := []struct {
		text  string
		want  rule.RequirementLevel
		found bool
	}{
		{"A retest period must be defined.", rule.LevelMust, true},
		{"Data should be presented in tabular form.", rule.LevelShould, true},
		{"Bracketing may be applied.", rule.LevelMay, true},
		// MUST wins over SHOULD, SHOULD wins over MAY.
		{"Data must be provided and should be tabulated.", rule.LevelMust, true},
		{"Studies should be performed and may be bracketed.", rule.LevelShould, true},
		{"The stability of the product.", "", false},
	}
	for _, c := range cases {
		got, ok := detectRequirementLevel(c.text)
		if ok != c.found || got != c.want {
			t.Errorf("detectRequirementLevel(%q) = %q, %v; want %q, %v", c.text, got, ok, c.want, c.found)
		}
	}
}

func TestDetermineAppliesTo(t *testing.T) {
	cases := []struct {
		text    string
		heading string
		want    []rule.ProductSide
	}{
		{"A retest period must be defined.", "3.2.S.7 Stability", []rule.ProductSide{rule.SideDS}},
		{"The shelf life must be stated.", "3.2.P.8 Stability", []rule.ProductSide{rule.SideDP}},
		{"Stability data must be provided.", "Stability", []rule.ProductSide{rule.SideDS, rule.SideDP}},
	}
	for _, c := range cases {
		got := determineAppliesTo(c.text, c.heading)
		if len(got) != len(c.want) {
			t.Errorf("determineAppliesTo(%q, %q) = %v, want %v", c.text, c.heading, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("determineAppliesTo(%q, %q) = %v, want %v", c.text, c.heading, got, c.want)
			}
		}
	}
}

func TestInferFieldsScopeExpansion(t *testing.T) {
	fields := inferFields("Storage conditions must be stated.", []rule.ProductSide{rule.SideDS, rule.SideDP})
	want := []string{"dp.storage_conditions", "ds.storage_conditions"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("fields = %v, want %v", fields, want)
		}
	}
}

func TestInferValidationLogic(t *testing.T) {
	if got := inferValidationLogic(nil); got != "manual_review_required" {
		t.Errorf("empty fields: got %q", got)
	}
	got := inferValidationLogic([]string{"ds.retest_period", "ds.study_long_term"})
	want := "field_present('ds.retest_period') AND field_present('ds.study_long_term')"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStructureRulesCodesAndSeverity(t *testing.T) {
	e := &Extractor{SourceFileID: "f"}
	clauses := []clause{
		{text: "A retest period must be defined.", level: rule.LevelMust, appliesTo: []rule.ProductSide{rule.SideDS}, page: 4},
		{text: "Shelf life should be justified.", level: rule.LevelShould, appliesTo: []rule.ProductSide{rule.SideDP}, page: 5},
		{text: "Stability data must be provided.", level: rule.LevelMust, appliesTo: []rule.ProductSide{rule.SideDS, rule.SideDP}, page: 6},
	}
	rules := e.structureRules(clauses)
	if len(rules) != 3 {
		t.Fatalf("got %d rules", len(rules))
	}
	if rules[0].RuleIDCode != "EMA-IMPD-S7-001" || rules[0].ValidationSeverity != rule.SeverityBlock {
		t.Errorf("rule 0: %s %s", rules[0].RuleIDCode, rules[0].ValidationSeverity)
	}
	if rules[1].RuleIDCode != "EMA-IMPD-P8-001" || rules[1].ValidationSeverity != rule.SeverityWarn {
		t.Errorf("rule 1: %s %s", rules[1].RuleIDCode, rules[1].ValidationSeverity)
	}
	if rules[2].RuleIDCode != "EMA-IMPD-GEN-001" {
		t.Errorf("rule 2: %s", rules[2].RuleIDCode)
	}
	if len(rules[2].MappedAppSections) != 4 {
		t.Errorf("both-sides rule sections = %v", rules[2].MappedAppSections)
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := excerpt(long)
	if len(strings.Fields(got)) != 25 || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt = %q", got)
	}
	short := "only a few words"
	if excerpt(short) != short {
		t.Errorf("short excerpt changed: %q", excerpt(short))
	}
}
