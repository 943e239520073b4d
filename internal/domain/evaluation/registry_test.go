package evaluation

import (
	"errors"
	"testing"

	"github.com/stabledocs/regula/internal/domain/rule/logic"
)

func TestRegistryResolvesEveryDeclaredPath(t *testing.T) {
	reg := DefaultRegistry()
	resolver := reg.Resolver(&ProjectContext{})

	for _, path := range reg.Paths() {
		if _, err := resolver.Resolve(path); err != nil {
			t.Errorf("declared path %q failed to resolve against an empty context: %v", path, err)
		}
	}
}

func TestRegistryUnknownPath(t *testing.T) {
	resolver := DefaultRegistry().Resolver(&ProjectContext{})
	_, err := resolver.Resolve("ds.no_such_field")
	var unknown *logic.UnknownPathError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownPathError, got %v", err)
	}
}

func TestPresenceVsCountSemantics(t *testing.T) {
	ctx := &ProjectContext{
		ProductType:  ProductDrugSubstance,
		RetestPeriod: "24 months",
		LotCount:     2,
	}
	ctx.DS.HasAcceleratedStudy = true
	resolver := DefaultRegistry().Resolver(ctx)

	cases := []struct {
		path string
		want bool
	}{
		{"ds.retest_period", true},
		{"ds.retest_period_justification", false},
		{"ds.study_accelerated", true},
		{"ds.study_long_term", false},
		{"ds.lot_information", true},
		{"studies.primary_initiated", true}, // product side is DS
		{"dp.study_accelerated", false},
		{"product.in_use_required", false}, // DS products never need in-use data
	}
	for _, tc := range cases {
		got, err := resolver.Resolve(tc.path)
		if err != nil {
			t.Errorf("Resolve(%q): %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Resolve(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestInUseCoveragePath(t *testing.T) {
	ctx := &ProjectContext{ProductType: ProductDrugProduct, RequiresReconstitution: true}
	resolver := DefaultRegistry().Resolver(ctx)

	if ok, _ := resolver.Resolve("dp.in_use_coverage"); ok {
		t.Error("no study and no justification: coverage should be absent")
	}

	ctx.InUseJustification = "Administered immediately after reconstitution."
	if ok, _ := resolver.Resolve("dp.in_use_coverage"); !ok {
		t.Error("a controlled justification counts as coverage")
	}
	if ok, _ := resolver.Resolve("dp.in_use_stability"); ok {
		t.Error("dp.in_use_stability is strict study presence and ignores justifications")
	}
}
