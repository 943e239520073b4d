package evaluation

import (
	"sort"

	"github.com/stabledocs/regula/internal/domain/rule/logic"
)

// CheckKind distinguishes how a registry entry reads the context.
type CheckKind string

const (
	// KindPresence reads a value field: present iff non-empty.
	KindPresence CheckKind = "presence"
	// KindCount reads an existence/count fact: present iff the count is > 0.
	KindCount CheckKind = "count"
	// KindFlag reads a product characteristic boolean.
	KindFlag CheckKind = "flag"
)

// Entry is one field path the evaluator can resolve. The registry is the
// only coupling between extracted rule content and the context builder:
// adding a guideline-derived path means adding an entry here, not touching
// the evaluator.
type Entry struct {
	Path    string
	Kind    CheckKind
	Fact    string // human-readable description of the underlying fact
	Resolve func(*ProjectContext) bool
}

// Registry is the fixed path → resolver mapping. It is not user-editable.
type Registry struct {
	entries map[string]Entry
}

// Paths returns every registered path, sorted. The context builder uses this
// to prove it can answer everything the evaluator may ask.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.entries))
	for p := range r.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Lookup returns the entry for a path.
func (r *Registry) Lookup(path string) (Entry, bool) {
	e, ok := r.entries[path]
	return e, ok
}

// Resolver binds the registry to a context snapshot, producing the resolver
// the expression evaluator consumes. Unknown paths fail closed with an
// UnknownPathError.
func (r *Registry) Resolver(ctx *ProjectContext) logic.Resolver {
	return &contextResolver{reg: r, ctx: ctx}
}

type contextResolver struct {
	reg *Registry
	ctx *ProjectContext
}

func (cr *contextResolver) Resolve(path string) (bool, error) {
	e, ok := cr.reg.entries[path]
	if !ok {
		return false, &logic.UnknownPathError{Path: path}
	}
	return e.Resolve(cr.ctx), nil
}

func nonEmpty(s string) bool { return s != "" }

// DefaultRegistry builds the fixed field path registry.
func DefaultRegistry() *Registry {
	entries := []Entry{
		// Product characteristics.
		{Path: "product.requires_reconstitution", Kind: KindFlag, Fact: "product requires reconstitution/dilution/mixing",
			Resolve: func(c *ProjectContext) bool { return c.RequiresReconstitution }},
		{Path: "product.is_multi_dose", Kind: KindFlag, Fact: "product is dispensed multi-dose",
			Resolve: func(c *ProjectContext) bool { return c.IsMultiDose }},
		{Path: "product.in_use_required", Kind: KindFlag, Fact: "drug product needs in-use stability (reconstitution or multi-dose)",
			Resolve: func(c *ProjectContext) bool { return c.InUseRequired() }},
		{Path: "product.stability_commitment", Kind: KindPresence, Fact: "ongoing stability program commitment statement",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.StabilityCommitment) }},

		// Drug substance values.
		{Path: "ds.retest_period", Kind: KindPresence, Fact: "proposed retest period",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.RetestPeriod) }},
		{Path: "ds.retest_period_justification", Kind: KindPresence, Fact: "retest period justification",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.RetestPeriodJustification) }},
		{Path: "ds.storage_conditions", Kind: KindPresence, Fact: "proposed DS storage conditions",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.StorageConditions) }},
		{Path: "ds.stability_commitment", Kind: KindPresence, Fact: "stability commitment statement",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.StabilityCommitment) }},
		{Path: "ds.specification_reference", Kind: KindPresence, Fact: "DS specification reference",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.SpecificationReference) }},
		{Path: "ds.container_closure", Kind: KindPresence, Fact: "DS container closure description",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.ContainerClosure) }},

		// Drug substance study existence.
		{Path: "ds.study_accelerated", Kind: KindCount, Fact: "DS accelerated study exists",
			Resolve: func(c *ProjectContext) bool { return c.DS.HasAcceleratedStudy }},
		{Path: "ds.study_long_term", Kind: KindCount, Fact: "DS long-term study exists",
			Resolve: func(c *ProjectContext) bool { return c.DS.HasLongTermStudy }},
		{Path: "ds.study_photostability", Kind: KindCount, Fact: "DS photostability study exists",
			Resolve: func(c *ProjectContext) bool { return c.DS.HasPhotostabilityStudy }},
		{Path: "ds.study_stress", Kind: KindCount, Fact: "DS stress study exists",
			Resolve: func(c *ProjectContext) bool { return c.DS.HasStressStudy }},
		{Path: "ds.stability_table", Kind: KindCount, Fact: "DS tabulated stability results exist",
			Resolve: func(c *ProjectContext) bool { return c.DS.HasStabilityTable }},
		{Path: "ds.lot_information", Kind: KindCount, Fact: "at least one lot recorded",
			Resolve: func(c *ProjectContext) bool { return c.LotCount > 0 }},

		// Drug product values.
		{Path: "dp.shelf_life", Kind: KindPresence, Fact: "proposed shelf life",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.ShelfLife) }},
		{Path: "dp.shelf_life_justification", Kind: KindPresence, Fact: "shelf life justification",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.ShelfLifeJustification) }},
		{Path: "dp.storage_conditions", Kind: KindPresence, Fact: "proposed DP storage conditions",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.StorageConditions) }},
		{Path: "dp.stability_commitment", Kind: KindPresence, Fact: "stability commitment statement",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.StabilityCommitment) }},
		{Path: "dp.specification_reference", Kind: KindPresence, Fact: "DP specification reference",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.SpecificationReference) }},
		{Path: "dp.container_closure", Kind: KindPresence, Fact: "DP container closure description",
			Resolve: func(c *ProjectContext) bool { return nonEmpty(c.ContainerClosure) }},

		// Drug product study existence.
		{Path: "dp.study_accelerated", Kind: KindCount, Fact: "DP accelerated study exists",
			Resolve: func(c *ProjectContext) bool { return c.DP.HasAcceleratedStudy }},
		{Path: "dp.study_long_term", Kind: KindCount, Fact: "DP long-term study exists",
			Resolve: func(c *ProjectContext) bool { return c.DP.HasLongTermStudy }},
		{Path: "dp.study_photostability", Kind: KindCount, Fact: "DP photostability study exists",
			Resolve: func(c *ProjectContext) bool { return c.DP.HasPhotostabilityStudy }},
		{Path: "dp.study_stress", Kind: KindCount, Fact: "DP stress study exists",
			Resolve: func(c *ProjectContext) bool { return c.DP.HasStressStudy }},
		{Path: "dp.stability_table", Kind: KindCount, Fact: "DP tabulated stability results exist",
			Resolve: func(c *ProjectContext) bool { return c.DP.HasStabilityTable }},
		{Path: "dp.in_use_stability", Kind: KindCount, Fact: "in-use stability study exists",
			Resolve: func(c *ProjectContext) bool { return c.DP.HasInUseStudy }},
		{Path: "dp.in_use_coverage", Kind: KindCount, Fact: "in-use study exists or a controlled justification for its absence is recorded",
			Resolve: func(c *ProjectContext) bool { return c.DP.HasInUseStudy || nonEmpty(c.InUseJustification) }},
		{Path: "dp.lot_information", Kind: KindCount, Fact: "at least one lot recorded",
			Resolve: func(c *ProjectContext) bool { return c.LotCount > 0 }},

		// Product-side composites for built-in phase rules. The grammar has
		// no OR, so disjunctive facts get dedicated context keys.
		{Path: "studies.accelerated", Kind: KindCount, Fact: "accelerated study on the product's side",
			Resolve: func(c *ProjectContext) bool { return c.ProductSideFacts().HasAcceleratedStudy }},
		{Path: "studies.long_term", Kind: KindCount, Fact: "long-term study on the product's side",
			Resolve: func(c *ProjectContext) bool { return c.ProductSideFacts().HasLongTermStudy }},
		{Path: "studies.primary_initiated", Kind: KindCount, Fact: "accelerated or long-term study initiated on the product's side",
			Resolve: func(c *ProjectContext) bool {
				f := c.ProductSideFacts()
				return f.HasAcceleratedStudy || f.HasLongTermStudy
			}},
		{Path: "results.any", Kind: KindCount, Fact: "any tabulated result on the product's side",
			Resolve: func(c *ProjectContext) bool { return c.ProductSideFacts().HasResults }},
		{Path: "results.stability_table", Kind: KindCount, Fact: "stability results table on the product's side",
			Resolve: func(c *ProjectContext) bool { return c.ProductSideFacts().HasStabilityTable }},
	}

	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return &Registry{entries: m}
}
