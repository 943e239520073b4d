package logic

import "fmt"

// Outcome is the tri-state result of evaluating an expression.
type Outcome int

const (
	// Unsatisfied means the obligation is not met.
	Unsatisfied Outcome = iota
	// Satisfied means the obligation is met.
	Satisfied
	// Manual means the obligation cannot be checked mechanically and must be
	// surfaced for human review. Manual never blocks on its own.
	Manual
)

func (o Outcome) String() string {
	switch o {
	case Satisfied:
		return "satisfied"
	case Manual:
		return "manual"
	default:
		return "unsatisfied"
	}
}

// Resolver answers presence questions for field paths. Implementations must
// return an UnknownPathError for paths outside the registry so typos in
// extracted rules fail closed instead of silently passing.
type Resolver interface {
	Resolve(path string) (bool, error)
}

// UnknownPathError reports a field path the resolver does not know.
type UnknownPathError struct {
	Path string
}

func (e *UnknownPathError) Error() string {
	return fmt.Sprintf("unknown field path %q", e.Path)
}

// Eval interprets an expression against the resolver.
//
// AND short-circuits left-to-right. Manual is contagious: once any operand
// yields Manual the whole expression does. IF is vacuously satisfied when the
// condition does not hold. A resolver error aborts evaluation and is returned
// to the caller, which records the rule as FAIL with a diagnostic.
func Eval(expr Expr, r Resolver) (Outcome, error) {
	switch e := expr.(type) {
	case FieldPresent:
		present, err := r.Resolve(e.Path)
		if err != nil {
			return Unsatisfied, err
		}
		if present {
			return Satisfied, nil
		}
		return Unsatisfied, nil
	case And:
		left, err := Eval(e.Left, r)
		if err != nil {
			return Unsatisfied, err
		}
		if left == Manual {
			return Manual, nil
		}
		if left == Unsatisfied {
			return Unsatisfied, nil
		}
		return Eval(e.Right, r)
	case If:
		cond, err := Eval(e.Cond, r)
		if err != nil {
			return Unsatisfied, err
		}
		if cond == Manual {
			return Manual, nil
		}
		if cond == Unsatisfied {
			return Satisfied, nil
		}
		return Eval(e.Then, r)
	case ManualReview:
		return Manual, nil
	default:
		return Unsatisfied, fmt.Errorf("unsupported expression node %T", expr)
	}
}

// Fields returns every field path referenced by the expression, in source
// order with duplicates preserved.
func Fields(expr Expr) []string {
	switch e := expr.(type) {
	case FieldPresent:
		return []string{e.Path}
	case And:
		return append(Fields(e.Left), Fields(e.Right)...)
	case If:
		return append(Fields(e.Cond), Fields(e.Then)...)
	default:
		return nil
	}
}
