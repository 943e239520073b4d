// Package logic implements the declarative validation-logic mini-language
// carried by RegulatoryRule records. Expressions are parsed into a small AST
// and interpreted against a fact resolver; logic strings are data, never code.
//
// Grammar (case-sensitive keywords):
//
//	expr    := primary (AND primary)*
//	primary := 'field_present(' STRING ')'
//	         | 'IF' expr 'THEN' expr
//	         | 'manual_review_required'
//
// The grammar has no OR and no NOT. Obligations of the form "A or B present"
// cannot be expressed in v1; they land as manual_review_required instead.
package logic

import "fmt"

// Expr is a node in the validation-logic AST.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// FieldPresent checks that a field path resolves to a present fact.
type FieldPresent struct {
	Path string
}

// And is short-circuiting left-to-right conjunction.
type And struct {
	Left  Expr
	Right Expr
}

// If models a conditional obligation: vacuously satisfied when Cond does not
// hold, otherwise satisfied iff Then holds.
type If struct {
	Cond Expr
	Then Expr
}

// ManualReview always yields the Manual outcome; it marks obligations the
// engine cannot check mechanically.
type ManualReview struct{}

func (FieldPresent) isExpr() {}
func (And) isExpr()          {}
func (If) isExpr()           {}
func (ManualReview) isExpr() {}

func (f FieldPresent) String() string { return fmt.Sprintf("field_present('%s')", f.Path) }
func (a And) String() string          { return fmt.Sprintf("%s AND %s", a.Left, a.Right) }
func (i If) String() string           { return fmt.Sprintf("IF %s THEN %s", i.Cond, i.Then) }
func (ManualReview) String() string   { return "manual_review_required" }
