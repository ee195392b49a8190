// Package symtab holds the global symbol table and function table built by
// the declaration collector and consumed by the semantic analyzer and the
// evaluator.
package symtab

import (
	"github.com/nof-sh/minic/internal/ast"
	"github.com/nof-sh/minic/internal/value"
)

// Param is one (name, type) pair in a function's parameter list.
type Param struct {
	Name string
	Type value.Type
}

// Function is a function table entry: signature plus a reference to its
// body (never mutated after the declaration collector builds it).
type Function struct {
	Name       string
	Params     []Param
	ReturnType value.Type
	Body       *ast.Node
}

// Globals maps a global variable name to its declared type.
type Globals map[string]value.Type

// Functions maps a function name to its signature and body.
type Functions map[string]*Function
