// Package decl implements MiniC's declaration collector: one linear pass
// over a Program's top-level children, in source order, that builds the
// global symbol table and the function table before the semantic analyzer
// ever runs (spec.md §4.4). A global initializer is evaluated the moment
// its VarDecl is reached, against whatever functions and globals earlier
// children in the same pass have already registered — a function declared
// later in the source is not yet visible to an initializer that precedes it.
package decl

import (
	"github.com/rs/zerolog"

	"github.com/nof-sh/minic/internal/ast"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/eval"
	"github.com/nof-sh/minic/internal/symtab"
	"github.com/nof-sh/minic/internal/value"
)

// Result is the output of Collect: the populated tables plus the evaluator
// State the collector used to eagerly evaluate global initializers. The
// evaluator reuses this same State for the top-level run, whose in-order
// pass over the program evaluates each top-level VarDecl's initializer
// again and overwrites the value stored here.
type Result struct {
	Globals   symtab.Globals
	Functions symtab.Functions
	State     *eval.State
}

// Collect walks program.Children once in source order. For each
// FunctionDecl it records the signature and body reference, overwriting
// any earlier entry of the same name (spec.md §9 open question 2: last
// definition wins, but the redeclaration itself is still an error). For
// each top-level VarDecl it records the declared type, installs the
// default value, and evaluates any initializer immediately against the
// globals collected so far (spec.md §9 open question 3: last declared
// type wins, every redeclaration appends a warning).
func Collect(program *ast.Node, diags *diag.Bag, maxCallDepth int, log zerolog.Logger) Result {
	functions := symtab.Functions{}
	globals := symtab.Globals{}

	// state.Functions aliases the same map as the local functions variable,
	// so a FunctionDecl registered partway through the loop below is visible
	// to state.EvalExpr calls made later in the same loop, not before.
	state := eval.NewState(functions, diags, maxCallDepth, log)

	for _, n := range program.Children {
		switch n.Kind {
		case ast.FunctionDecl:
			if _, exists := functions[n.Value]; exists {
				diags.Errorf("Function '%s' already declared", n.Value)
			}
			functions[n.Value] = buildFunction(n)

		case ast.VarDecl:
			if _, exists := globals[n.Value]; exists {
				diags.Warnf("Redeclared global variable '%s'", n.Value)
			}

			typeTag := n.Children[0]
			declared := value.TypeFromName(typeTag.TypeName)
			globals[n.Value] = declared

			val := value.Default(declared)
			if len(n.Children) > 1 {
				val = state.EvalExpr(n.Children[1])
			}
			state.Globals[n.Value] = val
		}
	}

	return Result{Globals: globals, Functions: functions, State: state}
}

// buildFunction reads a FunctionDecl's [Params, ReturnTypeTag, Block]
// children into a symtab.Function signature.
func buildFunction(n *ast.Node) *symtab.Function {
	paramsNode, returnTag, body := n.Children[0], n.Children[1], n.Children[2]

	params := make([]symtab.Param, 0, len(paramsNode.Children))
	for _, p := range paramsNode.Children {
		params = append(params, symtab.Param{
			Name: p.Value,
			Type: value.TypeFromName(p.Children[0].TypeName),
		})
	}

	return &symtab.Function{
		Name:       n.Value,
		Params:     params,
		ReturnType: value.TypeFromName(returnTag.TypeName),
		Body:       body,
	}
}
