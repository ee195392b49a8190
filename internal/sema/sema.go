// Package sema implements MiniC's semantic analyzer: a static type checker
// and scope resolver that walks the AST once the parser has produced it and
// the declaration collector has built the symbol and function tables
// (spec.md §4.3). It never mutates the AST; it only appends to the shared
// diagnostics bag.
package sema

import (
	"github.com/nof-sh/minic/internal/ast"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/symtab"
	"github.com/nof-sh/minic/internal/value"
)

// scope resolves an identifier's declared type: the current function's
// local scope (params plus hoisted VarDecls) first, then the globals.
type scope struct {
	locals  map[string]value.Type
	globals symtab.Globals
}

func (s *scope) lookup(name string) (value.Type, bool) {
	if t, ok := s.locals[name]; ok {
		return t, true
	}
	t, ok := s.globals[name]
	return t, ok
}

type analyzer struct {
	diags     *diag.Bag
	functions symtab.Functions
	globals   symtab.Globals
}

// Analyze walks program's top-level children: VarDecls are checked against
// their declared type, FunctionDecls get their own local scope and body walk,
// and every other top-level statement is checked in one shared top-level
// scope that resolves names against the globals.
func Analyze(program *ast.Node, globals symtab.Globals, functions symtab.Functions, diags *diag.Bag) {
	a := &analyzer{diags: diags, functions: functions, globals: globals}
	top := &scope{locals: map[string]value.Type{}, globals: globals}
	for _, n := range program.Children {
		switch n.Kind {
		case ast.VarDecl:
			a.checkGlobalVarDecl(n)
		case ast.FunctionDecl:
			a.checkFunction(n)
		default:
			a.checkStatement(n, top, "", value.None, false)
		}
	}
}

func (a *analyzer) checkGlobalVarDecl(n *ast.Node) {
	declared := value.TypeFromName(n.Children[0].TypeName)
	if len(n.Children) < 2 {
		return
	}
	sc := &scope{globals: a.globals}
	initType := a.typeOf(n.Children[1], sc)
	if initType != value.None && !compatible(declared, initType) {
		a.diags.Errorf("Type mismatch in initializer for '%s'", n.Value)
	}
}

// checkFunction seeds a local scope from the signature's parameters, then
// hoists every VarDecl appearing directly at the body's top level — visible
// throughout the function regardless of its textual position — before
// walking the body statement by statement.
func (a *analyzer) checkFunction(n *ast.Node) {
	paramsNode, returnTag, body := n.Children[0], n.Children[1], n.Children[2]
	returnType := value.TypeFromName(returnTag.TypeName)

	locals := map[string]value.Type{}
	seenParams := map[string]bool{}
	for _, p := range paramsNode.Children {
		if seenParams[p.Value] {
			a.diags.Errorf("Duplicate parameter name '%s' in function '%s'", p.Value, n.Value)
		}
		seenParams[p.Value] = true
		locals[p.Value] = value.TypeFromName(p.Children[0].TypeName)
	}

	for _, stmt := range body.Children {
		if stmt.Kind != ast.VarDecl {
			continue
		}
		if _, exists := locals[stmt.Value]; exists {
			a.diags.Warnf("Redeclared variable '%s' in function '%s'", stmt.Value, n.Value)
		}
		locals[stmt.Value] = value.TypeFromName(stmt.Children[0].TypeName)
	}

	sc := &scope{locals: locals, globals: a.globals}
	for _, stmt := range body.Children {
		a.checkStatement(stmt, sc, n.Value, returnType, true)
	}
}

// checkStatement type-checks one statement. topLevel is true only for a
// function body's direct children: those VarDecls were already hoisted by
// checkFunction, so checkStatement only verifies their initializer here and
// does not re-run redeclaration detection. A VarDecl reached through a
// nested block (If/While/For/Block) is a fresh declaration into the same
// flat function scope (spec.md §5: one frame per call), so a name collision
// there is the general "duplicate declaration in the same scope" error.
func (a *analyzer) checkStatement(n *ast.Node, sc *scope, fnName string, returnType value.Type, topLevel bool) {
	switch n.Kind {
	case ast.VarDecl:
		declared := value.TypeFromName(n.Children[0].TypeName)
		if !topLevel {
			if _, exists := sc.locals[n.Value]; exists {
				a.diags.Errorf("Duplicate declaration of variable '%s'", n.Value)
			}
			sc.locals[n.Value] = declared
		}
		if len(n.Children) > 1 {
			initType := a.typeOf(n.Children[1], sc)
			if initType != value.None && !compatible(declared, initType) {
				a.diags.Errorf("Type mismatch in initializer for '%s'", n.Value)
			}
		}
	case ast.If:
		a.typeOf(n.Children[0], sc)
		a.checkStatement(n.Children[1], sc, fnName, returnType, false)
		if len(n.Children) > 2 {
			a.checkStatement(n.Children[2], sc, fnName, returnType, false)
		}
	case ast.While:
		a.typeOf(n.Children[0], sc)
		a.checkStatement(n.Children[1], sc, fnName, returnType, false)
	case ast.For:
		a.checkFor(n, sc, fnName, returnType)
	case ast.Return:
		a.checkReturn(n, sc, fnName, returnType)
	case ast.Print:
		if len(n.Children) > 0 {
			a.typeOf(n.Children[0], sc)
		}
	case ast.Block:
		for _, stmt := range n.Children {
			a.checkStatement(stmt, sc, fnName, returnType, false)
		}
	default:
		// Assign and bare expression statements both fall through to the
		// expression typing rules; the result type is discarded.
		a.typeOf(n, sc)
	}
}

func (a *analyzer) checkFor(n *ast.Node, sc *scope, fnName string, returnType value.Type) {
	clauses := n.ForClauses
	children := n.Children
	i := 0
	if clauses.HasInit {
		a.checkStatement(children[i], sc, fnName, returnType, false)
		i++
	}
	if clauses.HasCond {
		a.typeOf(children[i], sc)
		i++
	}
	if clauses.HasPost {
		a.typeOf(children[i], sc)
		i++
	}
	a.checkStatement(children[len(children)-1], sc, fnName, returnType, false)
}

// checkReturn enforces spec.md §4.3: a return without an expression is
// always an error because the grammar requires every function to declare a
// non-none return type.
func (a *analyzer) checkReturn(n *ast.Node, sc *scope, fnName string, returnType value.Type) {
	if len(n.Children) == 0 {
		a.diags.Errorf("Missing return value in function '%s'", fnName)
		return
	}
	t := a.typeOf(n.Children[0], sc)
	if t != value.None && !compatible(returnType, t) {
		a.diags.Errorf("Return type mismatch in function '%s'", fnName)
	}
}

// typeOf computes an expression's static type, emitting diagnostics along
// the way. value.None in the result always means "an error was already
// reported for this subexpression" — callers skip further compatibility
// checks rather than report a cascade.
func (a *analyzer) typeOf(n *ast.Node, sc *scope) value.Type {
	switch n.Kind {
	case ast.Literal:
		return literalType(n.Value)
	case ast.Identifier:
		if t, ok := sc.lookup(n.Value); ok {
			return t
		}
		a.diags.Errorf("Undefined identifier '%s'", n.Value)
		return value.None
	case ast.Call:
		return a.typeOfCall(n, sc)
	case ast.Assign:
		return a.typeOfAssign(n, sc)
	case ast.BinaryOp:
		return a.typeOfBinary(n, sc)
	case ast.UnaryOp:
		return a.typeOfUnary(n, sc)
	default:
		return value.None
	}
}

func literalType(text string) value.Type {
	switch text {
	case "true", "false":
		return value.Bool
	}
	for _, r := range text {
		if r == '.' {
			return value.Float
		}
	}
	return value.Int
}

func (a *analyzer) typeOfCall(n *ast.Node, sc *scope) value.Type {
	if n.Value == "print" {
		for _, arg := range n.Children {
			a.typeOf(arg, sc)
		}
		return value.None
	}

	fn, ok := a.functions[n.Value]
	if !ok {
		a.diags.Errorf("Undefined function '%s'", n.Value)
		for _, arg := range n.Children {
			a.typeOf(arg, sc)
		}
		return value.None
	}

	argTypes := make([]value.Type, len(n.Children))
	for i, arg := range n.Children {
		argTypes[i] = a.typeOf(arg, sc)
	}
	if len(argTypes) != len(fn.Params) {
		a.diags.Errorf("Function '%s' expects %d argument(s), got %d", n.Value, len(fn.Params), len(argTypes))
	}

	bound := min(len(argTypes), len(fn.Params))
	for i := 0; i < bound; i++ {
		if argTypes[i] != value.None && !compatible(fn.Params[i].Type, argTypes[i]) {
			a.diags.Errorf("Type mismatch in argument %d of call to '%s'", i+1, n.Value)
		}
	}
	return fn.ReturnType
}

func (a *analyzer) typeOfAssign(n *ast.Node, sc *scope) value.Type {
	rhsType := a.typeOf(n.Children[0], sc)
	targetType, ok := sc.lookup(n.Value)
	if !ok {
		a.diags.Errorf("Assignment to undeclared variable '%s'", n.Value)
		return value.None
	}
	if rhsType != value.None && !compatible(targetType, rhsType) {
		a.diags.Errorf("Type mismatch in assignment to '%s'", n.Value)
	}
	return targetType
}

func (a *analyzer) typeOfBinary(n *ast.Node, sc *scope) value.Type {
	op := n.Value
	lhs := a.typeOf(n.Children[0], sc)
	rhs := a.typeOf(n.Children[1], sc)
	if lhs == value.None || rhs == value.None {
		return value.None
	}

	switch op {
	case "+", "-", "*", "/":
		if lhs == value.Bool || rhs == value.Bool {
			a.diags.Errorf("Invalid operand type for operator '%s'", op)
			return value.Int
		}
		if lhs == value.Float || rhs == value.Float {
			return value.Float
		}
		return value.Int
	case "<", ">", "<=", ">=":
		if lhs == value.Bool || rhs == value.Bool {
			a.diags.Errorf("Invalid operand type for operator '%s'", op)
		}
		return value.Bool
	case "==", "!=":
		if (lhs == value.Bool) != (rhs == value.Bool) {
			a.diags.Warnf("Comparing bool and numeric operand with '%s'", op)
		}
		return value.Bool
	default: // "&&", "||"
		return value.Bool
	}
}

func (a *analyzer) typeOfUnary(n *ast.Node, sc *scope) value.Type {
	operand := a.typeOf(n.Children[0], sc)
	if n.Value == "!" {
		return value.Bool
	}
	if operand == value.None {
		return value.None
	}
	if operand == value.Bool {
		a.diags.Errorf("Invalid operand type for operator '-'")
		return value.Int
	}
	return operand
}

// compatible reports whether a value of type actual may be used where
// expected is required: exact match, or int widened to float. none is
// never compatible with anything (spec.md §4.3).
func compatible(expected, actual value.Type) bool {
	if expected == actual {
		return true
	}
	return expected == value.Float && actual == value.Int
}
