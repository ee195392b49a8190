// Package eval implements MiniC's tree-walking evaluator: a call-stack of
// frames, type-promotion rules, and short-circuit semantics.
//
// Grounded on the teacher's statement/expression dispatch switches
// (cpq/cpl_pars.go CodegenStatement/CodegenExpression/
// CodegenBooleanExpression): the same shape of "one switch per AST
// category" is kept, retargeted from "emit a quad instruction string" to
// "compute and return a runtime value.Value". The teacher's breakStack (for
// `break` inside while/switch) has no MiniC counterpart — SPEC_FULL.md §11
// keeps switch/break out of the grammar — and is replaced by the
// has_return/return_value pair spec.md §5 specifies for return propagation.
package eval

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nof-sh/minic/internal/ast"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/symtab"
	"github.com/nof-sh/minic/internal/value"
)

// State is the evaluator's single mutable home: globals, the call stack,
// the captured output buffer, and the return-signal pair. Only one control
// path mutates it at a time (spec.md §5).
type State struct {
	Globals      map[string]value.Value
	Functions    symtab.Functions
	Frames       []map[string]value.Value
	Output       strings.Builder
	Diags        *diag.Bag
	HasReturn    bool
	ReturnValue  value.Value
	MaxCallDepth int
	Log          zerolog.Logger
}

// NewState returns an evaluator State with empty globals, ready for the
// declaration collector to populate.
func NewState(functions symtab.Functions, diags *diag.Bag, maxCallDepth int, log zerolog.Logger) *State {
	return &State{
		Globals:      map[string]value.Value{},
		Functions:    functions,
		Diags:        diags,
		MaxCallDepth: maxCallDepth,
		Log:          log,
	}
}

// EvalExpr evaluates a standalone expression against the current state. The
// declaration collector uses this to eagerly evaluate global initializers
// (spec.md §4.4) before the evaluator's own top-level loop ever runs.
func (s *State) EvalExpr(n *ast.Node) value.Value {
	return s.evalExpr(n)
}

func (s *State) currentFrame() map[string]value.Value {
	if len(s.Frames) == 0 {
		return nil
	}
	return s.Frames[len(s.Frames)-1]
}

// Run executes a Program's top-level, non-function statements in source
// order, halting after the first statement in which any evaluator error
// was recorded (spec.md §4.4, §7).
func Run(program *ast.Node, s *State) {
	for _, stmt := range program.Children {
		if stmt.Kind == ast.FunctionDecl {
			continue
		}
		errsBefore := len(s.Diags.Errors)
		s.execTopLevel(stmt)
		if len(s.Diags.Errors) > errsBefore {
			return
		}
	}
}

func (s *State) execTopLevel(stmt *ast.Node) {
	if stmt.Kind == ast.VarDecl {
		s.execGlobalVarDecl(stmt)
		return
	}
	s.execStatement(stmt)
}

func (s *State) execGlobalVarDecl(n *ast.Node) {
	typeTag := n.Children[0]
	declared := value.TypeFromName(typeTag.TypeName)
	val := value.Default(declared)
	if len(n.Children) > 1 {
		val = s.evalExpr(n.Children[1])
	}
	s.Globals[n.Value] = val
}

// execStatement executes one statement node. It never returns a value;
// control transfer out of a function is carried entirely by
// s.HasReturn/s.ReturnValue.
func (s *State) execStatement(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.VarDecl:
		s.execLocalVarDecl(n)
	case ast.If:
		s.execIf(n)
	case ast.While:
		s.execWhile(n)
	case ast.For:
		s.execFor(n)
	case ast.Return:
		s.execReturn(n)
	case ast.Print:
		s.execPrint(n)
	case ast.Block:
		s.execBlock(n)
	default:
		// Assign statement and bare expression statements both fall
		// through to the expression machinery; the result is discarded.
		s.evalExpr(n)
	}
}

func (s *State) execLocalVarDecl(n *ast.Node) {
	typeTag := n.Children[0]
	declared := value.TypeFromName(typeTag.TypeName)
	val := value.Default(declared)
	if len(n.Children) > 1 {
		val = s.evalExpr(n.Children[1])
	}
	if frame := s.currentFrame(); frame != nil {
		frame[n.Value] = val
	} else {
		s.Globals[n.Value] = val
	}
}

func (s *State) execIf(n *ast.Node) {
	cond := s.evalExpr(n.Children[0])
	if cond.Truthy() {
		s.execStatement(n.Children[1])
		return
	}
	if len(n.Children) > 2 {
		s.execStatement(n.Children[2])
	}
}

func (s *State) execWhile(n *ast.Node) {
	cond, body := n.Children[0], n.Children[1]
	for s.evalExpr(cond).Truthy() {
		s.execStatement(body)
		if s.HasReturn {
			return
		}
	}
}

// execFor unpacks the header clauses per the For invariant in spec.md §3:
// the body is always the last child; any of init/cond/post may be absent.
// Which surviving children are init/cond/post is not recoverable from count
// alone (e.g. a lone child could be any of the three), so the parser tags
// the node with ForClauses while it still has unambiguous knowledge of what
// it parsed; execFor just reads that tag back.
func (s *State) execFor(n *ast.Node) {
	children := n.Children
	body := children[len(children)-1]
	header := children[:len(children)-1]
	clauses := n.ForClauses

	var init, cond, post *ast.Node
	i := 0
	if clauses.HasInit {
		init = header[i]
		i++
	}
	if clauses.HasCond {
		cond = header[i]
		i++
	}
	if clauses.HasPost {
		post = header[i]
		i++
	}

	if init != nil {
		s.execStatement(init)
	}
	for cond == nil || s.evalExpr(cond).Truthy() {
		s.execStatement(body)
		if s.HasReturn {
			return
		}
		if post != nil {
			s.evalExpr(post)
		}
		if cond == nil {
			// No condition means an infinite loop guarded only by a
			// return or (outside this evaluator's purview) a crash; this
			// mirrors the grammar's permissive empty-clause rule.
			continue
		}
	}
}

func (s *State) execReturn(n *ast.Node) {
	if len(n.Children) > 0 {
		s.ReturnValue = s.evalExpr(n.Children[0])
	} else {
		s.ReturnValue = value.NoneValue
	}
	s.HasReturn = true
}

// execPrint evaluates its argument and appends its textual form followed by
// a newline to the captured output — unless evaluating the argument itself
// recorded a new error, in which case nothing is appended (spec.md §8 S4:
// "the failing print does not emit").
func (s *State) execPrint(n *ast.Node) {
	if len(n.Children) == 0 {
		s.Output.WriteString("\n")
		return
	}
	errsBefore := len(s.Diags.Errors)
	val := s.evalExpr(n.Children[0])
	if len(s.Diags.Errors) > errsBefore {
		return
	}
	s.Output.WriteString(val.Text())
	s.Output.WriteString("\n")
}

func (s *State) execBlock(n *ast.Node) {
	for _, stmt := range n.Children {
		s.execStatement(stmt)
		if s.HasReturn {
			return
		}
	}
}

// evalExpr evaluates an expression node and returns its runtime value. On
// any error it records the diagnostic and returns a best-effort default
// value so the enclosing node can keep evaluating (spec.md §7).
func (s *State) evalExpr(n *ast.Node) value.Value {
	if n == nil {
		return value.NoneValue
	}
	switch n.Kind {
	case ast.Literal:
		return s.evalLiteral(n)
	case ast.Identifier:
		return s.evalIdentifier(n)
	case ast.Assign:
		return s.evalAssign(n)
	case ast.Call:
		return s.evalCall(n)
	case ast.BinaryOp:
		return s.evalBinaryOp(n)
	case ast.UnaryOp:
		return s.evalUnaryOp(n)
	default:
		return value.NoneValue
	}
}

func (s *State) evalLiteral(n *ast.Node) value.Value {
	switch n.Value {
	case "true":
		return value.Value{Type: value.Bool, Bool: true}
	case "false":
		return value.Value{Type: value.Bool, Bool: false}
	}
	if strings.Contains(n.Value, ".") {
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			f = 0.0
		}
		return value.Value{Type: value.Float, Float: f}
	}
	i, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		i = 0
	}
	return value.Value{Type: value.Int, Int: i}
}

// evalIdentifier searches the call stack from innermost frame outward, then
// globals, per spec.md §4.4 — a flat dynamic-scope lookup across every
// active frame, not just the current function's own frame.
func (s *State) evalIdentifier(n *ast.Node) value.Value {
	for i := len(s.Frames) - 1; i >= 0; i-- {
		if v, ok := s.Frames[i][n.Value]; ok {
			return v
		}
	}
	if v, ok := s.Globals[n.Value]; ok {
		return v
	}
	s.Diags.Errorf("Undefined variable: %s", n.Value)
	return value.Value{Type: value.Int, Int: 0}
}

// evalAssign implements spec.md §4.4's Assign rule: update the innermost
// frame if bound there, else the global if it exists, else create a new
// global with a warning.
func (s *State) evalAssign(n *ast.Node) value.Value {
	val := s.evalExpr(n.Children[0])
	if frame := s.currentFrame(); frame != nil {
		if _, ok := frame[n.Value]; ok {
			frame[n.Value] = val
			return val
		}
	}
	if _, ok := s.Globals[n.Value]; ok {
		s.Globals[n.Value] = val
		return val
	}
	s.Diags.Warnf("Implicit global creation of %s", n.Value)
	s.Globals[n.Value] = val
	return val
}

func (s *State) evalCall(n *ast.Node) value.Value {
	if n.Value == "print" {
		return s.evalPrintCall(n)
	}

	fn, ok := s.Functions[n.Value]
	if !ok {
		s.Diags.Errorf("Undefined function '%s'", n.Value)
		return value.NoneValue
	}

	args := make([]value.Value, len(n.Children))
	for i, argNode := range n.Children {
		args[i] = s.evalExpr(argNode)
	}
	if len(args) != len(fn.Params) {
		s.Diags.Errorf("Function '%s' expects %d argument(s), got %d", n.Value, len(fn.Params), len(args))
	}

	if len(s.Frames) >= s.MaxCallDepth {
		s.Log.Warn().Str("function", n.Value).Int("depth", len(s.Frames)).Msg("call stack depth exceeded")
		s.Diags.Errorf("Call stack depth exceeded calling '%s'", n.Value)
		return value.NoneValue
	}

	frame := map[string]value.Value{}
	bound := len(args)
	if len(fn.Params) < bound {
		bound = len(fn.Params)
	}
	for i := 0; i < bound; i++ {
		frame[fn.Params[i].Name] = args[i]
	}

	s.Frames = append(s.Frames, frame)
	prevReturn, prevHasReturn := s.ReturnValue, s.HasReturn
	s.HasReturn = false
	s.execStatement(fn.Body)
	result := s.ReturnValue
	hadReturn := s.HasReturn
	s.Frames = s.Frames[:len(s.Frames)-1]
	s.HasReturn = prevHasReturn
	s.ReturnValue = prevReturn

	if !hadReturn {
		return value.Default(fn.ReturnType)
	}
	return result
}

// evalPrintCall handles `print` used as a Call node. MiniC's grammar always
// parses the print statement into an ast.Print node (PRINT is a reserved
// keyword, never an IDENTIFIER), so this path only guards the general
// "print is a built-in intrinsic, never a table entry" invariant in spec.md
// §4.4 if a Call node ever does carry fname "print".
func (s *State) evalPrintCall(n *ast.Node) value.Value {
	if len(n.Children) == 0 {
		s.Output.WriteString("\n")
		return value.NoneValue
	}
	val := s.evalExpr(n.Children[0])
	s.Output.WriteString(val.Text())
	s.Output.WriteString("\n")
	return val
}

func (s *State) evalBinaryOp(n *ast.Node) value.Value {
	switch n.Value {
	case "+", "-", "*":
		return s.evalArith(n)
	case "/":
		return s.evalDivide(n)
	case "<", ">", "<=", ">=":
		return s.evalRelational(n)
	case "==", "!=":
		return s.evalEquality(n)
	case "&&":
		return s.evalAnd(n)
	case "||":
		return s.evalOr(n)
	default:
		return value.NoneValue
	}
}

func (s *State) evalArith(n *ast.Node) value.Value {
	lhs := s.evalExpr(n.Children[0])
	rhs := s.evalExpr(n.Children[1])
	if lhs.Type == value.Float || rhs.Type == value.Float {
		a, b := lhs.AsFloat(), rhs.AsFloat()
		switch n.Value {
		case "+":
			return value.Value{Type: value.Float, Float: a + b}
		case "-":
			return value.Value{Type: value.Float, Float: a - b}
		default:
			return value.Value{Type: value.Float, Float: a * b}
		}
	}
	a, b := lhs.Int, rhs.Int
	switch n.Value {
	case "+":
		return value.Value{Type: value.Int, Int: a + b}
	case "-":
		return value.Value{Type: value.Int, Int: a - b}
	default:
		return value.Value{Type: value.Int, Int: a * b}
	}
}

// evalDivide always yields a float result; a zero divisor is a runtime
// error and short-circuits to a default value with no further computation
// (spec.md §4.4).
func (s *State) evalDivide(n *ast.Node) value.Value {
	lhs := s.evalExpr(n.Children[0])
	rhs := s.evalExpr(n.Children[1])
	divisor := rhs.AsFloat()
	if divisor == 0 {
		s.Diags.Errorf("Division by zero")
		return value.Value{Type: value.Float, Float: 0}
	}
	return value.Value{Type: value.Float, Float: lhs.AsFloat() / divisor}
}

func (s *State) evalRelational(n *ast.Node) value.Value {
	a := s.evalExpr(n.Children[0]).AsFloat()
	b := s.evalExpr(n.Children[1]).AsFloat()
	var result bool
	switch n.Value {
	case "<":
		result = a < b
	case ">":
		result = a > b
	case "<=":
		result = a <= b
	case ">=":
		result = a >= b
	}
	return value.Value{Type: value.Bool, Bool: result}
}

// fuzzyEpsilon is the absolute tolerance used for float equality; preserved
// exactly as spec.md §9 requires.
const fuzzyEpsilon = 1e-9

func (s *State) evalEquality(n *ast.Node) value.Value {
	lhs := s.evalExpr(n.Children[0])
	rhs := s.evalExpr(n.Children[1])

	var eq bool
	if lhs.Type == value.Bool || rhs.Type == value.Bool {
		eq = lhs.Truthy() == rhs.Truthy()
	} else {
		diff := lhs.AsFloat() - rhs.AsFloat()
		if diff < 0 {
			diff = -diff
		}
		eq = diff < fuzzyEpsilon
	}
	if n.Value == "!=" {
		eq = !eq
	}
	return value.Value{Type: value.Bool, Bool: eq}
}

func (s *State) evalAnd(n *ast.Node) value.Value {
	left := s.evalExpr(n.Children[0])
	if !left.Truthy() {
		return value.Value{Type: value.Bool, Bool: false}
	}
	right := s.evalExpr(n.Children[1])
	return value.Value{Type: value.Bool, Bool: right.Truthy()}
}

func (s *State) evalOr(n *ast.Node) value.Value {
	left := s.evalExpr(n.Children[0])
	if left.Truthy() {
		return value.Value{Type: value.Bool, Bool: true}
	}
	right := s.evalExpr(n.Children[1])
	return value.Value{Type: value.Bool, Bool: right.Truthy()}
}

func (s *State) evalUnaryOp(n *ast.Node) value.Value {
	operand := s.evalExpr(n.Children[0])
	if n.Value == "!" {
		return value.Value{Type: value.Bool, Bool: !operand.Truthy()}
	}
	// Unary '-': preserves int/float type. Go's signed integer negation
	// already wraps silently on the minimum representable value
	// (spec.md §9, open question 6).
	if operand.Type == value.Float {
		return value.Value{Type: value.Float, Float: -operand.Float}
	}
	return value.Value{Type: value.Int, Int: -operand.Int}
}
