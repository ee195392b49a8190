package eval_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/minic/internal/decl"
	"github.com/nof-sh/minic/internal/eval"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/lexer"
	"github.com/nof-sh/minic/internal/parser"
)

// runProgram lexes, parses, and collects declarations for src, then runs
// the evaluator, mirroring cmd/minic's own pipeline order.
func runProgram(t *testing.T, src string) *eval.State {
	t.Helper()
	diags := diag.New()
	toks := lexer.New([]byte(src), diags).Tokenize()
	program := parser.Parse(toks, diags)
	require.Empty(t, diags.Errors, "fixture must parse cleanly")

	collected := decl.Collect(program, diags, 1000, zerolog.Nop())
	eval.Run(program, collected.State)
	return collected.State
}

func TestEvalArithmeticAndPrint(t *testing.T) {
	s := runProgram(t, "var x: int = 2 + 3 * 4; print x;")
	assert.Equal(t, "14\n", s.Output.String())
	assert.Empty(t, s.Diags.Errors)
}

func TestEvalDivisionAlwaysProducesFloat(t *testing.T) {
	s := runProgram(t, "print 6 / 3; print 7 / 2;")
	assert.Equal(t, "2\n3.5\n", s.Output.String())
	assert.Empty(t, s.Diags.Errors)
}

func TestEvalDivisionByZeroIsRuntimeError(t *testing.T) {
	s := runProgram(t, "var a: int = 1; var b: int = 0; print a / b;")
	require.Len(t, s.Diags.Errors, 1)
	assert.Equal(t, "Division by zero", s.Diags.Errors[0])
	assert.Equal(t, "", s.Output.String())
}

func TestEvalShortCircuitOrSkipsRightOperand(t *testing.T) {
	s := runProgram(t, `
		func side(): bool { print 1; return true; }
		var r: bool = true || side();
	`)
	assert.Equal(t, "", s.Output.String())
	assert.Empty(t, s.Diags.Errors)
}

func TestEvalShortCircuitAndSkipsRightOperand(t *testing.T) {
	s := runProgram(t, `
		func side(): bool { print 1; return true; }
		var r: bool = false && side();
	`)
	assert.Equal(t, "", s.Output.String())
}

func TestEvalFuzzyFloatEquality(t *testing.T) {
	s := runProgram(t, "print 0.1 + 0.2 == 0.3;")
	assert.Equal(t, "true\n", s.Output.String())
}

func TestEvalForLoopAllClauses(t *testing.T) {
	s := runProgram(t, `
		var total: int = 0;
		for (var i: int = 1; i <= 3; i = i + 1) { total = total + i; }
		print total;
	`)
	assert.Equal(t, "6\n", s.Output.String())
	assert.Empty(t, s.Diags.Errors)
}

func TestEvalForLoopOnlyCondition(t *testing.T) {
	s := runProgram(t, `
		var i: int = 0;
		for (; i < 3; ) { print i; i = i + 1; }
	`)
	assert.Equal(t, "0\n1\n2\n", s.Output.String())
}

func TestEvalForLoopOnlyPost(t *testing.T) {
	s := runProgram(t, `
		func run(): int {
			var i: int = 0;
			for (; ; i = i + 1) {
				if (i >= 3) { return 0; }
				print i;
			}
			return 0;
		}
		print run();
	`)
	assert.Equal(t, "0\n1\n2\n0\n", s.Output.String())
}

func TestEvalSumViaHoistedForLoop(t *testing.T) {
	s := runProgram(t, `
		func sum(n: int): int {
			var s: int = 0;
			for (var i: int = 1; i <= n; i = i + 1) { s = s + i; }
			return s;
		}
		print sum(5);
	`)
	assert.Equal(t, "15\n", s.Output.String())
	assert.Empty(t, s.Diags.Errors)
}

// TestEvalIdentifierReadSearchesOuterFrames exercises spec.md §4.4's
// literal dynamic-scoping rule: an inner call's identifier lookup walks
// every active frame from innermost to outermost before falling back to
// globals, not just its own frame.
func TestEvalIdentifierReadSearchesOuterFrames(t *testing.T) {
	s := runProgram(t, `
		func inner(): int { return x; }
		func outer(x: int): int { return inner(); }
		print outer(7);
	`)
	assert.Equal(t, "7\n", s.Output.String())
	assert.Empty(t, s.Diags.Errors)
}

func TestEvalAssignOnlyTouchesInnermostFrameOrGlobal(t *testing.T) {
	s := runProgram(t, `
		var g: int = 1;
		func setg(): int { g = 2; return g; }
		print setg();
		print g;
	`)
	assert.Equal(t, "2\n2\n", s.Output.String())
}

func TestEvalReturnStopsRemainingStatements(t *testing.T) {
	s := runProgram(t, `
		func f(): int {
			print 1;
			return 0;
			print 2;
		}
		print f();
	`)
	assert.Equal(t, "1\n0\n", s.Output.String())
}

func TestEvalCallArgumentCountMismatchStillBindsAvailablePairs(t *testing.T) {
	s := runProgram(t, `
		func f(a: int, b: int): int { return a; }
		print f(9);
	`)
	require.Len(t, s.Diags.Errors, 1)
	assert.Contains(t, s.Diags.Errors[0], "expects 2 argument(s), got 1")
	assert.Equal(t, "9\n", s.Output.String())
}
