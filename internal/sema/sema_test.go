package sema

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/minic/internal/decl"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/lexer"
	"github.com/nof-sh/minic/internal/parser"
)

// analyze runs lex -> parse -> collect -> analyze and returns the resulting
// diagnostics, exercising sema.Analyze the way cmd/minic does.
func analyze(t *testing.T, src string) *diag.Bag {
	t.Helper()
	diags := diag.New()
	toks := lexer.New([]byte(src), diags).Tokenize()
	program := parser.Parse(toks, diags)
	require.Empty(t, diags.Errors, "fixture must parse cleanly")

	collected := decl.Collect(program, diags, 1000, zerolog.Nop())
	Analyze(program, collected.Globals, collected.Functions, diags)
	return diags
}

func TestAnalyzeCleanProgramHasNoDiagnostics(t *testing.T) {
	diags := analyze(t, `
		var x: int = 2 + 3 * 4;
		func f(a: float, b: int): float { return a + b; }
	`)
	assert.Empty(t, diags.Errors)
	assert.Empty(t, diags.Warnings)
}

func TestAnalyzeInitializerTypeMismatchIsError(t *testing.T) {
	diags := analyze(t, "var x: int = true;")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Type mismatch in initializer for 'x'")
}

func TestAnalyzeIntToFloatWideningIsCompatible(t *testing.T) {
	diags := analyze(t, "var x: float = 1;")
	assert.Empty(t, diags.Errors)
}

func TestAnalyzeUndefinedIdentifier(t *testing.T) {
	diags := analyze(t, "print y;")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Undefined identifier 'y'")
}

func TestAnalyzeUndefinedFunction(t *testing.T) {
	diags := analyze(t, "print g(1);")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Undefined function 'g'")
}

func TestAnalyzeArgumentCountMismatch(t *testing.T) {
	diags := analyze(t, `
		func f(a: int): int { return a; }
		print f(1, 2);
	`)
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "expects 1 argument(s), got 2")
}

func TestAnalyzeArithmeticWithBoolOperandIsError(t *testing.T) {
	diags := analyze(t, "print true + 1;")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Invalid operand type for operator '+'")
}

func TestAnalyzeBoolNumericEqualityIsWarningNotError(t *testing.T) {
	diags := analyze(t, "print true == 1;")
	assert.Empty(t, diags.Errors)
	require.Len(t, diags.Warnings, 1)
	assert.Contains(t, diags.Warnings[0], "Comparing bool and numeric operand")
}

func TestAnalyzeMissingReturnValueIsError(t *testing.T) {
	diags := analyze(t, "func f(): int { return; }")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Missing return value in function 'f'")
}

func TestAnalyzeReturnTypeMismatch(t *testing.T) {
	diags := analyze(t, "func f(): int { return true; }")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Return type mismatch in function 'f'")
}

func TestAnalyzeDuplicateParameterName(t *testing.T) {
	diags := analyze(t, "func f(a: int, a: int): int { return a; }")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Duplicate parameter name 'a'")
}

func TestAnalyzeHoistedVariableVisibleBeforeItsDeclaration(t *testing.T) {
	diags := analyze(t, `
		func f(): int {
			s = 1;
			var s: int = 0;
			return s;
		}
	`)
	assert.Empty(t, diags.Errors)
}

func TestAnalyzeNestedRedeclarationInSameFunctionScopeIsError(t *testing.T) {
	diags := analyze(t, `
		func f(): int {
			var s: int = 0;
			if (true) {
				var s: int = 1;
			}
			return s;
		}
	`)
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Duplicate declaration of variable 's'")
}

func TestAnalyzeAssignmentToUndeclaredVariableIsError(t *testing.T) {
	diags := analyze(t, "func f(): int { z = 1; return 0; }")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Assignment to undeclared variable 'z'")
}
