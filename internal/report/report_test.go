package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/minic/internal/decl"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/eval"
	"github.com/nof-sh/minic/internal/lexer"
	"github.com/nof-sh/minic/internal/parser"
	"github.com/nof-sh/minic/internal/sema"
	"github.com/nof-sh/minic/internal/token"
)

func runPipeline(t *testing.T, src string) []byte {
	t.Helper()
	diags := diag.New()
	toks := lexer.New([]byte(src), diags).Tokenize()
	program := parser.Parse(toks, diags)
	collected := decl.Collect(program, diags, 1000, zerolog.Nop())
	sema.Analyze(program, collected.Globals, collected.Functions, diags)
	if !diags.HasErrors() {
		eval.Run(program, collected.State)
	}

	// Tokenize's trailing EOF sentinel is parser-only plumbing, not a
	// reportable token kind (spec.md §3); strip it before serializing.
	reportToks := toks
	if n := len(reportToks); n > 0 && reportToks[n-1].Kind == token.EOF {
		reportToks = reportToks[:n-1]
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, reportToks, program, collected.Globals, collected.Functions, diags, collected.State.Output.String()))
	return buf.Bytes()
}

func TestReportKeyOrder(t *testing.T) {
	out := runPipeline(t, "var x: int = 1; print x;")

	var order []string
	dec := json.NewDecoder(bytes.NewReader(out))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)
	for dec.More() {
		key, err := dec.Token()
		require.NoError(t, err)
		order = append(order, key.(string))
		var raw json.RawMessage
		require.NoError(t, dec.Decode(&raw))
	}
	assert.Equal(t, []string{"tokens", "ast", "symbol_table", "function_table", "errors", "warnings", "output"}, order)
}

func TestReportIsValidJSON(t *testing.T) {
	out := runPipeline(t, "var x: int = 2 + 3 * 4; print x;")
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "14\n", doc["output"])
	assert.Equal(t, map[string]interface{}{"x": "int"}, doc["symbol_table"])
}

func TestReportEscapesOnlyTheNamedControlsAndQuoteAndBackslash(t *testing.T) {
	var buf bytes.Buffer
	writeString(&buf, "a\\b\"c\nd\te")
	assert.Equal(t, `"a\\b\"c\nd\te"`, buf.String())
}

func TestReportFunctionTableShape(t *testing.T) {
	out := runPipeline(t, "func f(a: float, b: int): float { return a + b; }")
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))

	ft := doc["function_table"].(map[string]interface{})
	f := ft["f"].(map[string]interface{})
	assert.Equal(t, "float", f["return_type"])
	params := f["params"].([]interface{})
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].(map[string]interface{})["name"])
}

func TestReportTokensNeverIncludeEOF(t *testing.T) {
	out := runPipeline(t, "var x: int = 1;")
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))
	toks := doc["tokens"].([]interface{})
	for _, tok := range toks {
		assert.NotEqual(t, "EOF", tok.(map[string]interface{})["type"])
	}
}

func TestReportErrorsSuppressOutputPerScenarioS4(t *testing.T) {
	out := runPipeline(t, "var a: int = 1; var b: int = 0; print a / b;")
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))
	errs := doc["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "Division by zero", errs[0])
	assert.Equal(t, "", doc["output"])
}
