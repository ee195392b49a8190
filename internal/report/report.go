// Package report serializes one pipeline run into the single JSON document
// spec.md §6 describes: tokens, ast, symbol_table, function_table, errors,
// warnings, output, in that exact key order.
//
// The teacher has no analogue (cpq emits quad text, not a report), so this
// package is written directly against spec.md's field shapes. It hand-rolls
// its own string escaping instead of encoding/json's because spec.md §6
// mandates a narrower escape set (backslash, double quote, and the C0
// controls \b \f \n \r \t only) than Go's encoder applies by default.
package report

import (
	"bytes"
	"io"
	"sort"
	"strconv"

	"golang.org/x/exp/maps"

	"github.com/nof-sh/minic/internal/ast"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/symtab"
	"github.com/nof-sh/minic/internal/token"
)

// Write assembles and writes the full report to w.
func Write(w io.Writer, tokens []token.Token, program *ast.Node, globals symtab.Globals, functions symtab.Functions, diags *diag.Bag, output string) error {
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"tokens":`)
	writeTokens(&buf, tokens)
	buf.WriteByte(',')

	buf.WriteString(`"ast":`)
	writeNode(&buf, program)
	buf.WriteByte(',')

	buf.WriteString(`"symbol_table":`)
	writeSymbolTable(&buf, globals)
	buf.WriteByte(',')

	buf.WriteString(`"function_table":`)
	writeFunctionTable(&buf, functions)
	buf.WriteByte(',')

	buf.WriteString(`"errors":`)
	writeStringArray(&buf, diags.Errors)
	buf.WriteByte(',')

	buf.WriteString(`"warnings":`)
	writeStringArray(&buf, diags.Warnings)
	buf.WriteByte(',')

	buf.WriteString(`"output":`)
	writeString(&buf, output)

	buf.WriteByte('}')

	_, err := w.Write(buf.Bytes())
	return err
}

func writeTokens(buf *bytes.Buffer, tokens []token.Token) {
	buf.WriteByte('[')
	for i, t := range tokens {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		buf.WriteString(`"type":`)
		writeString(buf, t.Kind.String())
		buf.WriteString(`,"text":`)
		writeString(buf, t.Text)
		buf.WriteString(`,"line":`)
		buf.WriteString(strconv.Itoa(t.Position.Line))
		buf.WriteString(`,"pos":`)
		buf.WriteString(strconv.Itoa(t.Position.Offset))
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
}

// writeNode walks the AST per spec.md §6: value is omitted if empty,
// children is omitted if empty. TypeTag nodes carry their payload in
// TypeName rather than Value (ast.Node's own convention).
func writeNode(buf *bytes.Buffer, n *ast.Node) {
	if n == nil {
		buf.WriteString("null")
		return
	}
	buf.WriteByte('{')
	buf.WriteString(`"type":`)
	writeString(buf, n.Kind.String())

	val := n.Value
	if n.Kind == ast.TypeTag {
		val = n.TypeName
	}
	if val != "" {
		buf.WriteString(`,"value":`)
		writeString(buf, val)
	}

	if len(n.Children) > 0 {
		buf.WriteString(`,"children":[`)
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeNode(buf, c)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
}

func writeSymbolTable(buf *bytes.Buffer, globals symtab.Globals) {
	names := maps.Keys(globals)
	sort.Strings(names)

	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, name)
		buf.WriteByte(':')
		writeString(buf, globals[name].String())
	}
	buf.WriteByte('}')
}

func writeFunctionTable(buf *bytes.Buffer, functions symtab.Functions) {
	names := maps.Keys(functions)
	sort.Strings(names)

	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		fn := functions[name]
		writeString(buf, name)
		buf.WriteString(`:{"return_type":`)
		writeString(buf, fn.ReturnType.String())
		buf.WriteString(`,"params":[`)
		for j, p := range fn.Params {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`{"name":`)
			writeString(buf, p.Name)
			buf.WriteString(`,"type":`)
			writeString(buf, p.Type.String())
			buf.WriteByte('}')
		}
		buf.WriteString(`]}`)
	}
	buf.WriteByte('}')
}

func writeStringArray(buf *bytes.Buffer, ss []string) {
	buf.WriteByte('[')
	for i, s := range ss {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, s)
	}
	buf.WriteByte(']')
}

// writeString quotes and escapes s per spec.md §6: backslash, double quote,
// and the named C0 controls are escaped; every other byte passes through
// unchanged.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			buf.WriteString(`\\`)
		case '"':
			buf.WriteString(`\"`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}
