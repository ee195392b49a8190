// Package lexer turns MiniC source bytes into a token stream.
//
// Grounded on the teacher's cpq/scan.go Scanner: one token produced per
// Scan call, whitespace and comments skipped inline, longest-match
// punctuator recognition, and a closed keyword table. The teacher buffered
// runes behind a bufio.Reader with an Unscan ring buffer; MiniC's lexer
// works directly over the in-memory byte slice (the whole program is read
// into memory by the driver before lexing begins), so a plain index cursor
// replaces the ring buffer while keeping the same one-token-at-a-time shape.
package lexer

import (
	"bytes"

	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/token"
)

// operators lists multi-character operators before their single-character
// prefixes so the first match in this list is always the longest match.
var operators = []struct {
	text string
	kind token.Kind
}{
	{"==", token.EQ},
	{"!=", token.NEQ},
	{"<=", token.LE},
	{">=", token.GE},
	{"&&", token.AND},
	{"||", token.OR},
	{"+", token.PLUS},
	{"-", token.MINUS},
	{"*", token.STAR},
	{"/", token.SLASH},
	{"(", token.LPAREN},
	{")", token.RPAREN},
	{"{", token.LBRACE},
	{"}", token.RBRACE},
	{";", token.SEMI},
	{":", token.COLON},
	{",", token.COMMA},
	{"=", token.ASSIGN},
	{"<", token.LT},
	{">", token.GT},
	{"!", token.NOT},
}

// Lexer scans a MiniC source buffer into tokens.
type Lexer struct {
	src       []byte
	pos       int // byte offset of the next unread byte
	line      int
	errors    *diag.Bag
	maxTokens int // 0 means unlimited
}

// New returns a Lexer over src, appending lexical errors to errs. An
// optional maxTokens caps the number of tokens Tokenize will produce before
// giving up on a pathological input (internal/config.Config.MaxTokens);
// omitting it leaves the lexer unbounded, which is what the tests use
// everywhere except the token-limit test.
func New(src []byte, errs *diag.Bag, maxTokens ...int) *Lexer {
	l := &Lexer{src: src, pos: 0, line: 1, errors: errs}
	if len(maxTokens) > 0 {
		l.maxTokens = maxTokens[0]
	}
	return l
}

// Tokenize scans the entire source and returns the token stream, always
// terminated by a single EOF token. Lexical errors never abort scanning;
// they accumulate in the Bag passed to New. If maxTokens is set and the
// source would produce more tokens than that, scanning stops early, an
// error is recorded, and a synthetic EOF token closes the stream.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		if l.maxTokens > 0 && len(toks) >= l.maxTokens {
			l.errors.Errorf("Token limit of %d exceeded, aborting scan at line %d", l.maxTokens, l.line)
			toks = append(toks, token.Token{Kind: token.EOF, Text: "", Position: token.Position{Line: l.line, Offset: l.pos}})
			return toks
		}
		tok := l.next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
	}
	return ch
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		ch := l.peekByte()
		if isWhitespace(ch) {
			l.advance()
			continue
		}
		if ch == '/' && l.peekByteAt(1) == '/' {
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func (l *Lexer) next() token.Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Text: "", Position: token.Position{Line: l.line, Offset: l.pos}}
	}

	start := l.pos
	startLine := l.line
	ch := l.peekByte()

	switch {
	case isLetter(ch) || ch == '_':
		return l.scanIdentifier(start, startLine)
	case isDigit(ch):
		return l.scanNumber(start, startLine)
	}

	for _, op := range operators {
		if l.matchAt(op.text) {
			l.pos += len(op.text)
			return token.Token{Kind: op.kind, Text: op.text, Position: token.Position{Line: startLine, Offset: start}}
		}
	}

	l.advance()
	l.errors.Errorf("Illegal character '%c' at line %d", ch, startLine)
	return token.Token{Kind: token.ILLEGAL, Text: string(ch), Position: token.Position{Line: startLine, Offset: start}}
}

func (l *Lexer) matchAt(text string) bool {
	if l.pos+len(text) > len(l.src) {
		return false
	}
	return string(l.src[l.pos:l.pos+len(text)]) == text
}

func (l *Lexer) scanIdentifier(start, startLine int) token.Token {
	for l.pos < len(l.src) && (isLetter(l.peekByte()) || isDigit(l.peekByte()) || l.peekByte() == '_') {
		l.advance()
	}
	text := string(l.src[start:l.pos])
	if kind, ok := token.Keywords[text]; ok {
		return token.Token{Kind: kind, Text: text, Position: token.Position{Line: startLine, Offset: start}}
	}
	return token.Token{Kind: token.IDENTIFIER, Text: text, Position: token.Position{Line: startLine, Offset: start}}
}

// scanNumber consumes a run of digits and dots. Any number of dots is
// accepted here; a lexeme with more than one dot is tagged FLOATNUM and
// left for the evaluator's string-to-float conversion to fail silently on
// (spec.md §9, open question 1 — preserved, not rejected here).
func (l *Lexer) scanNumber(start, startLine int) token.Token {
	sawDot := false
	for l.pos < len(l.src) {
		ch := l.peekByte()
		if isDigit(ch) {
			l.advance()
			continue
		}
		if ch == '.' {
			sawDot = true
			l.advance()
			continue
		}
		break
	}
	text := string(l.src[start:l.pos])
	kind := token.NUMBER
	if sawDot {
		kind = token.FLOATNUM
	}
	return token.Token{Kind: kind, Text: text, Position: token.Position{Line: startLine, Offset: start}}
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// StripBOM removes a leading UTF-8 byte-order mark, if present.
func StripBOM(src []byte) []byte {
	return bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))
}
