// Package parser implements MiniC's recursive-descent, precedence-climbing
// parser.
//
// Grounded on the teacher's cpq/parser.go: a Parser struct holding a single
// token of lookahead, match/matchToken helpers that only advance on success,
// and a dispatch switch per statement kind. MiniC's grammar has a deeper
// expression ladder (OR/AND/EQ/REL/ADD/MUL/UNARY/PRIMARY, spec.md §4.2) than
// CPL's (OR/AND/boolfactor-with-RELOP), and unifies arithmetic and boolean
// expressions into the one ast.Node type instead of CPL's separate Expression
// and BooleanExpression interfaces, since MiniC's AST node is uniform.
package parser

import (
	"github.com/nof-sh/minic/internal/ast"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/token"
)

// Parser consumes a token stream produced by internal/lexer and builds an
// AST rooted at a Program node, accumulating parse errors into a Bag.
type Parser struct {
	toks   []token.Token
	pos    int
	errors *diag.Bag
}

// New returns a Parser over toks, appending syntax errors to errs.
func New(toks []token.Token, errs *diag.Bag) *Parser {
	return &Parser{toks: toks, pos: 0, errors: errs}
}

// Parse tokenizes-then-parses is done by the caller; Parse just builds the
// AST from an already-scanned token stream.
func Parse(toks []token.Token, errs *diag.Bag) *ast.Node {
	return New(toks, errs).ParseProgram()
}

func (p *Parser) cur() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token.Token{Kind: token.EOF, Text: ""}
}

func (p *Parser) peekAt(off int) token.Token {
	i := p.pos + off
	if i < len(p.toks) {
		return p.toks[i]
	}
	return token.Token{Kind: token.EOF, Text: ""}
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(kind token.Kind) bool {
	return p.cur().Kind == kind
}

// match consumes the current token if it matches kind, reporting ok.
func (p *Parser) match(kind token.Kind) (token.Token, bool) {
	if p.at(kind) {
		return p.advance(), true
	}
	return p.cur(), false
}

// expect consumes the current token if it matches kind, otherwise records a
// "<expected>; found '<found>'" error and leaves the lookahead untouched so
// the caller can keep trying to make progress.
func (p *Parser) expect(kind token.Kind, label string) (token.Token, bool) {
	if tok, ok := p.match(kind); ok {
		return tok, true
	}
	p.errorf("Expected " + label)
	return p.cur(), false
}

func (p *Parser) errorf(expected string) {
	found := p.cur().Text
	if p.cur().Kind == token.EOF {
		found = "EOF"
	}
	p.errors.Errorf("%s; found '%s'", expected, found)
}

func (p *Parser) errorfMsg(format string, args ...interface{}) {
	p.errors.Errorf(format, args...)
}

// ParseProgram parses a whole MiniC program: program -> topLevelStmt*.
func (p *Parser) ParseProgram() *ast.Node {
	var children []*ast.Node
	for !p.at(token.EOF) {
		startPos := p.pos
		stmt := p.parseTopLevelStatement()
		if stmt == nil || p.pos == startPos {
			break
		}
		children = append(children, stmt)
	}
	return &ast.Node{Kind: ast.Program, Children: children}
}

func (p *Parser) parseTopLevelStatement() *ast.Node {
	if p.at(token.FUNC) {
		return p.parseFunctionDecl()
	}
	return p.parseStatement()
}

// parseBlockBody parses statements until '}' or EOF, per the empty-result
// abort rule in spec.md §4.2: a statement that made no lookahead progress
// (because it hit an unrecoverable error) stops the scan and the enclosing
// block/program returns whatever it collected so far, leaving a partial
// tree.
func (p *Parser) parseBlockBody() []*ast.Node {
	var stmts []*ast.Node
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		startPos := p.pos
		stmt := p.parseStatement()
		if stmt == nil || p.pos == startPos {
			break
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

// parseBlock parses '{' stmt* '}'.
func (p *Parser) parseBlock() *ast.Node {
	p.expect(token.LBRACE, "'{'")
	stmts := p.parseBlockBody()
	p.expect(token.RBRACE, "'}'")
	return &ast.Node{Kind: ast.Block, Children: stmts}
}

// parseStatement dispatches on the lookahead token, per spec.md §4.2's
// statement grammar. It returns nil when the lookahead cannot start any
// known statement, signaling the enclosing block/program to stop.
func (p *Parser) parseStatement() *ast.Node {
	switch p.cur().Kind {
	case token.VAR:
		return p.parseVarDecl()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.PRINT:
		return p.parsePrint()
	case token.IDENTIFIER, token.NUMBER, token.FLOATNUM, token.TRUE, token.FALSE, token.LPAREN, token.MINUS, token.NOT:
		return p.parseExpressionStatement()
	default:
		return nil
	}
}

// parseType parses one of the three primitive type keywords.
func (p *Parser) parseType() *ast.Node {
	switch p.cur().Kind {
	case token.INT:
		p.advance()
		return ast.NewTypeTag("int")
	case token.FLOAT:
		p.advance()
		return ast.NewTypeTag("float")
	case token.BOOL:
		p.advance()
		return ast.NewTypeTag("bool")
	default:
		p.errorf("type name ('int', 'float', or 'bool')")
		return ast.NewTypeTag("")
	}
}

// parseVarDecl parses `var IDENT : TYPE (= expr)? ;`.
func (p *Parser) parseVarDecl() *ast.Node {
	p.expect(token.VAR, "'var'")
	nameTok, ok := p.expect(token.IDENTIFIER, "identifier")
	name := nameTok.Text
	if !ok {
		name = ""
	}
	p.expect(token.COLON, "':'")
	typeTag := p.parseType()

	children := []*ast.Node{typeTag}
	if p.at(token.ASSIGN) {
		p.advance()
		children = append(children, p.parseExpression())
	}
	p.expect(token.SEMI, "';'")
	return &ast.Node{Kind: ast.VarDecl, Value: name, Children: children}
}

// parseFunctionDecl parses:
//
//	func IDENT ( (IDENT : TYPE (, IDENT : TYPE)*)? ) : TYPE { stmts }
func (p *Parser) parseFunctionDecl() *ast.Node {
	p.expect(token.FUNC, "'func'")
	nameTok, ok := p.expect(token.IDENTIFIER, "identifier")
	name := nameTok.Text
	if !ok {
		name = ""
	}

	p.expect(token.LPAREN, "'('")
	var params []*ast.Node
	if !p.at(token.RPAREN) {
		params = append(params, p.parseParam())
		for p.at(token.COMMA) {
			p.advance()
			params = append(params, p.parseParam())
		}
	}
	p.expect(token.RPAREN, "')'")

	p.expect(token.COLON, "':'")
	retType := p.parseType()

	body := p.parseBlock()

	paramsNode := &ast.Node{Kind: ast.Params, Children: params}
	return &ast.Node{Kind: ast.FunctionDecl, Value: name, Children: []*ast.Node{paramsNode, retType, body}}
}

func (p *Parser) parseParam() *ast.Node {
	nameTok, ok := p.expect(token.IDENTIFIER, "identifier")
	name := nameTok.Text
	if !ok {
		name = ""
	}
	p.expect(token.COLON, "':'")
	typeTag := p.parseType()
	return &ast.Node{Kind: ast.Param, Value: name, Children: []*ast.Node{typeTag}}
}

// parseIf parses `if ( expr ) { stmts } (else { stmts })?`.
func (p *Parser) parseIf() *ast.Node {
	p.expect(token.IF, "'if'")
	p.expect(token.LPAREN, "'('")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "')'")
	thenBlock := p.parseBlock()

	children := []*ast.Node{cond, thenBlock}
	if p.at(token.ELSE) {
		p.advance()
		children = append(children, p.parseBlock())
	}
	return &ast.Node{Kind: ast.If, Children: children}
}

// parseWhile parses `while ( expr ) { stmts }`.
func (p *Parser) parseWhile() *ast.Node {
	p.expect(token.WHILE, "'while'")
	p.expect(token.LPAREN, "'('")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "')'")
	body := p.parseBlock()
	return &ast.Node{Kind: ast.While, Children: []*ast.Node{cond, body}}
}

// parseFor parses `for ( init? ; cond? ; post? ) { stmts }`. init is either
// a var declaration (which consumes its own trailing ';') or an expression
// followed by an explicit ';'. Any of the three header clauses may be
// empty; the body is always the last child (spec.md §3's For invariant).
func (p *Parser) parseFor() *ast.Node {
	p.expect(token.FOR, "'for'")
	p.expect(token.LPAREN, "'('")

	var children []*ast.Node
	var clauses ast.ForClauses

	switch {
	case p.at(token.SEMI):
		p.advance()
	case p.at(token.VAR):
		children = append(children, p.parseVarDecl())
		clauses.HasInit = true
	default:
		children = append(children, p.parseExpression())
		p.expect(token.SEMI, "';'")
		clauses.HasInit = true
	}

	if !p.at(token.SEMI) {
		children = append(children, p.parseExpression())
		clauses.HasCond = true
	}
	p.expect(token.SEMI, "';'")

	if !p.at(token.RPAREN) {
		children = append(children, p.parseExpression())
		clauses.HasPost = true
	}
	p.expect(token.RPAREN, "')'")

	body := p.parseBlock()
	children = append(children, body)

	return &ast.Node{Kind: ast.For, Children: children, ForClauses: &clauses}
}

// parseReturn parses `return expr? ;`.
func (p *Parser) parseReturn() *ast.Node {
	p.expect(token.RETURN, "'return'")
	var children []*ast.Node
	if !p.at(token.SEMI) {
		children = append(children, p.parseExpression())
	}
	p.expect(token.SEMI, "';'")
	return &ast.Node{Kind: ast.Return, Children: children}
}

// parsePrint parses `print ( expr ) ;` or `print expr ;`.
func (p *Parser) parsePrint() *ast.Node {
	p.expect(token.PRINT, "'print'")
	if p.at(token.LPAREN) {
		p.advance()
		var expr *ast.Node
		if !p.at(token.RPAREN) {
			expr = p.parseExpression()
		}
		p.expect(token.RPAREN, "')'")
		p.expect(token.SEMI, "';'")
		if expr == nil {
			return &ast.Node{Kind: ast.Print}
		}
		return &ast.Node{Kind: ast.Print, Children: []*ast.Node{expr}}
	}

	expr := p.parseExpression()
	p.expect(token.SEMI, "';'")
	return &ast.Node{Kind: ast.Print, Children: []*ast.Node{expr}}
}

// parseExpressionStatement parses `expr ;`, where expr may itself be an
// assignment (IDENT '=' expr) recognized by two-token lookahead inside
// parseExpression, per spec.md §4.2.
func (p *Parser) parseExpressionStatement() *ast.Node {
	expr := p.parseExpression()
	p.expect(token.SEMI, "';'")
	return expr
}

// parseExpression is the assignment-aware entry point. Assignment binds
// looser than every operator below it and is recognized only when the next
// two tokens are IDENTIFIER then '=' (spec.md §4.2); this covers both the
// statement form (IDENT = expr ;) and the expression form used in a for
// loop's post-clause (spec.md §4.4).
func (p *Parser) parseExpression() *ast.Node {
	if p.cur().Kind == token.IDENTIFIER && p.peekAt(1).Kind == token.ASSIGN {
		name := p.advance().Text
		p.advance() // '='
		rhs := p.parseExpression()
		return &ast.Node{Kind: ast.Assign, Value: name, Children: []*ast.Node{rhs}}
	}
	return p.parseOr()
}

func (p *Parser) parseOr() *ast.Node {
	left := p.parseAnd()
	for p.at(token.OR) {
		p.advance()
		right := p.parseAnd()
		left = &ast.Node{Kind: ast.BinaryOp, Value: "||", Children: []*ast.Node{left, right}}
	}
	return left
}

func (p *Parser) parseAnd() *ast.Node {
	left := p.parseEquality()
	for p.at(token.AND) {
		p.advance()
		right := p.parseEquality()
		left = &ast.Node{Kind: ast.BinaryOp, Value: "&&", Children: []*ast.Node{left, right}}
	}
	return left
}

func (p *Parser) parseEquality() *ast.Node {
	left := p.parseRelational()
	for p.at(token.EQ) || p.at(token.NEQ) {
		op := p.advance()
		right := p.parseRelational()
		left = &ast.Node{Kind: ast.BinaryOp, Value: op.Text, Children: []*ast.Node{left, right}}
	}
	return left
}

func (p *Parser) parseRelational() *ast.Node {
	left := p.parseAdditive()
	for p.at(token.LT) || p.at(token.GT) || p.at(token.LE) || p.at(token.GE) {
		op := p.advance()
		right := p.parseAdditive()
		left = &ast.Node{Kind: ast.BinaryOp, Value: op.Text, Children: []*ast.Node{left, right}}
	}
	return left
}

func (p *Parser) parseAdditive() *ast.Node {
	left := p.parseMultiplicative()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = &ast.Node{Kind: ast.BinaryOp, Value: op.Text, Children: []*ast.Node{left, right}}
	}
	return left
}

func (p *Parser) parseMultiplicative() *ast.Node {
	left := p.parseUnary()
	for p.at(token.STAR) || p.at(token.SLASH) {
		op := p.advance()
		right := p.parseUnary()
		left = &ast.Node{Kind: ast.BinaryOp, Value: op.Text, Children: []*ast.Node{left, right}}
	}
	return left
}

// parseUnary parses right-associative prefix '!' and '-', which bind
// tighter than any binary operator (spec.md §4.2).
func (p *Parser) parseUnary() *ast.Node {
	if p.at(token.NOT) || p.at(token.MINUS) {
		op := p.advance()
		operand := p.parseUnary()
		return &ast.Node{Kind: ast.UnaryOp, Value: op.Text, Children: []*ast.Node{operand}}
	}
	return p.parsePrimary()
}

// parsePrimary parses a literal, identifier, call, or parenthesized
// expression.
func (p *Parser) parsePrimary() *ast.Node {
	switch p.cur().Kind {
	case token.NUMBER, token.FLOATNUM:
		tok := p.advance()
		return &ast.Node{Kind: ast.Literal, Value: tok.Text}
	case token.TRUE:
		p.advance()
		return &ast.Node{Kind: ast.Literal, Value: "true"}
	case token.FALSE:
		p.advance()
		return &ast.Node{Kind: ast.Literal, Value: "false"}
	case token.LPAREN:
		p.advance()
		expr := p.parseExpression()
		p.expect(token.RPAREN, "')'")
		return expr
	case token.IDENTIFIER:
		name := p.advance().Text
		if p.at(token.LPAREN) {
			return p.parseCallArgs(name)
		}
		return &ast.Node{Kind: ast.Identifier, Value: name}
	default:
		found := p.cur().Text
		if p.cur().Kind == token.EOF {
			found = "EOF"
		}
		p.errorfMsg("Expected expression; found '%s'", found)
		// Do not consume; let the caller's statement-level recovery notice
		// no progress was made and stop the enclosing block.
		return &ast.Node{Kind: ast.Literal, Value: "0"}
	}
}

func (p *Parser) parseCallArgs(name string) *ast.Node {
	p.advance() // '('
	var args []*ast.Node
	if !p.at(token.RPAREN) {
		args = append(args, p.parseExpression())
		for p.at(token.COMMA) {
			p.advance()
			args = append(args, p.parseExpression())
		}
	}
	p.expect(token.RPAREN, "')'")
	return &ast.Node{Kind: ast.Call, Value: name, Children: args}
}
