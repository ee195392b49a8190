// Package ast defines MiniC's abstract syntax tree.
//
// spec.md §3 mandates a uniform node shape — {kind, value, children} — so
// that the reporter can serialize it directly. The teacher (cpq/quadType.go)
// instead gives every grammar production its own Go struct behind marker
// interfaces (node/statement/expression/boolexpr). That per-kind sum type is
// where the *catalogue* of node shapes below is grounded, collapsed into one
// Kind enum plus one Node struct, per the "tagged sum type or arena of
// nodes, either is fine" guidance in spec.md §9.
package ast

import "strings"

// Kind tags the grammar production a Node represents.
type Kind int

const (
	Program Kind = iota
	VarDecl
	FunctionDecl
	Params
	Param
	Block
	If
	While
	For
	Return
	Print
	Assign
	Call
	BinaryOp
	UnaryOp
	Literal
	Identifier
	TypeTag
)

var kindNames = [...]string{
	Program:      "Program",
	VarDecl:      "VarDecl",
	FunctionDecl: "FunctionDecl",
	Params:       "Params",
	Param:        "Param",
	Block:        "Block",
	If:           "If",
	While:        "While",
	For:          "For",
	Return:       "Return",
	Print:        "Print",
	Assign:       "Assign",
	Call:         "Call",
	BinaryOp:     "BinaryOp",
	UnaryOp:      "UnaryOp",
	Literal:      "Literal",
	Identifier:   "Identifier",
	TypeTag:      "TypeTag",
}

// String returns the AST node kind's report name.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node is a single AST node: a kind tag, an optional string payload, and an
// ordered list of children. Program is the tree root.
//
// TypeTag nodes encode the primitive type in TypeName instead of Value (see
// the type table in spec.md §3); every other kind uses Value for the name,
// literal text, or operator symbol the grammar production carries.
type Node struct {
	Kind     Kind
	Value    string
	TypeName string // populated only on TypeTag nodes: "int" | "float" | "bool"
	Children []*Node

	// ForClauses records, for a Kind == For node only, which of the three
	// header clauses (init, cond, post) were textually present. spec.md §3
	// omits absent For slots from Children rather than using a sentinel,
	// which makes a lone surviving header child ambiguous by position alone
	// (it could be init, cond, or post). This field is the parser's record
	// of which clause each surviving child actually is; it is never
	// serialized by internal/report (the report walks only Kind/Value/
	// Children), so the externally observed AST shape is unaffected.
	ForClauses *ForClauses
}

// ForClauses flags which of a For loop's three header clauses were present
// in the source.
type ForClauses struct {
	HasInit bool
	HasCond bool
	HasPost bool
}

// New builds a node with the given kind, value, and children.
func New(kind Kind, value string, children ...*Node) *Node {
	return &Node{Kind: kind, Value: value, Children: children}
}

// NewTypeTag builds a TypeTag leaf for one of "int", "float", "bool".
func NewTypeTag(typeName string) *Node {
	return &Node{Kind: TypeTag, TypeName: typeName}
}

// Print renders the tree as an indented, human-readable text form, in the
// spirit of the teacher's switch-per-node dispatch (cpl_pars.go) collapsed
// to a single recursive walk over Kind.
func (n *Node) Print() string {
	var b strings.Builder
	n.print(&b, 0)
	return b.String()
}

func (n *Node) print(b *strings.Builder, depth int) {
	if n == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind.String())
	if n.Kind == TypeTag {
		b.WriteString(": ")
		b.WriteString(n.TypeName)
	} else if n.Value != "" {
		b.WriteString(": ")
		b.WriteString(n.Value)
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.print(b, depth+1)
	}
}
