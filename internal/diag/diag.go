// Package diag holds the ordered error/warning accumulator shared by every
// phase of the pipeline (lexer, parser, semantic analyzer, evaluator).
package diag

import "fmt"

// Bag collects diagnostics in insertion order. A single Bag is threaded
// through the whole pipeline so that lexer errors precede parser errors
// precede semantic errors precede evaluator errors, per the phase order in
// which callers append to it.
type Bag struct {
	Errors   []string
	Warnings []string
}

// New returns an empty Bag.
func New() *Bag {
	return &Bag{Errors: []string{}, Warnings: []string{}}
}

// Errorf appends a formatted error message.
func (b *Bag) Errorf(format string, args ...interface{}) {
	b.Errors = append(b.Errors, fmt.Sprintf(format, args...))
}

// Warnf appends a formatted warning message.
func (b *Bag) Warnf(format string, args ...interface{}) {
	b.Warnings = append(b.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any error has been recorded so far.
func (b *Bag) HasErrors() bool {
	return len(b.Errors) > 0
}
