// Package parser turns line-oriented sensing-program source into an
// ir.Program.
//
// The grammar is deliberately small: a top-level seed declaration, one
// context block holding the statement body, and a closing summarize
// marker. Parsing is a single forward pass; the only static analysis is
// the commit-after-sense check, which walks the body once in program
// order.
//
// All failures are *ParseError values carrying the source path and
// 1-based line so a caller can fix the program rather than guess.
package parser
