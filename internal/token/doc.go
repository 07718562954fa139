// Package token defines lexical token kinds for the Tocin compiler.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly.
//   - Built-in type names (int, float, bool, string) are identifiers; the
//     semantic layer recognizes them, not the lexer.
package token
