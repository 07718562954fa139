package token

import "tocin/internal/source"

// Token is one lexical unit. Text aliases the source buffer.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

func (t Token) Is(k Kind) bool {
	return t.Kind == k
}

func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}
	return t.Kind.String() + "(" + t.Text + ")"
}
