package token

// Kind enumerates lexical token kinds.
type Kind uint8

const (
	EOF Kind = iota
	Invalid

	Ident
	IntLit
	FloatLit
	StringLit

	// Keywords
	KwLet
	KwConst
	KwDef
	KwClass
	KwTrait
	KwMatch
	KwCase
	KwIf
	KwElse
	KwWhile
	KwFor
	KwIn
	KwReturn
	KwBreak
	KwContinue
	KwAsync
	KwAwait
	KwMove
	KwMut
	KwNew
	KwTrue
	KwFalse
	KwNone

	// Operators and punctuation
	Plus     // +
	Minus    // -
	Star     // *
	Slash    // /
	Percent  // %
	Assign   // =
	Eq       // ==
	NotEq    // !=
	Lt       // <
	LtEq     // <=
	Gt       // >
	GtEq     // >=
	Bang     // !
	Amp      // &
	AndAnd   // &&
	OrOr     // ||
	Arrow    // ->
	FatArrow // =>
	Question // ?
	Pipe     // |

	LParen   // (
	RParen   // )
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
	Comma    // ,
	Colon    // :
	Semi     // ;
	Dot      // .
)

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

var kindNames = [...]string{
	EOF:      "EOF",
	Invalid:  "Invalid",
	Ident:    "Ident",
	IntLit:   "IntLit",
	FloatLit: "FloatLit",
	StringLit: "StringLit",

	KwLet:      "let",
	KwConst:    "const",
	KwDef:      "def",
	KwClass:    "class",
	KwTrait:    "trait",
	KwMatch:    "match",
	KwCase:     "case",
	KwIf:       "if",
	KwElse:     "else",
	KwWhile:    "while",
	KwFor:      "for",
	KwIn:       "in",
	KwReturn:   "return",
	KwBreak:    "break",
	KwContinue: "continue",
	KwAsync:    "async",
	KwAwait:    "await",
	KwMove:     "move",
	KwMut:      "mut",
	KwNew:      "new",
	KwTrue:     "true",
	KwFalse:    "false",
	KwNone:     "None",

	Plus:     "+",
	Minus:    "-",
	Star:     "*",
	Slash:    "/",
	Percent:  "%",
	Assign:   "=",
	Eq:       "==",
	NotEq:    "!=",
	Lt:       "<",
	LtEq:     "<=",
	Gt:       ">",
	GtEq:     ">=",
	Bang:     "!",
	Amp:      "&",
	AndAnd:   "&&",
	OrOr:     "||",
	Arrow:    "->",
	FatArrow: "=>",
	Question: "?",
	Pipe:     "|",

	LParen:   "(",
	RParen:   ")",
	LBrace:   "{",
	RBrace:   "}",
	LBracket: "[",
	RBracket: "]",
	Comma:    ",",
	Colon:    ":",
	Semi:     ";",
	Dot:      ".",
}

// IsKeyword reports whether the kind is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwLet && k <= KwNone
}
