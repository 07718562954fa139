package token

var keywords = map[string]Kind{
	"let":      KwLet,
	"const":    KwConst,
	"def":      KwDef,
	"class":    KwClass,
	"trait":    KwTrait,
	"match":    KwMatch,
	"case":     KwCase,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"for":      KwFor,
	"in":       KwIn,
	"return":   KwReturn,
	"break":    KwBreak,
	"continue": KwContinue,
	"async":    KwAsync,
	"await":    KwAwait,
	"move":     KwMove,
	"mut":      KwMut,
	"new":      KwNew,
	"true":     KwTrue,
	"false":    KwFalse,
	"None":     KwNone,
}

// LookupKeyword maps an identifier lexeme to its keyword kind.
func LookupKeyword(lexeme string) (Kind, bool) {
	k, ok := keywords[lexeme]
	return k, ok
}
