package token

// operatorLexicon holds comparison, membership/logical, bitwise, arithmetic
// and assignment operators.
var operatorLexicon = map[string]struct{}{
	"<": {}, ">": {}, "==": {}, ">=": {}, "<=": {}, "<>": {}, "!=": {},
	"in": {}, "not": {}, "is": {}, "and": {}, "or": {},
	"|": {}, "^": {}, "&": {}, "<<": {}, ">>": {},
	"+": {}, "-": {}, "*": {}, "/": {}, "%": {}, "//": {}, "~": {},
	"=": {}, "+=": {}, "-=": {}, "*=": {}, "/=": {}, "%=": {}, "&=": {}, "|=": {},
	"^=": {}, "<<=": {}, ">>=": {}, "**=": {}, "//=": {},
}

// IsOperator reports whether content belongs to the fixed operator lexicon.
func IsOperator(content string) bool {
	_, ok := operatorLexicon[content]

	return ok
}
