// Package token defines the lexical tokens of the put/filter expression
// language, spec.md §4.H.
//
// Grounded on ha1tch-tsqlparser/token/token.go's Type-iota-plus-keyword-map
// shape, retargeted from T-SQL's keyword set to the DSL's: field/oosvar
// sigils ($, @), the typed-local declarators, and the statement keywords
// (begin/end/if/elif/else/while/do/for/func/subr/emit/emitp/emitf/tee/
// print/filter/unset/return/call) in place of T-SQL's DDL/DML vocabulary.
package token

// Type identifies a lexical token kind.
type Type int

const (
	ILLEGAL Type = iota
	EOF
	COMMENT

	IDENT  // bare local variable name
	FIELD  // $name or $*
	OOSVAR // @name or @*
	INT
	FLOAT
	STRING // "..."
	REGEX  // bound by context, reuses STRING token with a following =~/!~

	// Operators, by roughly increasing precedence.
	QUESTION // ?
	COLON    // :
	OROR     // ||
	XORXOR   // ^^
	ANDAND   // &&
	EQ       // ==
	NEQ      // !=
	MATCH    // =~
	NOTMATCH // !~
	LT
	GT
	LE
	GE
	PIPE   // |  (bitwise or)
	CARET  // ^  (bitwise xor)
	AMP    // &  (bitwise and)
	SHL    // <<
	SHR    // >>
	DOT    // .  (string concat)
	PLUS
	MINUS
	STAR
	SLASH
	SLASHSLASH // // (int div)
	PERCENT
	BANG  // !
	TILDE // ~ (bitwise not)
	POW   // **

	ASSIGN   // =
	PLUSEQ   // +=
	MINUSEQ  // -=
	STAREQ   // *=
	SLASHEQ  // /=
	DOTEQ    // .=
	OROREQ   // ||=
	ANDANDEQ // &&=

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	SEMICOLON

	keywordBeg
	BEGIN
	END
	IF
	ELIF
	ELSE
	WHILE
	DO
	FOR
	IN
	FUNC
	SUBR
	CALL
	RETURN
	VAR
	INTKW
	FLOATKW
	NUMKW
	STRKW
	BOOLKW
	MAP
	UNSET
	EMIT
	EMITP
	EMITF
	TEE
	PRINT
	PRINTN
	EPRINT
	EPRINTN
	DUMP
	EDUMP
	FILTER
	TRUE
	FALSE
	keywordEnd
)

var keywords = map[string]Type{
	"begin": BEGIN, "end": END,
	"if": IF, "elif": ELIF, "else": ELSE,
	"while": WHILE, "do": DO, "for": FOR, "in": IN,
	"func": FUNC, "subr": SUBR, "call": CALL, "return": RETURN,
	"var": VAR, "int": INTKW, "float": FLOATKW, "num": NUMKW,
	"str": STRKW, "bool": BOOLKW, "map": MAP,
	"unset": UNSET,
	"emit": EMIT, "emitp": EMITP, "emitf": EMITF,
	"tee": TEE, "print": PRINT, "printn": PRINTN,
	"eprint": EPRINT, "eprintn": EPRINTN,
	"dump": DUMP, "edump": EDUMP,
	"filter": FILTER,
	"true":   TRUE, "false": FALSE,
}

// LookupIdent classifies ident as a keyword token or a plain IDENT.
func LookupIdent(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}

// Token is one lexical token with its source position.
type Token struct {
	Type    Type
	Literal string
	Line    int
	Col     int
}
