package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carlodf/mlrq/dsl/token"
)

func collect(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		tk := l.NextToken()
		toks = append(toks, tk)
		if tk.Type == token.EOF {
			return toks
		}
	}
}

func TestLexerFieldAndOosvarSigils(t *testing.T) {
	toks := collect(`$name = @count + 1`)
	require.Equal(t, token.FIELD, toks[0].Type)
	require.Equal(t, "name", toks[0].Literal)
	require.Equal(t, token.ASSIGN, toks[1].Type)
	require.Equal(t, token.OOSVAR, toks[2].Type)
	require.Equal(t, "count", toks[2].Literal)
	require.Equal(t, token.PLUS, toks[3].Type)
	require.Equal(t, token.INT, toks[4].Type)
	require.Equal(t, "1", toks[4].Literal)
}

func TestLexerKeywordsAndOperators(t *testing.T) {
	toks := collect(`if ($x >= 3 && $y != "a") { $z = $x . $y; }`)
	kinds := make([]token.Type, 0, len(toks))
	for _, tk := range toks {
		kinds = append(kinds, tk.Type)
	}
	require.Contains(t, kinds, token.IF)
	require.Contains(t, kinds, token.GE)
	require.Contains(t, kinds, token.ANDAND)
	require.Contains(t, kinds, token.NEQ)
	require.Contains(t, kinds, token.DOT)
	require.Contains(t, kinds, token.LBRACE)
	require.Contains(t, kinds, token.RBRACE)
}

func TestLexerStringEscapes(t *testing.T) {
	toks := collect(`"a\tb\n\"c\""`)
	require.Equal(t, token.STRING, toks[0].Type)
	require.Equal(t, "a\tb\n\"c\"", toks[0].Literal)
}

func TestLexerLineComment(t *testing.T) {
	toks := collect("1 # trailing comment\n+2")
	require.Equal(t, token.INT, toks[0].Type)
	require.Equal(t, token.PLUS, toks[1].Type)
	require.Equal(t, token.INT, toks[2].Type)
	require.Equal(t, "2", toks[2].Literal)
}
