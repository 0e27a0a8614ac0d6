package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, input string) []token {
	t.Helper()
	l := newLexer(input)
	var toks []token
	for {
		tok, err := l.next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks
		}
	}
}

func TestLexerTokenizesIdentifiersStringsAndPunctuation(t *testing.T) {
	toks := lexAll(t, `gcc.note("unused variable", regex="foo.*")`)
	var kinds []tokenKind
	var texts []string
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
		texts = append(texts, tok.text)
	}
	assert.Equal(t, []tokenKind{
		tokIdent, tokPunct, tokIdent, tokPunct, tokString, tokPunct,
		tokIdent, tokPunct, tokString, tokPunct, tokEOF,
	}, kinds)
	assert.Equal(t, "gcc", toks[0].text)
	assert.Equal(t, ".", toks[1].text)
	assert.Equal(t, "note", toks[2].text)
	assert.Equal(t, "unused variable", toks[4].text)
	assert.Equal(t, "regex", toks[6].text)
	assert.Equal(t, "foo.*", toks[8].text)
}

func TestLexerHandlesNegativeIntegers(t *testing.T) {
	toks := lexAll(t, "return_code(-1)")
	require.Len(t, toks, 5)
	assert.Equal(t, tokNumber, toks[2].kind)
	assert.Equal(t, "-1", toks[2].text)
}

func TestLexerHandlesEscapedQuoteInString(t *testing.T) {
	toks := lexAll(t, `note("say \"hi\"")`)
	require.Len(t, toks, 5)
	assert.Equal(t, tokString, toks[2].kind)
	assert.Equal(t, `say "hi"`, toks[2].text)
}

func TestLexerErrorsOnUnterminatedString(t *testing.T) {
	l := newLexer(`note("unterminated`)
	_, err := l.next() // note
	require.NoError(t, err)
	_, err = l.next() // (
	require.NoError(t, err)
	_, err = l.next() // string
	assert.Error(t, err)
}

func TestLexerErrorsOnUnexpectedCharacter(t *testing.T) {
	l := newLexer("gcc#note")
	_, err := l.next() // gcc
	require.NoError(t, err)
	_, err = l.next() // #
	assert.Error(t, err)
}
