package script

import "fmt"

// argument is one call argument: positional if Name is empty, a keyword
// argument ("regex=...") otherwise.
type argument struct {
	Name  string
	Str   string
	Int   int
	IsInt bool
	List  []string
	IsList bool
}

// callExpr is one `name(args...)` call, either the statement's base or a
// `.method(args...)` step chained onto it.
type callExpr struct {
	Name string
	Args []argument
}

// statement is a parsed `{{ ... }}` directive: a base identifier, optionally
// called, followed by zero or more chained method calls (`gcc.note(...)`).
type statement struct {
	Base     string
	BaseCall bool
	BaseArgs []argument
	Chain    []callExpr
}

type parser struct {
	lex *lexer
	tok token
}

func parseStatement(text string) (*statement, error) {
	p := &parser{lex: newLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokEOF {
		return nil, fmt.Errorf("script: empty directive")
	}

	stmt := &statement{}
	if p.tok.kind != tokIdent {
		return nil, fmt.Errorf("script: expected identifier, got %q", p.tok.text)
	}
	stmt.Base = p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.isPunct("(") {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		stmt.BaseCall = true
		stmt.BaseArgs = args
	}

	for p.isPunct(".") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokIdent {
			return nil, fmt.Errorf("script: expected method name after '.'")
		}
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.isPunct("(") {
			return nil, fmt.Errorf("script: expected '(' after method name %q", name)
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		stmt.Chain = append(stmt.Chain, callExpr{Name: name, Args: args})
	}

	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("script: unexpected trailing token %q", p.tok.text)
	}
	return stmt, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) isPunct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

// parseArgs consumes a `(` already positioned at p.tok, the comma-separated
// argument list, and the closing `)`.
func (p *parser) parseArgs() ([]argument, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	var args []argument
	for !p.isPunct(")") {
		if len(args) > 0 {
			if !p.isPunct(",") {
				return nil, fmt.Errorf("script: expected ',' or ')' in argument list")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if err := p.advance(); err != nil { // consume ')'
		return nil, err
	}
	return args, nil
}

func (p *parser) parseArg() (argument, error) {
	if p.tok.kind == tokIdent {
		name := p.tok.text
		savedPos := p.lex.pos
		savedTok := p.tok
		if err := p.advance(); err != nil {
			return argument{}, err
		}
		if p.isPunct("=") {
			if err := p.advance(); err != nil {
				return argument{}, err
			}
			val, err := p.parseValue()
			if err != nil {
				return argument{}, err
			}
			val.Name = name
			return val, nil
		}
		// Not a keyword argument after all: rewind the lexer and reparse the
		// identifier as a plain value.
		p.lex.pos = savedPos
		p.tok = savedTok
	}
	return p.parseValue()
}

func (p *parser) parseValue() (argument, error) {
	switch {
	case p.tok.kind == tokString:
		v := argument{Str: p.tok.text}
		return v, p.advance()
	case p.tok.kind == tokNumber:
		n, err := strconvAtoi(p.tok.text)
		if err != nil {
			return argument{}, fmt.Errorf("script: invalid integer %q: %w", p.tok.text, err)
		}
		v := argument{Int: n, IsInt: true}
		return v, p.advance()
	case p.tok.kind == tokIdent:
		v := argument{Str: p.tok.text}
		return v, p.advance()
	case p.isPunct("["):
		if err := p.advance(); err != nil {
			return argument{}, err
		}
		var items []string
		for !p.isPunct("]") {
			if len(items) > 0 {
				if !p.isPunct(",") {
					return argument{}, fmt.Errorf("script: expected ',' or ']' in list literal")
				}
				if err := p.advance(); err != nil {
					return argument{}, err
				}
			}
			if p.tok.kind != tokString {
				return argument{}, fmt.Errorf("script: list literals only support string elements")
			}
			items = append(items, p.tok.text)
			if err := p.advance(); err != nil {
				return argument{}, err
			}
		}
		if err := p.advance(); err != nil { // consume ']'
			return argument{}, err
		}
		return argument{List: items, IsList: true}, nil
	default:
		return argument{}, fmt.Errorf("script: unexpected token %q in value position", p.tok.text)
	}
}
