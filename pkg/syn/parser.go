package syn

import (
	"fmt"
	"strconv"
)

// parser is a recursive-descent parser over the token stream. The first
// error is latched; no further tokens are consumed past it. One token of
// lookahead keeps the lexer ahead of the grammar, so a lexical problem
// such as two abutting multi-char tokens surfaces as the lex error it is
// rather than as a stray parse error.
type parser struct {
	lex   *lexer
	tok   Token
	ahead Token
	err   *Error
}

// Parse parses one file into a syntax tree. The content buffer is
// retained by the returned tree; callers must not mutate it afterwards.
// On error the tree is still returned so its source stays available for
// diagnostics rendering.
func Parse(name string, content []byte) (*Tree, error) {
	t := &Tree{Src: NewSource(name, content)}
	p := &parser{lex: newLexer(t.Src.Content)}
	p.ahead = p.lex.next()
	if p.lex.err != nil {
		p.err = p.lex.err
	}
	p.advance()

	t.Top = p.parseBody()
	if p.failed() {
		return t, p.takeErr()
	}
	if p.tok.Kind != TokEOF {
		p.setErr("operator or object functor expected", p.tok.Pos)
		return t, p.takeErr()
	}
	return t, nil
}

func (p *parser) advance() {
	p.tok = p.ahead
	p.ahead = p.lex.next()
	if p.lex.err != nil && p.err == nil {
		p.err = p.lex.err
	}
}

func (p *parser) failed() bool {
	return p.err != nil
}

func (p *parser) takeErr() *Error {
	if p.err != nil {
		return p.err
	}
	return &Error{Kind: KindParse, Msg: "parse error", Loc: p.tok.Pos}
}

func (p *parser) setErr(msg string, loc Loc) {
	if p.err == nil {
		p.err = &Error{Kind: KindParse, Msg: msg, Loc: loc}
	}
}

// atPunct reports whether the current token is the given punctuation byte.
func (p *parser) atPunct(c byte) bool {
	return p.tok.Kind == TokPunct && p.tok.Ch == c
}

// accept consumes the given punctuation byte if present.
func (p *parser) accept(c byte) bool {
	if p.failed() || !p.atPunct(c) {
		return false
	}
	p.advance()
	return true
}

// expectPunct consumes the given punctuation byte or latches an error.
func (p *parser) expectPunct(c byte) bool {
	if p.accept(c) {
		return true
	}
	p.setErr(fmt.Sprintf("expected '%c', found %s", c, p.tok.describe()), p.tok.Pos)
	return false
}

func (p *parser) lookingAtValue() bool {
	switch p.tok.Kind {
	case TokInt, TokFloat, TokString, TokIdent:
		return true
	}
	return p.atPunct('[')
}

func (p *parser) parseValue() Value {
	tok := p.tok
	switch tok.Kind {
	case TokInt:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.setErr(fmt.Sprintf("invalid integer '%s'", tok.Text), tok.Pos)
			return nil
		}
		p.advance()
		return &IntValue{Loc: tok.Pos, Value: n}

	case TokFloat:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.setErr(fmt.Sprintf("invalid number '%s'", tok.Text), tok.Pos)
			return nil
		}
		p.advance()
		return &FloatValue{Loc: tok.Pos, Value: f}

	case TokString:
		p.advance()
		return &StringValue{Loc: tok.Pos, Value: tok.Text}

	case TokIdent:
		p.advance()
		return &IDValue{Loc: tok.Pos, Name: tok.Text}
	}

	if p.atPunct('[') {
		return p.parseRangeOrArray()
	}

	p.setErr(fmt.Sprintf("expected value, found %s", tok.describe()), tok.Pos)
	return nil
}

// parseRangeOrArray parses either a range [a:b] / [a:b:c] or an array
// [], [a], [a,b,...]. One value of lookahead decides which one it is.
func (p *parser) parseRangeOrArray() Value {
	loc := p.tok.Pos
	if !p.expectPunct('[') {
		return nil
	}
	if p.accept(']') {
		return &ArrayValue{Loc: loc}
	}

	start := p.parseValue()
	if p.failed() {
		return nil
	}

	if p.accept(':') {
		r := &RangeValue{Loc: loc, Start: start}
		r.End = p.parseValue()
		if p.failed() {
			return nil
		}
		if p.accept(':') {
			r.Inc = r.End
			r.End = p.parseValue()
			if p.failed() {
				return nil
			}
		}
		if !p.expectPunct(']') {
			return nil
		}
		return r
	}

	a := &ArrayValue{Loc: loc, Elems: []Value{start}}
	for p.accept(',') && p.lookingAtValue() {
		elem := p.parseValue()
		if p.failed() {
			return nil
		}
		a.Elems = append(a.Elems, elem)
	}
	if !p.expectPunct(']') {
		return nil
	}
	return a
}

func (p *parser) parseArg() *Arg {
	if p.tok.Kind == TokIdent {
		id := p.tok
		p.advance()
		if !p.accept('=') {
			// plain identifier value
			return &Arg{Value: &IDValue{Loc: id.Pos, Name: id.Text}}
		}
		v := p.parseValue()
		if p.failed() {
			return nil
		}
		return &Arg{Key: id.Text, KeyLoc: id.Pos, Value: v}
	}
	v := p.parseValue()
	if p.failed() {
		return nil
	}
	return &Arg{Value: v}
}

func (p *parser) parseArgs() []*Arg {
	var args []*Arg
	for {
		if !(p.tok.Kind == TokIdent || p.lookingAtValue()) {
			return args
		}
		a := p.parseArg()
		if p.failed() {
			return nil
		}
		args = append(args, a)
		if p.atPunct(')') {
			return args
		}
		if !p.expectPunct(',') {
			return nil
		}
	}
}

func (p *parser) lookingAtModifier() bool {
	return p.atPunct('*') || p.atPunct('%') || p.atPunct('!') || p.atPunct('#')
}

func (p *parser) parseModifier() Modifier {
	var mod Modifier
	for {
		switch {
		case p.accept('!'):
			mod |= ModRoot
		case p.accept('*'):
			mod |= ModDisable
		case p.accept('%'):
			mod |= ModBackground
		case p.accept('#'):
			mod |= ModHighlight
		default:
			return mod
		}
	}
}

func (p *parser) lookingAtCall() bool {
	return p.tok.Kind == TokIdent || p.atPunct(';') || p.atPunct('{') ||
		p.lookingAtModifier()
}

// parseCall parses one call: either a brace group or a functor with an
// argument list, followed by its tail (';', a brace body, or a single
// child call).
func (p *parser) parseCall() *Call {
	c := &Call{}
	if p.atPunct('{') {
		c.Functor = "{"
		c.Loc = p.tok.Pos
	} else {
		c.Mod = p.parseModifier()
		c.Loc = p.tok.Pos
		if p.tok.Kind != TokIdent {
			p.setErr(fmt.Sprintf("expected identifier, found %s", p.tok.describe()), p.tok.Pos)
			return nil
		}
		c.Functor = p.tok.Text
		p.advance()
		if !p.expectPunct('(') {
			return nil
		}
		c.Args = p.parseArgs()
		if p.failed() {
			return nil
		}
		if !p.expectPunct(')') {
			return nil
		}
	}

	switch {
	case p.accept(';'):
		return c

	case p.atPunct('{'):
		p.advance()
		c.Body = p.parseBody()
		if p.failed() {
			return nil
		}
		if !p.expectPunct('}') {
			return nil
		}
		return c

	default:
		// a single un-braced child call, e.g. translate(...) cube(...);
		c.Body = p.parsePushCall(c.Body)
		if p.failed() {
			return nil
		}
		return c
	}
}

// parsePushCall appends the next call to body, treating a bare ';' as an
// empty statement.
func (p *parser) parsePushCall(body []*Call) []*Call {
	if p.accept(';') {
		return body
	}
	c := p.parseCall()
	if p.failed() {
		return nil
	}
	return append(body, c)
}

func (p *parser) parseBody() []*Call {
	var body []*Call
	for p.lookingAtCall() {
		body = p.parsePushCall(body)
		if p.failed() {
			return nil
		}
	}
	return body
}
