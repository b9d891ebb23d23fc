package syn

// lexer is a byte scanner over the retained source buffer. Token text is
// copied out of the buffer; the buffer itself is never modified.
//
// Two multi-character tokens may not abut without whitespace or
// punctuation between them, so input like "9.9foo" is a lex error rather
// than two tokens.
type lexer struct {
	src     []byte
	pos     int
	prevEnd int // end offset of the previous multi-char token, or -1
	err     *Error
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, prevEnd: -1}
}

func (l *lexer) cur() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peek() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *lexer) setErr(msg string, loc Loc) {
	if l.err == nil {
		l.err = &Error{Kind: KindLex, Msg: msg, Loc: loc}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// skipSpace consumes whitespace and comments. Unterminated block comments
// are a lex error.
func (l *lexer) skipSpace() {
	for {
		for isSpace(l.cur()) {
			l.pos++
		}
		if l.cur() == '/' && l.peek() == '/' {
			for l.cur() != 0 && l.cur() != '\n' {
				l.pos++
			}
			continue
		}
		if l.cur() == '/' && l.peek() == '*' {
			start := Loc(l.pos)
			l.pos += 2
			for {
				if l.cur() == 0 {
					l.setErr("file ends inside comment", start)
					return
				}
				if l.cur() == '*' && l.peek() == '/' {
					l.pos += 2
					break
				}
				l.pos++
			}
			continue
		}
		return
	}
}

// next scans one token. After an error it keeps returning EOF; the parser
// reports the latched error instead.
func (l *lexer) next() Token {
	if l.err != nil {
		return Token{Kind: TokEOF, Pos: Loc(l.pos)}
	}
	l.skipSpace()
	if l.err != nil {
		return Token{Kind: TokEOF, Pos: Loc(l.pos)}
	}

	pos := Loc(l.pos)
	c := l.cur()
	switch {
	case c == 0:
		return Token{Kind: TokEOF, Pos: pos}

	case c == '+' || c == '-' || c == '.' || isDigit(c):
		return l.lexNumber(pos)

	case c == '$' || c == '_' || isAlpha(c):
		return l.lexIdent(pos)

	case c == '"':
		return l.lexString(pos)

	case c >= 32 && c <= 126:
		l.pos++
		return Token{Kind: TokPunct, Ch: c, Pos: pos}

	default:
		l.setErr("unexpected character", pos)
		return Token{Kind: TokEOF, Pos: pos}
	}
}

// abutted reports whether a multi-char token starting at pos directly
// follows the previous multi-char token.
func (l *lexer) abutted(pos Loc) bool {
	return l.prevEnd >= 0 && int(pos) == l.prevEnd
}

func (l *lexer) lexNumber(pos Loc) Token {
	if l.abutted(pos) {
		l.setErr("expected no number here", pos)
		return Token{Kind: TokEOF, Pos: pos}
	}
	kind := TokInt
	start := l.pos
	if l.cur() == '+' {
		l.pos++
		start = l.pos // drop the redundant sign from the token text
	} else if l.cur() == '-' {
		l.pos++
	}
	digits := 0
	for isDigit(l.cur()) {
		l.pos++
		digits++
	}
	if l.cur() == '.' {
		kind = TokFloat
		l.pos++
		for isDigit(l.cur()) {
			l.pos++
			digits++
		}
	}
	if digits == 0 {
		l.setErr("malformed number", pos)
		return Token{Kind: TokEOF, Pos: pos}
	}
	if l.cur() == 'e' || l.cur() == 'E' {
		kind = TokFloat
		l.pos++
		if l.cur() == '+' || l.cur() == '-' {
			l.pos++
		}
		for isDigit(l.cur()) {
			l.pos++
		}
	}
	l.prevEnd = l.pos
	return Token{Kind: kind, Text: string(l.src[start:l.pos]), Pos: pos}
}

func (l *lexer) lexIdent(pos Loc) Token {
	if l.abutted(pos) {
		l.setErr("expected no identifier here", pos)
		return Token{Kind: TokEOF, Pos: pos}
	}
	start := l.pos
	if l.cur() == '$' {
		l.pos++
	}
	for isAlpha(l.cur()) || isDigit(l.cur()) || l.cur() == '_' {
		l.pos++
	}
	l.prevEnd = l.pos
	return Token{Kind: TokIdent, Text: string(l.src[start:l.pos]), Pos: pos}
}

func (l *lexer) lexString(pos Loc) Token {
	if l.abutted(pos) {
		l.setErr("expected no string here", pos)
		return Token{Kind: TokEOF, Pos: pos}
	}
	l.pos++ // opening quote
	start := l.pos
	for l.cur() != '"' {
		if l.cur() == 0 {
			l.setErr("end of file inside string", pos)
			return Token{Kind: TokEOF, Pos: pos}
		}
		if l.cur() == '\\' {
			l.pos++
			if l.cur() == 0 {
				l.setErr("end of file inside string", pos)
				return Token{Kind: TokEOF, Pos: pos}
			}
		}
		l.pos++
	}
	text := string(l.src[start:l.pos])
	l.pos++ // closing quote
	l.prevEnd = l.pos
	return Token{Kind: TokString, Text: text, Pos: pos}
}
