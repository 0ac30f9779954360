// Package cursor turns input text and a caret offset into positioned tokens.
//
// Tokens are produced on demand by the parser's read calls. Whenever the
// caret lies within a read, from the start of the whitespace before a run
// up to and including the run's last byte boundary, the read stops and
// reports a *Caret instead of a token. The caret therefore favors the token
// about to be typed. A caret equal to len(input) requests completion at the
// end of input; a caret past that, or -1, never interrupts anything.
package cursor

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Cursor struct {
	input string
	pos   int
	caret int
}

func New(input string, caret int) *Cursor {
	if caret < -1 {
		caret = -1
	}
	return &Cursor{input: input, caret: caret}
}

func (c *Cursor) Input() string { return c.input }
func (c *Cursor) Offset() int   { return c.pos }
func (c *Cursor) Caret() int    { return c.caret }

// AtEnd reports whether only whitespace remains.
func (c *Cursor) AtEnd() bool {
	return strings.TrimLeftFunc(c.input[c.pos:], unicode.IsSpace) == ""
}

func (c *Cursor) peekRune(at int) (rune, int) {
	if at >= len(c.input) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(c.input[at:])
}

func (c *Cursor) skipWhitespace() {
	for {
		r, size := c.peekRune(c.pos)
		if size == 0 || !unicode.IsSpace(r) {
			return
		}
		c.pos += size
	}
}

// interrupts reports whether the caret lies in [lead, end].
func (c *Cursor) interrupts(lead, end int) bool {
	return c.caret >= 0 && lead <= c.caret && c.caret <= end
}

func (c *Cursor) scan(from int, start, part func(rune) bool) int {
	end := from
	for {
		r, size := c.peekRune(end)
		if size == 0 {
			return end
		}
		ok := part(r)
		if end == from {
			ok = start(r)
		}
		if !ok {
			return end
		}
		end += size
	}
}

// Peek classifies the next token without consuming it.
func (c *Cursor) Peek(p Policy) (Token, bool) {
	saved := c.pos
	defer func() { c.pos = saved }()

	lead := c.pos
	c.skipWhitespace()
	s := c.pos
	r, size := c.peekRune(s)
	if size == 0 {
		return Token{Kind: KindEOF, Start: s, End: s, Leading: s - lead}, false
	}

	kind := KindChar
	e := s + size
	if end := c.scan(s, p.Start, p.Part); end > s {
		kind, e = KindIdent, end
	} else if isOperator(r) {
		kind, e = KindOperator, c.scan(s, isOperator, isOperator)
	}
	return Token{Kind: kind, Text: c.input[s:e], Start: s, End: e, Leading: s - lead}, true
}

// ReadIdentifier reads a run of runes accepted by p.
func (c *Cursor) ReadIdentifier(p Policy) (Token, *Caret, error) {
	return c.readRun(KindIdent, p.Start, p.Part, "expected identifier")
}

// ReadOperator reads a run of operator runes.
func (c *Cursor) ReadOperator() (Token, *Caret, error) {
	return c.readRun(KindOperator, isOperator, isOperator, "expected operator")
}

func (c *Cursor) readRun(kind Kind, start, part func(rune) bool, expected string) (Token, *Caret, error) {
	lead := c.pos
	c.skipWhitespace()
	s := c.pos
	e := c.scan(s, start, part)

	if c.interrupts(lead, e) {
		c.pos = lead
		if c.caret < s {
			prefix := Token{Kind: kind, Start: c.caret, End: c.caret, Leading: c.caret - lead}
			return Token{}, &Caret{Prefix: prefix, Start: c.caret, End: c.caret}, nil
		}
		prefix := Token{Kind: kind, Text: c.input[s:c.caret], Start: s, End: c.caret, Leading: s - lead}
		return Token{}, &Caret{Prefix: prefix, Start: s, End: e}, nil
	}

	if e == s {
		c.pos = lead
		r, size := c.peekRune(s)
		if size == 0 {
			return Token{}, nil, Errorf(s, "unexpected end of input, %s", expected)
		}
		return Token{}, nil, Errorf(s, "%s, found %q", expected, r)
	}

	c.pos = e
	return Token{Kind: kind, Text: c.input[s:e], Start: s, End: e, Leading: s - lead}, nil, nil
}

// ReadCharacter consumes the next rune if it is one of cands and returns
// it, or returns NoChar without consuming anything. Delimiters are never
// completion points, and a delimiter at or past the caret is left unread.
func (c *Cursor) ReadCharacter(cands ...rune) rune {
	lead := c.pos
	c.skipWhitespace()
	s := c.pos
	r, size := c.peekRune(s)
	if size > 0 && slices.Contains(cands, r) && !c.interrupts(lead, s) {
		c.pos = s + size
		return r
	}
	c.pos = lead
	return NoChar
}
