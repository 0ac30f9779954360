package cursor

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind is the lexical class of a Token.
type Kind int

const (
	KindEOF Kind = iota
	KindIdent
	KindChar
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindIdent:
		return "Ident"
	case KindChar:
		return "Char"
	case KindOperator:
		return "Operator"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a positioned lexical unit. Offsets are byte offsets into the
// input; End-Start always equals len(Text).
type Token struct {
	Kind    Kind
	Text    string
	Start   int
	End     int
	Leading int // width of the whitespace skipped before Start
}

// Caret is returned instead of a token when the caret interrupts a read.
// Prefix holds what was typed before the caret; Start and End span the
// whole run under the caret, which is what a completion replaces.
type Caret struct {
	Prefix Token
	Start  int
	End    int
}

// NoChar is returned by ReadCharacter when none of the candidates follow.
const NoChar rune = 0

// SyntaxError is a malformed or unresolvable input at a specific offset.
type SyntaxError struct {
	Offset   int
	Expected string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Expected)
}

func Errorf(offset int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: offset, Expected: fmt.Sprintf(format, args...)}
}

// Policy decides which runes form an identifier.
type Policy struct {
	Start func(rune) bool
	Part  func(rune) bool
}

// Identifier accepts letters, digits and underscores, not starting with a
// digit.
var Identifier = Policy{
	Start: func(r rune) bool { return r == '_' || unicode.IsLetter(r) },
	Part:  func(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) },
}

// Segment accepts any non-space rune outside reserved. It is meant for
// names like "main.go" or "my-dir" where Identifier is too strict.
func Segment(reserved string) Policy {
	accept := func(r rune) bool {
		return !unicode.IsSpace(r) && !strings.ContainsRune(reserved, r)
	}
	return Policy{Start: accept, Part: accept}
}

const operatorRunes = "+-*/%<>=!&|^~?:"

func isOperator(r rune) bool {
	return strings.ContainsRune(operatorRunes, r)
}
