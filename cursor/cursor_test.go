package cursor

import (
	"errors"
	"testing"
)

func TestReadIdentifier(t *testing.T) {
	c := New("  alpha.beta", -1)

	tok, caret, err := c.ReadIdentifier(Identifier)
	if err != nil {
		t.Fatalf("ReadIdentifier: %v", err)
	}
	if caret != nil {
		t.Fatalf("caret = %+v, want nil", caret)
	}
	want := Token{Kind: KindIdent, Text: "alpha", Start: 2, End: 7, Leading: 2}
	if tok != want {
		t.Errorf("token = %+v, want %+v", tok, want)
	}
	if c.Offset() != 7 {
		t.Errorf("Offset = %d, want %d", c.Offset(), 7)
	}
	if got := c.ReadCharacter('.'); got != '.' {
		t.Errorf("ReadCharacter = %q, want %q", got, '.')
	}
	tok, _, err = c.ReadIdentifier(Identifier)
	if err != nil {
		t.Fatalf("ReadIdentifier: %v", err)
	}
	if tok.Text != "beta" || tok.Start != 8 || tok.End != 12 {
		t.Errorf("token = %+v, want beta at 8..12", tok)
	}
	if !c.AtEnd() {
		t.Error("AtEnd = false, want true")
	}
}

func TestReadIdentifierCaret(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		caret      int
		wantPrefix string
		wantStart  int
		wantEnd    int
	}{
		{"inside", "field", 2, "fi", 0, 5},
		{"at end", "fi", 2, "fi", 0, 2},
		{"at start", "field", 0, "", 0, 5},
		{"end of input", "", 0, "", 0, 0},
		{"in leading whitespace", "a   b", 2, "", 2, 2},
		{"before delimiter", "{x", 0, "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.input, tt.caret)
			if tt.name == "in leading whitespace" {
				if _, _, err := c.ReadIdentifier(Identifier); err != nil {
					t.Fatalf("first ReadIdentifier: %v", err)
				}
			}
			_, caret, err := c.ReadIdentifier(Identifier)
			if err != nil {
				t.Fatalf("ReadIdentifier: %v", err)
			}
			if caret == nil {
				t.Fatal("caret = nil, want completion request")
			}
			if caret.Prefix.Text != tt.wantPrefix {
				t.Errorf("Prefix = %q, want %q", caret.Prefix.Text, tt.wantPrefix)
			}
			if caret.Start != tt.wantStart || caret.End != tt.wantEnd {
				t.Errorf("span = %d..%d, want %d..%d", caret.Start, caret.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestReadIdentifierCaretPastToken(t *testing.T) {
	for _, caret := range []int{-1, 3} {
		c := New("fi", caret)
		tok, at, err := c.ReadIdentifier(Identifier)
		if err != nil {
			t.Fatalf("caret %d: ReadIdentifier: %v", caret, err)
		}
		if at != nil {
			t.Errorf("caret %d: got completion request, want token", caret)
		}
		if tok.Text != "fi" {
			t.Errorf("caret %d: Text = %q, want %q", caret, tok.Text, "fi")
		}
	}
}

func TestReadIdentifierErrors(t *testing.T) {
	tests := []struct {
		input      string
		wantOffset int
		wantMsg    string
	}{
		{"", 0, "unexpected end of input, expected identifier"},
		{"   ", 3, "unexpected end of input, expected identifier"},
		{"#abc", 0, `expected identifier, found '#'`},
		{"  9x", 2, `expected identifier, found '9'`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := New(tt.input, -1)
			_, _, err := c.ReadIdentifier(Identifier)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *SyntaxError", err)
			}
			if se.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", se.Offset, tt.wantOffset)
			}
			if se.Expected != tt.wantMsg {
				t.Errorf("Expected = %q, want %q", se.Expected, tt.wantMsg)
			}
			if c.Offset() != 0 {
				t.Errorf("Offset after error = %d, want 0", c.Offset())
			}
		})
	}
}

func TestSegmentPolicy(t *testing.T) {
	c := New("src/main.go", -1)
	p := Segment("/{}#")

	tok, _, err := c.ReadIdentifier(p)
	if err != nil {
		t.Fatalf("ReadIdentifier: %v", err)
	}
	if tok.Text != "src" {
		t.Errorf("Text = %q, want %q", tok.Text, "src")
	}
	if c.ReadCharacter('/') != '/' {
		t.Fatal("separator not consumed")
	}
	tok, _, err = c.ReadIdentifier(p)
	if err != nil {
		t.Fatalf("ReadIdentifier: %v", err)
	}
	if tok.Text != "main.go" {
		t.Errorf("Text = %q, want %q", tok.Text, "main.go")
	}
}

func TestReadCharacter(t *testing.T) {
	c := New(" # x", -1)
	if got := c.ReadCharacter('}'); got != NoChar {
		t.Errorf("ReadCharacter('}') = %q, want NoChar", got)
	}
	if c.Offset() != 0 {
		t.Errorf("Offset = %d, want 0 after a miss", c.Offset())
	}
	if got := c.ReadCharacter('}', '#'); got != '#' {
		t.Errorf("ReadCharacter = %q, want '#'", got)
	}
	if c.Offset() != 2 {
		t.Errorf("Offset = %d, want 2", c.Offset())
	}
}

func TestReadCharacterLeavesDelimiterAtCaret(t *testing.T) {
	c := New("{alpha}", 0)
	if got := c.ReadCharacter('{'); got != NoChar {
		t.Errorf("ReadCharacter = %q, want NoChar", got)
	}

	c = New("{alpha}", 1)
	if got := c.ReadCharacter('{'); got != '{' {
		t.Errorf("ReadCharacter = %q, want '{'", got)
	}
}

func TestReadOperator(t *testing.T) {
	c := New("a >= b", -1)
	if _, _, err := c.ReadIdentifier(Identifier); err != nil {
		t.Fatalf("ReadIdentifier: %v", err)
	}
	tok, caret, err := c.ReadOperator()
	if err != nil || caret != nil {
		t.Fatalf("ReadOperator: %v %v", caret, err)
	}
	want := Token{Kind: KindOperator, Text: ">=", Start: 2, End: 4, Leading: 1}
	if tok != want {
		t.Errorf("token = %+v, want %+v", tok, want)
	}

	c = New("a >= b", 3)
	c.ReadIdentifier(Identifier)
	_, caret, err = c.ReadOperator()
	if err != nil {
		t.Fatalf("ReadOperator: %v", err)
	}
	if caret == nil || caret.Prefix.Text != ">" {
		t.Errorf("caret = %+v, want prefix %q", caret, ">")
	}

	_, _, err = New("abc", -1).ReadOperator()
	if err == nil {
		t.Error("expected error reading operator from identifier")
	}
}

func TestPeek(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		text  string
	}{
		{"  foo.bar", KindIdent, "foo"},
		{"== x", KindOperator, "=="},
		{"{a}", KindChar, "{"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := New(tt.input, -1)
			tok, ok := c.Peek(Identifier)
			if !ok {
				t.Fatal("Peek returned false")
			}
			if tok.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tok.Kind, tt.kind)
			}
			if tok.Text != tt.text {
				t.Errorf("Text = %q, want %q", tok.Text, tt.text)
			}
			if c.Offset() != 0 {
				t.Errorf("Peek consumed input: Offset = %d", c.Offset())
			}
		})
	}

	if _, ok := New("   ", -1).Peek(Identifier); ok {
		t.Error("Peek at end of input returned true")
	}
}
