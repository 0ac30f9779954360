package lsp

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/caret/complete"
	"github.com/dhamidi/caret/cursor"
	"github.com/dhamidi/caret/tree"
)

const diagnosticSource = "caret"

// parseFunc parses one expression; config.Assembly.Parse satisfies it.
type parseFunc func(input string, caret int) (complete.Result, error)

// Completions returns the completion items for the caret at pos.
func Completions(parse parseFunc, doc *Document, pos protocol.Position) ([]protocol.CompletionItem, error) {
	line, ok := doc.Line(int(pos.Line))
	if !ok {
		return nil, nil
	}
	r, err := parse(line, byteOffset(line, pos.Character))
	if err != nil {
		return nil, err
	}
	if r.Kind != complete.CompletionFound {
		return nil, nil
	}

	items := make([]protocol.CompletionItem, len(r.Completions))
	for i, s := range r.Completions {
		kind := toProtocolKind(s.Kind)
		detail := s.Detail
		if detail == "" {
			detail = s.Kind.String()
		}
		// Clients sort by SortText; keep the engine's order.
		sortText := fmt.Sprintf("%04d", i)
		items[i] = protocol.CompletionItem{
			Label:    s.Name,
			Kind:     &kind,
			Detail:   &detail,
			SortText: &sortText,
			TextEdit: protocol.TextEdit{
				Range: protocol.Range{
					Start: protocol.Position{Line: pos.Line, Character: utf16Column(line, s.Start)},
					End:   protocol.Position{Line: pos.Line, Character: utf16Column(line, s.End)},
				},
				NewText: s.Name,
			},
		}
	}
	return items, nil
}

// Hover describes the value the expression on pos's line resolves to.
func Hover(parse parseFunc, doc *Document, pos protocol.Position) (*protocol.Hover, error) {
	line, ok := doc.Line(int(pos.Line))
	if !ok {
		return nil, nil
	}
	r, err := parse(line, -1)
	if err != nil {
		return hoverText(fmt.Sprintf("**error**: %s", err)), nil
	}
	if r.Kind != complete.Succeeded {
		return nil, nil
	}
	return hoverText(fmt.Sprintf("`%T`\n\n```\n%v\n```", r.Value, r.Value)), nil
}

func hoverText(s string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: s},
	}
}

// Diagnostics evaluates every expression line of doc. Syntax errors are
// errors; failures to read the hierarchy are warnings, so they are not
// mistaken for mistakes in the expression.
func Diagnostics(parse parseFunc, doc *Document) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	for _, l := range doc.Lines() {
		r, err := parse(l.Text, -1)
		switch {
		case err != nil:
			diags = append(diags, diagnostic(l, 0, len(l.Text), protocol.DiagnosticSeverityWarning, accessMessage(err)))
		case r.Kind == complete.Failed:
			diags = append(diags, syntaxDiagnostic(l, r.Err))
		}
	}
	return diags
}

func syntaxDiagnostic(l Line, se *cursor.SyntaxError) protocol.Diagnostic {
	end := se.Offset
	if end < len(l.Text) {
		_, size := utf8.DecodeRuneInString(l.Text[end:])
		end += size
	}
	return diagnostic(l, se.Offset, end, protocol.DiagnosticSeverityError, se.Expected)
}

func accessMessage(err error) string {
	var ae *tree.AccessError
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return "could not evaluate: " + err.Error()
}

func diagnostic(l Line, start, end int, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	source := diagnosticSource
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(l.Number), Character: utf16Column(l.Text, start)},
			End:   protocol.Position{Line: protocol.UInteger(l.Number), Character: utf16Column(l.Text, end)},
		},
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

// byteOffset converts a UTF-16 column into a byte offset of line. Columns
// past the end map to len(line).
func byteOffset(line string, col protocol.UInteger) int {
	units := 0
	for i, r := range line {
		if units >= int(col) {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}

// utf16Column converts a byte offset of line into a UTF-16 column.
func utf16Column(line string, off int) protocol.UInteger {
	if off > len(line) {
		off = len(line)
	}
	units := 0
	for _, r := range line[:off] {
		units += utf16.RuneLen(r)
	}
	return protocol.UInteger(units)
}

func toProtocolKind(kind complete.SuggestionKind) protocol.CompletionItemKind {
	switch kind {
	case complete.Branch:
		return protocol.CompletionItemKindFolder
	case complete.Leaf:
		return protocol.CompletionItemKindFile
	case complete.Method:
		return protocol.CompletionItemKindMethod
	case complete.Field:
		return protocol.CompletionItemKindField
	case complete.Key:
		return protocol.CompletionItemKindProperty
	default:
		return protocol.CompletionItemKindText
	}
}
