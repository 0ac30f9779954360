// Package complete parses partially typed path expressions against a
// hierarchy and, at the caret, reports ranked suggestions instead of a
// value.
//
// An expression is a chain of names joined by a separator, for example
// "src/main.go" or "config.Server.Port". Names resolve against the roots
// of the engine's Source, then against the children of each resolved node.
// Once a leaf is reached and an introspector is configured, the remaining
// names select members of the leaf's payload.
//
// An expression may instead start with a custom hierarchy reference such
// as "{alpha#beta}", which resolves against a second, injected Source.
// A separator after the closing delimiter continues into the members of
// the resolved payload.
package complete

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dhamidi/caret/cursor"
	"github.com/dhamidi/caret/member"
	"github.com/dhamidi/caret/rating"
	"github.com/dhamidi/caret/trace"
	"github.com/dhamidi/caret/tree"
)

// Delimiters bracket a custom hierarchy reference.
type Delimiters struct {
	Begin     rune
	Separator rune
	End       rune
}

var DefaultDelimiters = Delimiters{Begin: '{', Separator: '#', End: '}'}

// Engine is immutable once built and safe for concurrent use as long as
// its sources are.
type Engine struct {
	src        tree.Source
	alternates []tree.Source
	hierarchy  tree.Source
	delims     Delimiters
	sep        rune
	policy     cursor.Policy
	members    member.Introspector
	tracer     trace.Tracer
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithDelimiters sets the characters of custom hierarchy references.
func WithDelimiters(d Delimiters) Option {
	return func(e *Engine) { e.delims = d }
}

// WithSeparator sets the rune between names of an ordinary path.
func WithSeparator(r rune) Option {
	return func(e *Engine) { e.sep = r }
}

func WithPolicy(p cursor.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithHierarchy enables custom hierarchy references resolved against src.
func WithHierarchy(src tree.Source) Option {
	return func(e *Engine) { e.hierarchy = src }
}

// WithAlternateRoots adds the roots of srcs to the first segment's
// candidates.
func WithAlternateRoots(srcs ...tree.Source) Option {
	return func(e *Engine) { e.alternates = append(e.alternates, srcs...) }
}

// WithMembers lets paths continue into the members of leaf payloads.
func WithMembers(in member.Introspector) Option {
	return func(e *Engine) { e.members = in }
}

func New(src tree.Source, opts ...Option) *Engine {
	e := &Engine{
		src:    src,
		delims: DefaultDelimiters,
		sep:    '.',
		policy: cursor.Identifier,
		tracer: trace.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Trace returns a copy of the engine that logs to t.
func (e *Engine) Trace(t trace.Tracer) *Engine {
	cp := *e
	cp.tracer = t
	return &cp
}

func (e *Engine) Source() tree.Source    { return e.src }
func (e *Engine) Hierarchy() tree.Source { return e.hierarchy }
func (e *Engine) Separator() rune        { return e.sep }
func (e *Engine) Delimiters() Delimiters { return e.delims }

// position is where the descent stands: a node of src, optionally followed
// by a value read from members.
type position struct {
	src      tree.Source
	node     tree.Node
	value    any
	hasValue bool
}

// Parse parses input with the caret at the given byte offset. A caret of
// -1 evaluates the whole input without completing.
//
// The returned error is reserved for failures to read the hierarchy or a
// member; malformed input is reported as a Failed result.
func (e *Engine) Parse(input string, caret int) (Result, error) {
	defer trace.Scope(e.tracer)()
	trace.Logf(e.tracer, "parse", trace.Info, "%q caret=%d", input, caret)

	c := cursor.New(input, caret)

	var (
		pos position
		res *Result
		err error
	)
	if e.hierarchy != nil && c.ReadCharacter(e.delims.Begin) == e.delims.Begin {
		pos, res, err = e.parseHierarchy(c)
	} else {
		pos, res, err = e.parsePath(c, position{}, e.rootScope())
	}
	if err != nil {
		e.tracer.Log("parse", trace.Error, err.Error())
		return Result{}, err
	}
	if res != nil {
		return *res, nil
	}

	if r, ok := e.caretBlocks(c); ok {
		return e.blocked(c, r), nil
	}
	if !c.AtEnd() {
		tok, _ := c.Peek(e.policy)
		r := failed(cursor.Errorf(tok.Start, "expected end of input, found %q", tok.Text))
		e.tracer.Log("parse", trace.Error, r.Err.Error())
		return r, nil
	}
	return e.succeed(pos)
}

func (e *Engine) succeed(pos position) (Result, error) {
	r := Result{Kind: Succeeded, Node: pos.node, Value: pos.value}
	if !pos.hasValue && pos.node != nil {
		v, err := pos.src.Payload(pos.node)
		if err != nil {
			return Result{}, err
		}
		r.Value = v
	}
	trace.Logf(e.tracer, "parse", trace.Success, "%v", r)
	return r, nil
}

func (e *Engine) parseHierarchy(c *cursor.Cursor) (position, *Result, error) {
	defer trace.Scope(e.tracer)()

	pos, res, err := e.descend(c, position{}, nodeScope{src: e.hierarchy}, e.delims.Separator, e.nodeOnly)
	if err != nil || res != nil {
		return pos, res, err
	}

	if c.ReadCharacter(e.delims.End) == cursor.NoChar {
		if d, ok := e.caretBlocks(c, e.delims.End); ok {
			r := e.blocked(c, d)
			return pos, &r, nil
		}
		r := failed(cursor.Errorf(c.Offset(), "expected %q", e.delims.End))
		return pos, &r, nil
	}
	trace.Logf(e.tracer, "hierarchy", trace.Success, "resolved %s", pos.node.Name())

	if c.ReadCharacter(e.sep) == cursor.NoChar {
		return pos, nil, nil
	}
	v, err := pos.src.Payload(pos.node)
	if err != nil {
		return pos, nil, err
	}
	pos.value, pos.hasValue = v, true
	return e.parsePath(c, pos, e.scopeAt(pos))
}

func (e *Engine) parsePath(c *cursor.Cursor, pos position, first scope) (position, *Result, error) {
	defer trace.Scope(e.tracer)()
	return e.descend(c, pos, first, e.sep, e.scopeAt)
}

// nodeOnly keeps a custom hierarchy reference among nodes; members are
// only reachable after the closing delimiter.
func (e *Engine) nodeOnly(pos position) scope {
	if pos.node.IsLeaf() {
		return emptyScope{}
	}
	return nodeScope{src: pos.src, parent: pos.node}
}

// descend resolves sep-separated names, starting in first and moving to
// next(pos) after each one.
func (e *Engine) descend(c *cursor.Cursor, pos position, first scope, sep rune, next func(position) scope) (position, *Result, error) {
	sc := first
	for {
		cand, res, err := e.segment(c, sc)
		if err != nil || res != nil {
			return pos, res, err
		}
		if pos, err = e.enter(pos, cand); err != nil {
			return pos, nil, err
		}
		if c.ReadCharacter(sep) == cursor.NoChar {
			return pos, nil, nil
		}
		sc = next(pos)
	}
}

// segment reads one name and picks the candidate it refers to. A non-nil
// Result ends the parse.
func (e *Engine) segment(c *cursor.Cursor, sc scope) (candidate, *Result, error) {
	defer trace.Scope(e.tracer)()

	tok, at, err := c.ReadIdentifier(e.policy)
	if err != nil {
		var se *cursor.SyntaxError
		if errors.As(err, &se) {
			r := failed(se)
			e.tracer.Log(sc.what(), trace.Error, se.Error())
			return candidate{}, &r, nil
		}
		return candidate{}, nil, err
	}
	if at != nil {
		r, err := e.complete(sc, at)
		return candidate{}, r, err
	}

	exact, err := sc.lookup(tok.Text)
	if err != nil {
		return candidate{}, nil, err
	}
	if len(exact) == 1 {
		trace.Logf(e.tracer, sc.what(), trace.Success, "%q", tok.Text)
		return exact[0], nil, nil
	}

	cands, err := sc.candidates()
	if err != nil {
		return candidate{}, nil, err
	}
	names := make([]string, len(cands))
	for i, cd := range cands {
		names[i] = cd.name
	}
	idx, top := rating.Best(names, tok.Text)

	switch len(idx) {
	case 0:
		msg := fmt.Sprintf("no such %s %q", sc.what(), tok.Text)
		if hint, ok := rating.Closest(tok.Text, names); ok {
			msg += fmt.Sprintf("; did you mean %q?", hint)
		}
		r := failed(cursor.Errorf(tok.Start, "%s", msg))
		e.tracer.Log(sc.what(), trace.Error, msg)
		return candidate{}, &r, nil
	case 1:
		cd := cands[idx[0]]
		trace.Logf(e.tracer, sc.what(), trace.Success, "%q matches %q (%s)", tok.Text, cd.name, top)
		return cd, nil, nil
	default:
		quoted := make([]string, len(idx))
		for i, j := range idx {
			quoted[i] = fmt.Sprintf("%q", names[j])
		}
		r := failed(cursor.Errorf(tok.Start, "ambiguous reference %q: could be %s", tok.Text, strings.Join(quoted, ", ")))
		e.tracer.Log(sc.what(), trace.Error, r.Err.Expected)
		return candidate{}, &r, nil
	}
}

// complete rates every candidate of sc against the text before the caret.
// An empty set is a failure: nothing could be typed here.
func (e *Engine) complete(sc scope, at *cursor.Caret) (*Result, error) {
	cands, err := sc.candidates()
	if err != nil {
		return nil, err
	}

	typed := at.Prefix.Text
	var set completionSet
	for _, cd := range cands {
		rt := rating.Rate(cd.name, typed)
		if rt == rating.NoMatch {
			continue
		}
		set.add(Suggestion{
			Name:   cd.name,
			Start:  at.Start,
			End:    at.End,
			Rating: rt,
			Kind:   cd.kind,
			Detail: cd.detail,
		})
	}

	if len(set.list) == 0 {
		r := failed(cursor.Errorf(at.Start, "no such %s %q", sc.what(), typed))
		e.tracer.Log(sc.what(), trace.Error, r.Err.Expected)
		return &r, nil
	}
	r := Result{Kind: CompletionFound, Completions: set.sorted()}
	trace.Logf(e.tracer, sc.what(), trace.Success, "%d completions for %q", len(r.Completions), typed)
	return &r, nil
}

func (e *Engine) enter(pos position, cd candidate) (position, error) {
	if !cd.isMember() {
		return position{src: cd.src, node: cd.node}, nil
	}
	v, err := cd.member.Read()
	if err != nil {
		return pos, err
	}
	pos.value, pos.hasValue = v, true
	return pos, nil
}

func (e *Engine) rootScope() scope {
	root := nodeScope{src: e.src}
	if len(e.alternates) == 0 {
		return root
	}
	u := unionScope{root}
	for _, alt := range e.alternates {
		u = append(u, nodeScope{src: alt})
	}
	return u
}

// scopeAt returns the candidates that may follow pos on an ordinary path.
func (e *Engine) scopeAt(pos position) scope {
	switch {
	case pos.hasValue:
		if e.members == nil {
			return emptyScope{}
		}
		return memberScope{value: pos.value, in: e.members}
	case !pos.node.IsLeaf():
		return nodeScope{src: pos.src, parent: pos.node}
	case e.members != nil:
		return lazyMemberScope{pos: pos, in: e.members}
	default:
		return emptyScope{}
	}
}

// caretBlocks reports the delimiter that ReadCharacter left unread
// because the caret sits in front of it.
func (e *Engine) caretBlocks(c *cursor.Cursor, extra ...rune) (rune, bool) {
	rest := c.Input()[c.Offset():]
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if trimmed == "" || c.Caret() < c.Offset() {
		return cursor.NoChar, false
	}
	r, _ := utf8.DecodeRuneInString(trimmed)
	start := len(c.Input()) - len(trimmed)
	delims := append([]rune{e.sep, e.delims.Separator, e.delims.End}, extra...)
	if c.Caret() > start || !slices.Contains(delims, r) {
		return cursor.NoChar, false
	}
	return r, true
}

// blocked fails a parse whose caret sits in front of delimiter d. Nothing
// can be completed there, and the input after the caret is never consumed.
func (e *Engine) blocked(c *cursor.Cursor, d rune) Result {
	r := failed(cursor.Errorf(c.Caret(), "nothing to complete before %q", d))
	e.tracer.Log("parse", trace.Error, r.Err.Error())
	return r
}

// lazyMemberScope reads the payload of a leaf only when its members are
// actually needed.
type lazyMemberScope struct {
	pos position
	in  member.Introspector
}

func (s lazyMemberScope) what() string { return "member" }

func (s lazyMemberScope) resolve() (memberScope, error) {
	v, err := s.pos.src.Payload(s.pos.node)
	if err != nil {
		return memberScope{}, err
	}
	return memberScope{value: v, in: s.in}, nil
}

func (s lazyMemberScope) candidates() ([]candidate, error) {
	ms, err := s.resolve()
	if err != nil {
		return nil, err
	}
	return ms.candidates()
}

func (s lazyMemberScope) lookup(name string) ([]candidate, error) {
	ms, err := s.resolve()
	if err != nil {
		return nil, err
	}
	return ms.lookup(name)
}
