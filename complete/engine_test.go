package complete

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/caret/cursor"
	"github.com/dhamidi/caret/member"
	"github.com/dhamidi/caret/rating"
	"github.com/dhamidi/caret/trace"
	"github.com/dhamidi/caret/tree"
)

func synthetic(t *testing.T, roots ...*tree.Synthetic) *tree.SyntheticSource {
	t.Helper()
	src, err := tree.NewSyntheticSource(roots...)
	if err != nil {
		t.Fatalf("NewSyntheticSource: %v", err)
	}
	return src
}

func parse(t *testing.T, e *Engine, input string, caret int) Result {
	t.Helper()
	r, err := e.Parse(input, caret)
	if err != nil {
		t.Fatalf("Parse(%q, %d): %v", input, caret, err)
	}
	return r
}

func TestCompletePrefix(t *testing.T) {
	e := New(synthetic(t,
		tree.Leaf("field", 1),
		tree.Leaf("final", 2),
		tree.Leaf("other", 3),
	))

	r := parse(t, e, "fi", 2)
	if r.Kind != CompletionFound {
		t.Fatalf("Kind = %v, want completion (%v)", r.Kind, r)
	}
	want := []Suggestion{
		{Name: "field", Start: 0, End: 2, Rating: rating.Prefix, Kind: Leaf},
		{Name: "final", Start: 0, End: 2, Rating: rating.Prefix, Kind: Leaf},
	}
	if diff := cmp.Diff(want, r.Completions); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionOrder(t *testing.T) {
	e := New(synthetic(t,
		tree.Leaf("Value", nil),
		tree.Leaf("values", nil),
		tree.Leaf("VALUES", nil),
		tree.Leaf("value", nil),
	))

	r := parse(t, e, "value", 5)
	want := []string{"value", "Value", "values", "VALUES"}
	if diff := cmp.Diff(want, r.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionReplacesWholeRun(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("field", nil), tree.Leaf("filter", nil)))

	r := parse(t, e, "fixed", 2)
	if r.Kind != CompletionFound {
		t.Fatalf("Kind = %v, want completion (%v)", r.Kind, r)
	}
	for _, s := range r.Completions {
		if s.Start != 0 || s.End != 5 {
			t.Errorf("%s spans [%d,%d), want [0,5)", s.Name, s.Start, s.End)
		}
	}
}

func TestCompleteEmptyInput(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("b", nil), tree.Leaf("a", nil)))

	r := parse(t, e, "", 0)
	if diff := cmp.Diff([]string{"a", "b"}, r.Names()); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}
	if r.Completions[0].Rating != rating.Prefix {
		t.Errorf("Rating = %v, want prefix", r.Completions[0].Rating)
	}
}

func TestNothingMatchesFails(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("field", nil), tree.Leaf("final", nil)))

	r := parse(t, e, "xyz", 3)
	if r.Kind != Failed {
		t.Fatalf("Kind = %v, want failed (%v)", r.Kind, r)
	}
	if r.Err.Offset != 0 {
		t.Errorf("Offset = %d, want 0", r.Err.Offset)
	}
	if !strings.Contains(r.Err.Expected, `no such entry "xyz"`) {
		t.Errorf("Expected = %q, want no such entry", r.Err.Expected)
	}
	if len(r.Completions) != 0 {
		t.Errorf("failed result carries completions %v", r.Names())
	}
}

func TestDidYouMean(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("final", nil), tree.Leaf("other", nil)))

	r := parse(t, e, "fnal", -1)
	if r.Kind != Failed {
		t.Fatalf("Kind = %v, want failed", r.Kind)
	}
	want := `no such entry "fnal"; did you mean "final"?`
	if r.Err.Expected != want {
		t.Errorf("Expected = %q, want %q", r.Err.Expected, want)
	}
}

func TestExactCaseWins(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("Value", "upper"), tree.Leaf("value", "lower")))

	for _, caret := range []int{-1, 6, 99} {
		r := parse(t, e, "value", caret)
		if r.Kind != Succeeded {
			t.Fatalf("caret %d: Kind = %v, want succeeded (%v)", caret, r.Kind, r)
		}
		if r.Value != "lower" {
			t.Errorf("caret %d: Value = %v, want lower", caret, r.Value)
		}
	}
}

func TestAmbiguousReference(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("field", nil), tree.Leaf("final", nil)))

	r := parse(t, e, "fi", -1)
	if r.Kind != Failed {
		t.Fatalf("Kind = %v, want failed", r.Kind)
	}
	want := `ambiguous reference "fi": could be "field", "final"`
	if r.Err.Expected != want {
		t.Errorf("Expected = %q, want %q", r.Err.Expected, want)
	}
}

func TestUniquePrefixResolves(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("field", 1), tree.Leaf("other", 2)))

	r := parse(t, e, "oth", -1)
	if r.Kind != Succeeded || r.Value != 2 {
		t.Errorf("got %v, want succeeded with 2", r)
	}
}

func TestCaretSensitivity(t *testing.T) {
	e := New(synthetic(t,
		tree.Branch("alpha", nil, tree.Leaf("beta", "b")),
		tree.Leaf("almost", nil),
	))

	tests := []struct {
		input string
		caret int
		want  Kind
	}{
		{"alpha.beta", 2, CompletionFound},
		{"alpha.beta", 5, CompletionFound},
		{"alpha.beta", 6, CompletionFound},
		{"alpha.beta", 10, CompletionFound},
		{"alpha.beta", 11, Succeeded},
		{"alpha.beta", -1, Succeeded},
		{"alpha.bet", 9, CompletionFound},
		{"alpha.bex", 9, Failed},
		{"alpha.bex", -1, Failed},
		{"alpha beta", -1, Failed},
	}

	for _, tt := range tests {
		r := parse(t, e, tt.input, tt.caret)
		if r.Kind != tt.want {
			t.Errorf("Parse(%q, %d) = %v, want %v", tt.input, tt.caret, r, tt.want)
		}
	}
}

func TestTrailingInput(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("alpha", nil)))

	r := parse(t, e, "alpha beta", -1)
	if r.Kind != Failed {
		t.Fatalf("Kind = %v, want failed", r.Kind)
	}
	if r.Err.Offset != 6 || !strings.HasPrefix(r.Err.Expected, "expected end of input") {
		t.Errorf("Err = %v, want expected end of input at 6", r.Err)
	}
}

func TestCaretBeforeDelimiter(t *testing.T) {
	e := New(synthetic(t, tree.Branch("alpha", "a", tree.Leaf("beta", "b"))),
		WithHierarchy(synthetic(t, tree.Branch("prod", nil, tree.Leaf("web", "w")))))

	tests := []struct {
		input  string
		caret  int
		offset int
		want   string
	}{
		{"alpha .beta", 6, 6, `nothing to complete before '.'`},
		{"alpha  .beta", 6, 6, `nothing to complete before '.'`},
		{"{prod #web}", 6, 6, `nothing to complete before '#'`},
		{"{prod#web }", 10, 10, `nothing to complete before '}'`},
	}

	for _, tt := range tests {
		r := parse(t, e, tt.input, tt.caret)
		if r.Kind != Failed {
			t.Errorf("Parse(%q, %d) = %v, want failed", tt.input, tt.caret, r)
			continue
		}
		if r.Err.Offset != tt.offset || r.Err.Expected != tt.want {
			t.Errorf("Parse(%q, %d) err = %d %q, want %d %q", tt.input, tt.caret, r.Err.Offset, r.Err.Expected, tt.offset, tt.want)
		}
	}

	if r := parse(t, e, "alpha .beta", -1); r.Kind != Succeeded || r.Value != "b" {
		t.Errorf("Parse without caret = %v, want succeeded with beta", r)
	}
}

func TestSyntaxErrors(t *testing.T) {
	e := New(synthetic(t, tree.Branch("alpha", nil, tree.Leaf("beta", nil))))

	tests := []struct {
		input  string
		offset int
		want   string
	}{
		{"", 0, "unexpected end of input, expected identifier"},
		{"alpha.", 6, "unexpected end of input, expected identifier"},
		{"alpha..beta", 6, "expected identifier, found '.'"},
		{"1alpha", 0, "expected identifier, found '1'"},
	}

	for _, tt := range tests {
		r := parse(t, e, tt.input, -1)
		if r.Kind != Failed {
			t.Errorf("Parse(%q) = %v, want failed", tt.input, r)
			continue
		}
		if r.Err.Offset != tt.offset || r.Err.Expected != tt.want {
			t.Errorf("Parse(%q) err = %d %q, want %d %q", tt.input, r.Err.Offset, r.Err.Expected, tt.offset, tt.want)
		}
	}
}

func TestCustomHierarchy(t *testing.T) {
	hier := synthetic(t, tree.Branch("alpha", "a", tree.Leaf("beta", 42)))
	e := New(synthetic(t, tree.Leaf("ordinary", nil)), WithHierarchy(hier))

	r := parse(t, e, "{alpha#beta}", len("{alpha#beta}"))
	if r.Kind != Succeeded {
		t.Fatalf("Kind = %v, want succeeded (%v)", r.Kind, r)
	}
	if r.Node.Name() != "beta" || r.Value != 42 {
		t.Errorf("got %s = %v, want beta = 42", r.Node.Name(), r.Value)
	}

	r = parse(t, e, "{alpha#b}", 8)
	if diff := cmp.Diff([]string{"beta"}, r.Names()); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}
	if s := r.Completions[0]; s.Start != 7 || s.End != 8 {
		t.Errorf("span = [%d,%d), want [7,8)", s.Start, s.End)
	}

	r = parse(t, e, "{", 1)
	if diff := cmp.Diff([]string{"alpha"}, r.Names()); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}

	r = parse(t, e, "ord", 3)
	if diff := cmp.Diff([]string{"ordinary"}, r.Names()); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomHierarchyErrors(t *testing.T) {
	hier := synthetic(t, tree.Branch("alpha", nil, tree.Leaf("beta", 42)))
	e := New(synthetic(t), WithHierarchy(hier))

	tests := []struct {
		input  string
		offset int
		want   string
	}{
		{"{alpha#beta", 11, `expected '}'`},
		{"{alpha.beta}", 6, `expected '}'`},
		{"{alpha#beta#x}", 12, `no such entry "x"`},
		{"{gamma}", 1, `no such entry "gamma"`},
	}

	for _, tt := range tests {
		r := parse(t, e, tt.input, -1)
		if r.Kind != Failed {
			t.Errorf("Parse(%q) = %v, want failed", tt.input, r)
			continue
		}
		if r.Err.Offset != tt.offset || !strings.HasPrefix(r.Err.Expected, tt.want) {
			t.Errorf("Parse(%q) err = %d %q, want %d %q", tt.input, r.Err.Offset, r.Err.Expected, tt.offset, tt.want)
		}
	}
}

func TestCustomDelimiters(t *testing.T) {
	hier := synthetic(t, tree.Branch("a", nil, tree.Leaf("b", "ok")))
	e := New(synthetic(t), WithHierarchy(hier), WithDelimiters(Delimiters{Begin: '<', Separator: ':', End: '>'}))

	r := parse(t, e, "<a:b>", -1)
	if r.Kind != Succeeded || r.Value != "ok" {
		t.Errorf("got %v, want succeeded with ok", r)
	}
}

func TestWithoutHierarchyBeginIsSyntaxError(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("a", nil)))

	r := parse(t, e, "{a}", -1)
	if r.Kind != Failed || r.Err.Expected != "expected identifier, found '{'" {
		t.Errorf("got %v, want expected identifier", r)
	}
}

func TestAlternateRoots(t *testing.T) {
	main := synthetic(t, tree.Leaf("field", "main"))
	alt := synthetic(t, tree.Leaf("filter", "alt"), tree.Leaf("field", "shadow"))
	e := New(main, WithAlternateRoots(alt))

	r := parse(t, e, "fi", 2)
	if diff := cmp.Diff([]string{"field", "filter"}, r.Names()); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}

	r = parse(t, e, "filter", -1)
	if r.Kind != Succeeded || r.Value != "alt" {
		t.Errorf("got %v, want alt", r)
	}

	r = parse(t, e, "field", -1)
	if r.Kind != Failed || !strings.HasPrefix(r.Err.Expected, "ambiguous reference") {
		t.Errorf("got %v, want ambiguous reference", r)
	}
}

type server struct {
	Host string
	Port int
}

func (s server) Address() string { return s.Host + ":" + strconv.Itoa(s.Port) }

func (s server) Ping() (bool, error) { return false, errors.New("connection refused") }

func TestMembers(t *testing.T) {
	src := synthetic(t,
		tree.Branch("config", nil,
			tree.Leaf("server", server{Host: "localhost", Port: 8080}),
		),
	)
	e := New(src, WithMembers(member.Reflect{}))

	r := parse(t, e, "config.server.Port", -1)
	if r.Kind != Succeeded || r.Value != 8080 {
		t.Errorf("got %v, want 8080", r)
	}
	if r.Node.Name() != "server" {
		t.Errorf("Node = %s, want server", r.Node.Name())
	}

	r = parse(t, e, "config.server.Address", -1)
	if r.Value != "localhost:8080" {
		t.Errorf("Value = %v, want localhost:8080", r.Value)
	}

	r = parse(t, e, "config.server.", 14)
	want := []Suggestion{
		{Name: "Address", Start: 14, End: 14, Rating: rating.Prefix, Kind: Method, Detail: "string"},
		{Name: "Host", Start: 14, End: 14, Rating: rating.Prefix, Kind: Field, Detail: "string"},
		{Name: "Ping", Start: 14, End: 14, Rating: rating.Prefix, Kind: Method, Detail: "bool"},
		{Name: "Port", Start: 14, End: 14, Rating: rating.Prefix, Kind: Field, Detail: "int"},
	}
	if diff := cmp.Diff(want, r.Completions); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}

	r = parse(t, e, "config.server.Prt", -1)
	if r.Kind != Failed || r.Err.Expected != `no such member "Prt"; did you mean "Port"?` {
		t.Errorf("got %v, want no such member", r)
	}

	_, err := e.Parse("config.server.Ping", -1)
	var re *member.ReadError
	if !errors.As(err, &re) {
		t.Errorf("err = %v, want *member.ReadError", err)
	}
}

func TestMembersAfterHierarchy(t *testing.T) {
	hier := synthetic(t, tree.Branch("prod", nil, tree.Leaf("web", server{Host: "example.com", Port: 443})))
	e := New(synthetic(t), WithHierarchy(hier), WithMembers(member.Reflect{}))

	r := parse(t, e, "{prod#web}.Host", -1)
	if r.Kind != Succeeded || r.Value != "example.com" {
		t.Errorf("got %v, want example.com", r)
	}

	r = parse(t, e, "{prod#web}.Po", 13)
	if diff := cmp.Diff([]string{"Port"}, r.Names()); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}
}

func TestLeafWithoutMembers(t *testing.T) {
	e := New(synthetic(t, tree.Leaf("leaf", server{})))

	r := parse(t, e, "leaf.Port", -1)
	if r.Kind != Failed || r.Err.Expected != `no such entry "Port"` {
		t.Errorf("got %v, want no such entry", r)
	}
}

func fileEngine(fsys fs.FS) *Engine {
	return New(tree.NewFileSource(fsys, ""),
		WithSeparator('/'),
		WithPolicy(cursor.Segment("/{}#")),
		WithMembers(member.Reflect{}),
	)
}

func TestFileSource(t *testing.T) {
	fsys := fstest.MapFS{
		"README.md":   {Data: []byte("# readme")},
		"src/main.go": {Data: []byte("package main\n")},
		"src/util.go": {Data: []byte("package main")},
	}
	e := fileEngine(fsys)

	r := parse(t, e, "src/ma", 6)
	want := []Suggestion{{Name: "main.go", Start: 4, End: 6, Rating: rating.Prefix, Kind: Leaf}}
	if diff := cmp.Diff(want, r.Completions); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}

	r = parse(t, e, "src/", 4)
	if diff := cmp.Diff([]string{"main.go", "util.go"}, r.Names()); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}

	r = parse(t, e, "src/main.go/Size", -1)
	if r.Kind != Succeeded || r.Value != int64(13) {
		t.Errorf("got %v, want 13", r)
	}

	r = parse(t, e, "src/missing.go", -1)
	if r.Kind != Failed || !strings.HasPrefix(r.Err.Expected, `no such entry "missing.go"`) {
		t.Errorf("got %v, want no such entry", r)
	}
}

type brokenFS struct{}

func (brokenFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

func TestAccessErrorPropagates(t *testing.T) {
	e := fileEngine(brokenFS{})

	for _, tt := range []struct {
		input string
		caret int
	}{
		{"src", 3},
		{"src", -1},
		{"", 0},
	} {
		r, err := e.Parse(tt.input, tt.caret)
		var ae *tree.AccessError
		if !errors.As(err, &ae) {
			t.Errorf("Parse(%q, %d) = %v, %v, want *tree.AccessError", tt.input, tt.caret, r, err)
			continue
		}
		if !strings.HasPrefix(err.Error(), "could not ") {
			t.Errorf("err = %q, want could not ...", err)
		}
	}
}

func TestTracer(t *testing.T) {
	rec := trace.NewRecorder()
	base := New(synthetic(t, tree.Branch("alpha", nil, tree.Leaf("beta", 1))))
	e := base.Trace(rec)

	parse(t, e, "alpha.beta", -1)
	parse(t, e, "alpha.b", 7)
	parse(t, e, "alpha.x", -1)

	if rec.Depth() != 0 {
		t.Errorf("Depth() = %d after parses, want 0", rec.Depth())
	}

	var levels []trace.Level
	for _, en := range rec.Entries() {
		levels = append(levels, en.Level)
	}
	if len(levels) == 0 {
		t.Fatal("no trace entries recorded")
	}
	if levels[len(levels)-1] != trace.Error {
		t.Errorf("last level = %v, want error", levels[len(levels)-1])
	}
	if base.tracer == e.tracer {
		t.Error("Trace should not modify the original engine")
	}
}

func TestDanglingLinkIsNeverOffered(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "data.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("nowhere", filepath.Join(dir, "dangling")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	src, err := tree.OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	e := New(src, WithSeparator('/'), WithPolicy(cursor.Segment("/")))

	r := parse(t, e, "da", 2)
	if diff := cmp.Diff([]string{"data.txt"}, r.Names()); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}

	r = parse(t, e, "dangling", -1)
	if r.Kind != Failed || !strings.HasPrefix(r.Err.Expected, `no such entry "dangling"`) {
		t.Errorf("Parse(dangling) = %v, want no such entry", r)
	}
}

func TestCacheInFront(t *testing.T) {
	fsys := &countingFS{fsys: fstest.MapFS{"a/b.txt": {}, "a/c.txt": {}}}
	cache := tree.NewCache(tree.NewFileSource(fsys, ""), 1<<62)
	e := New(cache, WithSeparator('/'), WithPolicy(cursor.Segment("/")))

	for range 3 {
		parse(t, e, "a/", 2)
	}
	if fsys.opens != 2 {
		t.Errorf("opens = %d, want 2", fsys.opens)
	}
}

type countingFS struct {
	fsys  fs.FS
	opens int
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens++
	return c.fsys.Open(name)
}
