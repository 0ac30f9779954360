// Package ui serves the parse engine over HTTP: JSON endpoints for
// completion, evaluation and tree listing, and a small page to try them.
package ui

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/caret/complete"
	"github.com/dhamidi/caret/config"
	"github.com/dhamidi/caret/format"
	"github.com/dhamidi/caret/tree"
)

//go:embed templates
var embeddedFS embed.FS

type Server struct {
	assembly  *config.Assembly
	templates *template.Template
	mux       *http.ServeMux
	log       commonlog.Logger
}

func NewServer(a *config.Assembly) (*Server, error) {
	templateFS := overlayFS("ui/templates", mustSub(embeddedFS, "templates"))

	tmpl, err := template.New("").ParseFS(templateFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		assembly:  a,
		templates: tmpl,
		mux:       http.NewServeMux(),
		log:       commonlog.GetLogger("caret.ui"),
	}

	s.mux.HandleFunc("GET /complete", s.handleComplete)
	s.mux.HandleFunc("GET /eval", s.handleEval)
	s.mux.HandleFunc("GET /tree", s.handleTree)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)
	s.log.Debug("request", "id", id, "method", r.Method, "url", r.URL.String())
	s.mux.ServeHTTP(w, r)
}

// Entry is one child listed by /tree.
type Entry struct {
	Name string `json:"name"`
	Leaf bool   `json:"leaf"`
}

type accessFailure struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	expr := r.URL.Query().Get("expr")
	caret := len(expr)
	if c := r.URL.Query().Get("caret"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			http.Error(w, "invalid caret: "+err.Error(), http.StatusBadRequest)
			return
		}
		caret = n
	}
	s.parse(w, expr, caret)
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	s.parse(w, r.URL.Query().Get("expr"), -1)
}

func (s *Server) parse(w http.ResponseWriter, expr string, caret int) {
	res, err := s.assembly.Parse(expr, caret)
	if err != nil {
		s.accessFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, format.FromResult(res))
}

// handleTree lists the children of the entry named by path, or the roots
// when path is empty.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	src := s.assembly.Engine.Source()
	path := r.URL.Query().Get("path")

	var (
		nodes []tree.Node
		err   error
	)
	if path == "" {
		nodes, err = src.Roots()
	} else {
		var res complete.Result
		res, err = s.assembly.Parse(path, -1)
		if err == nil {
			switch {
			case res.Kind == complete.Failed:
				writeJSON(w, http.StatusNotFound, format.FromResult(res))
				return
			case res.Node == nil:
				http.Error(w, "not an entry", http.StatusBadRequest)
				return
			}
			nodes, err = src.Children(res.Node)
		}
	}
	if err != nil {
		s.accessFailed(w, err)
		return
	}

	entries := make([]Entry, len(nodes))
	for i, n := range nodes {
		entries[i] = Entry{Name: n.Name(), Leaf: n.IsLeaf()}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var roots []Entry
	if nodes, err := s.assembly.Engine.Source().Roots(); err == nil {
		for _, n := range nodes {
			roots = append(roots, Entry{Name: n.Name(), Leaf: n.IsLeaf()})
		}
	}

	d := s.assembly.Engine.Delimiters()
	data := struct {
		Root      string
		Separator string
		Begin     string
		HierSep   string
		End       string
		Hierarchy bool
		Roots     []Entry
	}{
		Root:      s.assembly.Files.Root(),
		Separator: string(s.assembly.Engine.Separator()),
		Begin:     string(d.Begin),
		HierSep:   string(d.Separator),
		End:       string(d.End),
		Hierarchy: s.assembly.Hierarchy != nil,
		Roots:     roots,
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.Errorf("render index: %s", err)
	}
}

// accessFailed reports a failure to read the hierarchy, which is not a
// problem with the expression.
func (s *Server) accessFailed(w http.ResponseWriter, err error) {
	s.log.Warning(err.Error())
	status := http.StatusInternalServerError
	var ae *tree.AccessError
	if errors.As(err, &ae) {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, accessFailure{Kind: "error", Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

type overlayFSType struct {
	primary   fs.FS
	secondary fs.FS
}

// overlayFS prefers files under primaryPath on disk, so templates can be
// edited without rebuilding.
func overlayFS(primaryPath string, secondary fs.FS) fs.FS {
	return &overlayFSType{
		primary:   os.DirFS(primaryPath),
		secondary: secondary,
	}
}

func (o *overlayFSType) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return o.secondary.Open(name)
}
