// Package lsp serves caret expressions to editors over the language server
// protocol. Each line of an open document is an expression: the server
// completes names at the caret, shows the resolved value on hover and
// publishes a diagnostic for every line that does not evaluate.
package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/caret/config"
)

const lsName = "caret"

type Server struct {
	cfg       *config.Config
	handler   protocol.Handler
	server    *server.Server
	version   string
	log       commonlog.Logger
	workspace *Workspace

	mu       sync.Mutex
	assembly *config.Assembly
	watcher  *Watcher
	notify   glsp.NotifyFunc
}

func NewServer(cfg *config.Config, version string) *Server {
	ls := &Server{
		cfg:     cfg,
		version: version,
		log:     commonlog.GetLogger("caret.lsp"),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
		TextDocumentHover:      ls.textDocumentHover,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	cfg := *ls.cfg
	if cfg.Root == "." {
		if params.RootPath != nil && *params.RootPath != "" {
			cfg.Root = *params.RootPath
		} else if params.RootURI != nil && *params.RootURI != "" {
			if path, err := uriToPath(*params.RootURI); err == nil {
				cfg.Root = path
			}
		}
	}

	a, err := cfg.Assemble()
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	ls.assembly = a
	ls.workspace = NewWorkspace(cfg.Root)
	ls.mu.Unlock()

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	d := a.Engine.Delimiters()
	triggerChars := []string{string(a.Engine.Separator()), string(d.Begin), string(d.Separator)}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: triggerChars,
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	ls.mu.Lock()
	ls.notify = ctx.Notify
	ls.watcher = NewWatcher(ls.workspace.Root(), ls.assembly.Cache, ls.publishAll)
	ls.mu.Unlock()

	ls.watcher.Start()
	ls.log.Noticef("watching %s", ls.workspace.Root())
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.watcher != nil {
		ls.watcher.Stop()
	}
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.workspace.UpdateFile(path, []byte(params.TextDocument.Text))
	ls.publish(ctx.Notify, params.TextDocument.URI, path)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.workspace.UpdateFile(path, []byte(textChange.Text))
			ls.publish(ctx.Notify, params.TextDocument.URI, path)
		}
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.workspace.RemoveFile(path)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.workspace.UpdateFile(path, []byte(*params.Text))
	} else if err := ls.workspace.ScanFile(path); err != nil {
		ls.log.Warningf("could not read %s: %s", path, err)
		return nil
	}
	ls.publish(ctx.Notify, params.TextDocument.URI, path)
	return nil
}

func (ls *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	doc := ls.workspace.GetFile(path)
	if doc == nil {
		return nil, nil
	}

	items, err := Completions(ls.parser(), doc, params.Position)
	if err != nil {
		ls.log.Warningf("completion in %s: %s", path, err)
		return nil, nil
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func (ls *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	doc := ls.workspace.GetFile(path)
	if doc == nil {
		return nil, nil
	}
	return Hover(ls.parser(), doc, params.Position)
}

func (ls *Server) parser() parseFunc {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.assembly.Parse
}

func (ls *Server) publish(notify glsp.NotifyFunc, uri, path string) {
	doc := ls.workspace.GetFile(path)
	if doc == nil || notify == nil {
		return
	}
	notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: Diagnostics(ls.parser(), doc),
	})
}

// publishAll refreshes the diagnostics of every open document.
func (ls *Server) publishAll() {
	ls.mu.Lock()
	notify := ls.notify
	ls.mu.Unlock()
	for _, path := range ls.workspace.Paths() {
		ls.publish(notify, pathToURI(path), path)
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
