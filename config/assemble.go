package config

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/caret/complete"
	"github.com/dhamidi/caret/cursor"
	"github.com/dhamidi/caret/member"
	"github.com/dhamidi/caret/trace"
	"github.com/dhamidi/caret/tree"
)

// Assembly is the engine and its sources built from a Config.
type Assembly struct {
	Config    *Config
	Engine    *complete.Engine
	Files     *tree.FileSource
	Cache     *tree.Cache
	Hierarchy *tree.SyntheticSource
}

// Assemble validates c and builds the sources and engine it describes.
func (c *Config) Assemble() (*Assembly, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	files, err := tree.OpenDir(c.Root)
	if err != nil {
		return nil, err
	}
	cache := tree.NewCache(files, c.Cache.TTL, tree.WithLogger(commonlog.GetLogger("caret.cache")))

	sep := firstRune(c.Separator)
	delims := complete.Delimiters{
		Begin:     firstRune(c.Delimiters.Begin),
		Separator: firstRune(c.Delimiters.Separator),
		End:       firstRune(c.Delimiters.End),
	}
	reserved := string([]rune{sep, delims.Begin, delims.Separator, delims.End})

	a := &Assembly{Config: c, Files: files, Cache: cache}
	opts := []complete.Option{
		complete.WithSeparator(sep),
		complete.WithDelimiters(delims),
		complete.WithPolicy(cursor.Segment(reserved)),
		complete.WithMembers(member.Reflect{}),
	}
	if c.Hierarchy != "" {
		h, err := tree.LoadSynthetic(c.Hierarchy)
		if err != nil {
			return nil, fmt.Errorf("loading hierarchy: %w", err)
		}
		a.Hierarchy = h
		opts = append(opts, complete.WithHierarchy(h))
	}
	a.Engine = complete.New(cache, opts...)

	log.Infof("serving %s (cache ttl %s)", files.Root(), c.Cache.TTL)
	return a, nil
}

// Tracer returns a fresh tracer for one request: a Recorder mirroring to
// the caret.trace logger when tracing is enabled, Discard otherwise.
func (a *Assembly) Tracer() trace.Tracer {
	if !a.Config.Trace.Enabled {
		return trace.Discard()
	}
	tlog := commonlog.GetLogger("caret.trace")
	opts := []trace.RecorderOption{trace.WithLogger(tlog)}
	if n := a.Config.Trace.StopAfter; n > 0 {
		opts = append(opts, trace.WithStopAfter(n, func(e trace.Entry) {
			tlog.Noticef("stop after %d entries: %s", n, e)
		}))
	}
	return trace.NewRecorder(opts...)
}

// Parse runs one request through the engine with its own tracer.
func (a *Assembly) Parse(input string, caret int) (complete.Result, error) {
	return a.Engine.Trace(a.Tracer()).Parse(input, caret)
}
