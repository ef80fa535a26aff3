package cst

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// redirectSink is one open destination a tee/print/emit statement's
// `> expr` / `>> expr` / `| expr` suffix writes to, spec.md §4.H:
// "Redirection sinks are cached: one open handle per distinct evaluated
// target string; first-touch determines truncate-vs-append."
type redirectSink struct {
	id  string // xid-tagged identity for this sink, for diagnostics/dump
	w   io.Writer
	f   *os.File
	cmd *exec.Cmd
}

// RedirectCache caches one open sink per distinct evaluated target string,
// keyed by the literal target text (not by an xid -- xid instead tags
// each sink's own identity at creation, giving every open handle a stable
// diagnostic name independent of the target string that produced it).
type RedirectCache struct {
	sinks map[string]*redirectSink
}

// NewRedirectCache allocates an empty cache.
func NewRedirectCache() *RedirectCache {
	return &RedirectCache{sinks: make(map[string]*redirectSink)}
}

// sinkKind selects truncate/append/pipe, mirroring ast.RedirectKind
// without cst importing ast just for this.
type sinkKind int

const (
	sinkTruncate sinkKind = iota
	sinkAppend
	sinkPipe
)

// Get returns the writer for target, opening it (truncate, append, or a
// piped subprocess's stdin) on first touch and reusing it on every later
// call with the same target string -- spec.md §4.H's "first-touch
// determines truncate-vs-append".
func (c *RedirectCache) Get(target string, kind sinkKind) (io.Writer, error) {
	if target == "stdout" {
		return os.Stdout, nil
	}
	if target == "stderr" {
		return os.Stderr, nil
	}
	if s, ok := c.sinks[target]; ok {
		return s.w, nil
	}
	var s *redirectSink
	switch kind {
	case sinkPipe:
		argv, err := shlex.Split(target)
		if err != nil || len(argv) == 0 {
			return nil, errors.Wrapf(err, "redirect: shlex.Split(%q)", target)
		}
		cmd := exec.Command(argv[0], argv[1:]...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, errors.Wrapf(err, "redirect: Cmd.StdinPipe")
		}
		if err := cmd.Start(); err != nil {
			return nil, errors.Wrapf(err, "redirect: Cmd.Start(%q)", target)
		}
		s = &redirectSink{id: xid.New().String(), w: stdin, cmd: cmd}
	case sinkAppend:
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "redirect: open append %q", target)
		}
		s = &redirectSink{id: xid.New().String(), w: f, f: f}
	default:
		f, err := os.Create(target)
		if err != nil {
			return nil, errors.Wrapf(err, "redirect: create %q", target)
		}
		s = &redirectSink{id: xid.New().String(), w: f, f: f}
	}
	c.sinks[target] = s
	return s.w, nil
}

// CloseAll closes every open sink, the DSL's end-of-stream hook for
// redirection targets.
func (c *RedirectCache) CloseAll() error {
	var firstErr error
	for target, s := range c.sinks {
		if s.f != nil {
			if err := s.f.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("redirect: closing %q (sink %s): %w", target, s.id, err)
			}
		}
		if s.cmd != nil {
			if closer, ok := s.w.(io.Closer); ok {
				_ = closer.Close()
			}
			if err := s.cmd.Wait(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("redirect: piped command %q (sink %s): %w", target, s.id, err)
			}
		}
	}
	return firstErr
}
