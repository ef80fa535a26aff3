package connector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/carlodf/mlrq/source"
)

// ---- fakes ----

type inMemoryReadCloser struct {
	b             []byte
	pos           int
	injectErrorAt int   // if >=0, inject error when pos >= injectErrorAt.
	err           error // current error
	closed        bool
}

var injectedError = errors.New("injected read error")

func (rc *inMemoryReadCloser) Read(p []byte) (int, error) {
	if rc.err != nil {
		return 0, rc.err
	}
	if rc.injectErrorAt >= 0 && rc.pos >= rc.injectErrorAt {
		rc.err = injectedError
		return 0, rc.err
	}
	if rc.pos >= len(rc.b) {
		return 0, io.EOF
	}
	n := 0
	if rc.injectErrorAt > 0 {
		n = copy(p, rc.b[rc.pos:rc.injectErrorAt])
	} else {
		n = copy(p, rc.b[rc.pos:])
	}
	rc.pos += n
	return n, nil
}

func (rc *inMemoryReadCloser) Close() error { rc.closed = true; return nil }

type fakeOpener struct {
	name     string
	data     []byte
	openErr  error
	readErrN int // inject error starting at this byte index; <0 => no error
}

func (f fakeOpener) Open(ctx context.Context) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &inMemoryReadCloser{b: f.data, injectErrorAt: f.readErrN}, nil
}
func (f fakeOpener) Name() string { return f.name }

// ---- tests ----

func TestMuxReader_ConcatsSourcesAndTracksCurrent(t *testing.T) {
	ctx := context.Background()
	ops := []source.Opener{
		fakeOpener{name: "a", data: []byte("hello"), readErrN: -1},
		fakeOpener{name: "b", data: []byte("WORLD"), readErrN: -1},
	}
	m := NewMuxReader(ctx, ops)

	got, rerr := io.ReadAll(m)
	if rerr != nil {
		t.Fatalf("read all: %v", rerr)
	}
	want := "helloWORLD"
	if string(got) != want {
		t.Fatalf("merged bytes = %q, want %q", got, want)
	}

	// Current() should reflect the last source with full byte count.
	cur := m.Current()
	if cur.Name != "b" || cur.ByteOffset != int64(len("WORLD")) {
		t.Fatalf("Current() = %+v, want Name=b ByteOffset=%d", cur, len("WORLD"))
	}

	_ = m.Close()
}

func TestMuxReader_PropagatesOpenError(t *testing.T) {
	openErr := errors.New("boom")
	ops := []source.Opener{
		fakeOpener{name: "bad", openErr: openErr},
	}
	m := NewMuxReader(context.Background(), ops)

	// First Read should surface the open error via CloseWithError.
	p := make([]byte, 16)
	_, err := m.Read(p)
	if err == nil || !strings.Contains(err.Error(), "open bad") {
		t.Fatalf("read err = %v, want contains %q", err, "open bad")
	}
	_ = m.Close()
}

func TestMuxReader_PropagatesReadError_WithPartialData(t *testing.T) {
	ops := []source.Opener{
		fakeOpener{name: "a", data: []byte("abcdef"), readErrN: 3},
	}
	m := NewMuxReader(context.Background(), ops)

	buf := new(bytes.Buffer)
	_, err := io.Copy(buf, m)
	if err == nil || !strings.Contains(err.Error(), "read a") {
		t.Fatalf("io.Copy err = %v, want contains %q", err, "read a")
	}
	// We should have received bytes up to the error point.
	if buf.String() != "abc" {
		t.Fatalf("partial bytes = %q, want %q", buf.String(), "abc")
	}
	_ = m.Close()
}

func TestMuxReader_EmptyOpeners(t *testing.T) {
	m := NewMuxReader(context.Background(), nil)

	// Reading should EOF immediately.
	p := make([]byte, 1)
	n, err := m.Read(p)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("Read = (%d,%v), want (0,EOF)", n, err)
	}
	_ = m.Close()
}
