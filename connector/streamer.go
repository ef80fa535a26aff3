package connector

import "io"

// SrcMeta describes the position of the multiplexer within the current
// source. Name identifies the active source (typically the Opener's
// Name()) and is what recctx.Context.FileName/FNR/FILENUM track -- the
// format readers in package input compare successive SrcMeta.Name values
// to detect a new file and reset per-file counters, per spec.md §4.H's
// FNR/FILENAME/FILENUM bindings.
// ByteOffset counts the number of bytes successfully emitted to the reader
// from the current source.
type SrcMeta struct {
	Name       string
	ByteOffset int64
}

// SrcAwareStreamer is a byte stream that also reports, via Current, which
// underlying source produced the most recently read bytes. Every format
// Reader in package input polls Current() once per record to detect a
// new-file boundary; no consumer needs push notification of boundaries as
// they occur, so this interface stays read-after-the-fact rather than
// event-driven.
type SrcAwareStreamer interface {
	io.ReadCloser

	Current() SrcMeta
}
