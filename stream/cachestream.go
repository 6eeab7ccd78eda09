// Copyright 2017-2019 VMware, Inc.
// Copyright 2021 The cascade Authors
// This file is part of the cascade library.
//
// The cascade library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The cascade library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the cascade library. If not, see <http://www.gnu.org/licenses/>.

// Package stream implements the cachestream buffering discipline required
// by spec.md §5 ("Buffering discipline (cachestream)"): a bidirectional
// byte-stream adapter with independent read/write buffers, so that an RPC
// reply never deadlocks a half-written request on a socket transport.
// Ported in spirit from cascade's original src/base/stream/cachestream.h,
// generalized from a std::streambuf backend to any io.ReadWriteCloser.
package stream

import (
	"bufio"
	"io"
)

// DefaultBufSize is cachestream's default buffer size (spec.md §5).
const DefaultBufSize = 1024

// CacheStream interposes fixed-size read/write buffers in front of any
// io.ReadWriteCloser. Reads fill the read buffer in bulk; writes accumulate
// until the write buffer is full, Flush is called, or a read is issued
// (which forces a write flush first) — this is mandatory for socket
// transports so request/reply RPC never deadlocks on a half-written frame.
type CacheStream struct {
	backend io.ReadWriteCloser
	r       *bufio.Reader
	w       *bufio.Writer
}

// New wraps backend with read/write buffers of size n (DefaultBufSize if
// n <= 0).
func New(backend io.ReadWriteCloser, n int) *CacheStream {
	if n <= 0 {
		n = DefaultBufSize
	}
	return &CacheStream{
		backend: backend,
		r:       bufio.NewReaderSize(backend, n),
		w:       bufio.NewWriterSize(backend, n),
	}
}

// ReadByte reads and returns a single byte (cascade's sbumpc/sgetc),
// forcing a write flush first so a synchronous request/reply round trip
// cannot deadlock on an unflushed request.
func (c *CacheStream) ReadByte() (byte, error) {
	if err := c.w.Flush(); err != nil {
		return 0, err
	}
	return c.r.ReadByte()
}

// ReadN reads exactly len(p) bytes (cascade's sgetn), flushing pending
// writes first.
func (c *CacheStream) ReadN(p []byte) (int, error) {
	if err := c.w.Flush(); err != nil {
		return 0, err
	}
	return io.ReadFull(c.r, p)
}

// Avail reports how many bytes are immediately available without a further
// backend read (cascade's in_avail), best-effort over the buffered reader.
func (c *CacheStream) Avail() int {
	return c.r.Buffered()
}

// WriteByte appends a single byte to the write buffer (cascade's
// sputc), flushing to the backend only once the buffer fills.
func (c *CacheStream) WriteByte(b byte) error {
	return c.w.WriteByte(b)
}

// WriteN appends p to the write buffer (cascade's sputn), flushing to the
// backend directly for any portion that would not fit.
func (c *CacheStream) WriteN(p []byte) (int, error) {
	return c.w.Write(p)
}

// Flush forces any buffered writes out to the backend (cascade's pubsync).
func (c *CacheStream) Flush() error {
	return c.w.Flush()
}

// SeekOff delegates to the backend after flushing whichever direction is
// about to move, matching cachebuf::seekoff's "synchronize before
// delegating" rule (spec.md §5: "Seek on either direction flushes that
// direction's buffer before delegating").
func (c *CacheStream) SeekOff(off int64, whence int, forRead bool) (int64, error) {
	seeker, ok := c.backend.(io.Seeker)
	if !ok {
		return 0, io.ErrUnsupportedSeek
	}
	if forRead {
		// Discard any buffered-but-unconsumed read bytes: flush_get()'s Go
		// analogue is simply resetting the reader, since bufio has no
		// backward-seek-the-backend primitive to replay.
		c.r.Reset(c.backend)
	} else {
		if err := c.w.Flush(); err != nil {
			return 0, err
		}
	}
	return seeker.Seek(off, whence)
}

// Close flushes pending writes and closes the backend.
func (c *CacheStream) Close() error {
	_ = c.w.Flush()
	return c.backend.Close()
}
