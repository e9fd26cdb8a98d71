// Package console buffers installer output lines until a poller drains them.
//
// The buffer is unbounded and drained destructively: with several concurrent
// pollers each line is delivered to exactly one of them, and lines that are
// never drained are lost on exit.
package console

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
)

// ErrorPrefix marks lines that came from a child's standard error or a failure.
const ErrorPrefix = "ERROR: "

// Channel is a FIFO of output lines safe for concurrent use.
type Channel struct {
	mu    sync.Mutex
	lines []string
}

// New returns an empty Channel.
func New() *Channel { return &Channel{} }

// Push appends one line.
func (c *Channel) Push(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

// Pushf formats and appends one line.
func (c *Channel) Pushf(format string, a ...any) { c.Push(fmt.Sprintf(format, a...)) }

// Errorf formats and appends one error-tagged line.
func (c *Channel) Errorf(format string, a ...any) { c.Push(ErrorPrefix + fmt.Sprintf(format, a...)) }

// DrainAll removes and returns every buffered line in push order.
// It never blocks on producers and returns nil when nothing is buffered.
func (c *Channel) DrainAll() []string {
	c.mu.Lock()
	out := c.lines
	c.lines = nil
	c.mu.Unlock()
	return out
}

// Len returns the number of buffered lines.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// IsError reports whether line carries the error marker.
func IsError(line string) bool { return strings.HasPrefix(line, ErrorPrefix) }

// LineWriter splits written bytes into lines and pushes each complete,
// non-empty line with an optional prefix. Call Flush after the producer
// finishes to push a trailing unterminated line.
type LineWriter struct {
	ch     *Channel
	prefix string
	buf    []byte
}

// NewLineWriter returns a writer feeding ch.
func NewLineWriter(ch *Channel, prefix string) *LineWriter {
	return &LineWriter{ch: ch, prefix: prefix}
}

func (lw *LineWriter) Write(p []byte) (int, error) {
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		lw.emit(string(lw.buf[:idx]))
		lw.buf = lw.buf[idx+1:]
	}
	return len(p), nil
}

// Flush pushes any buffered partial line.
func (lw *LineWriter) Flush() {
	if len(lw.buf) > 0 {
		lw.emit(string(lw.buf))
		lw.buf = nil
	}
}

func (lw *LineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	lw.ch.Push(lw.prefix + strings.TrimSpace(line))
}
