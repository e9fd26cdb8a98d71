package session

import (
	"bytes"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// logLineWriter logs each complete line a child writes.
type logLineWriter struct {
	mu     sync.Mutex
	log    zerolog.Logger
	stream string
	buf    []byte
}

func newLogLineWriter(log zerolog.Logger, stream string) *logLineWriter {
	return &logLineWriter{log: log, stream: stream}
}

func (lw *logLineWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		if line := strings.TrimRight(string(lw.buf[:idx]), "\r"); line != "" {
			lw.log.Debug().Str("stream", lw.stream).Msg(line)
		}
		lw.buf = lw.buf[idx+1:]
	}
	// keep memory bounded for children that never print a newline
	if len(lw.buf) > 64<<10 {
		lw.log.Debug().Str("stream", lw.stream).Msg(string(lw.buf))
		lw.buf = lw.buf[:0]
	}
	return len(p), nil
}
