package encoder

import (
	"bytes"
	"log/slog"
	"sync"
)

// maxLine bounds a buffered line. ffmpeg redraws its progress line with
// carriage returns, so output is split on both \n and \r.
const maxLine = 16 << 10

// lineWriter logs everything written to it, one debug record per line.
type lineWriter struct {
	mu     sync.Mutex
	buf    []byte
	stream string
	logger *slog.Logger
}

func newLineWriter(logger *slog.Logger, stream string) *lineWriter {
	return &lineWriter{stream: stream, logger: logger}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexAny(w.buf, "\r\n")
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLine {
		w.emit(w.buf)
		w.buf = w.buf[:0]
	}

	return len(p), nil
}

// Flush logs a trailing partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.emit(w.buf)
	w.buf = nil
}

func (w *lineWriter) emit(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	w.logger.Debug(string(line), slog.String("stream", w.stream))
}
