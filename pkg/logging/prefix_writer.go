package logging

import (
	"bytes"
	"io"
)

// PrefixWriter wraps an io.Writer and prepends a prefix to every
// line. The runner uses it to tag interleaved environment output with
// the environment name ("py36-arduino| ..."), and the logger uses it
// for its own line marker.
type PrefixWriter struct {
	prefix  []byte
	writer  io.Writer
	pending bytes.Buffer
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{prefix: []byte(prefix), writer: w}
}

// Write buffers partial lines and emits each completed line with the
// prefix attached. A trailing partial line is held until its newline
// arrives or Flush is called.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx < 0 {
			pw.pending.Write(p)
			break
		}
		if err := pw.emit(p[:idx+1]); err != nil {
			return 0, err
		}
		p = p[idx+1:]
	}
	return total, nil
}

// Flush writes out any buffered partial line, terminating it with a
// newline so the prefix invariant holds for the last line of output.
func (pw *PrefixWriter) Flush() error {
	if pw.pending.Len() == 0 {
		return nil
	}
	return pw.emit([]byte("\n"))
}

func (pw *PrefixWriter) emit(tail []byte) error {
	if _, err := pw.writer.Write(pw.prefix); err != nil {
		return err
	}
	if pw.pending.Len() > 0 {
		if _, err := pw.writer.Write(pw.pending.Bytes()); err != nil {
			return err
		}
		pw.pending.Reset()
	}
	_, err := pw.writer.Write(tail)
	return err
}
