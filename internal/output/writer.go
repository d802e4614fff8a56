package output

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/dl/dirlistseek/internal/lister"
)

// Writer writes formatted output to a file descriptor using writev.
type Writer struct {
	fd int
}

// NewWriter creates a Writer that writes to stdout.
func NewWriter() *Writer {
	return &Writer{fd: int(os.Stdout.Fd())}
}

// NewFdWriter creates a Writer for an arbitrary descriptor.
func NewFdWriter(fd int) *Writer {
	return &Writer{fd: fd}
}

// Write writes the given bytes using writev, retrying short writes.
func (w *Writer) Write(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	for len(data) > 0 {
		iovs := [][]byte{data}
		n, err := unix.Writev(w.fd, iovs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		data = data[n:]
	}
	return nil
}

// PassWriter formats passes and writes them, reusing one output buffer.
type PassWriter struct {
	writer    *Writer
	formatter Formatter
	buf       []byte
}

// NewPassWriter creates a PassWriter.
func NewPassWriter(w *Writer, f Formatter) *PassWriter {
	return &PassWriter{writer: w, formatter: f}
}

// WritePass formats and writes a single pass. Its signature matches the
// callback taken by lister.Run.
func (pw *PassWriter) WritePass(pass lister.Pass) error {
	pw.buf = pw.formatter.Format(pw.buf[:0], pass)
	return pw.writer.Write(pw.buf)
}
