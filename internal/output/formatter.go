package output

import "github.com/dl/dirlistseek/internal/lister"

// Formatter formats a Pass into bytes for output.
// buf is a reusable buffer; implementations append to it and return the result.
// Callers can pass buf[:0] to reuse the underlying array without allocating.
type Formatter interface {
	Format(buf []byte, pass lister.Pass) []byte
}
