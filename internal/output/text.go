package output

import (
	"strconv"

	"github.com/dl/dirlistseek/internal/dirent"
	"github.com/dl/dirlistseek/internal/lister"
)

const columnHeader = "i-node#  file type  d_reclen  d_off   d_name"

// TextFormatter prints each pass as a banner with the fill byte count, a
// column header and one fixed-width line per record.
type TextFormatter struct {
	styles Styles
}

// NewTextFormatter creates a TextFormatter.
func NewTextFormatter(styles Styles) *TextFormatter {
	return &TextFormatter{styles: styles}
}

func (f *TextFormatter) Format(buf []byte, pass lister.Pass) []byte {
	banner := "--------------- nread=" + strconv.Itoa(pass.N) + " ---------------"
	buf = append(buf, f.styles.Banner.Render(banner)...)
	buf = append(buf, '\n')
	buf = append(buf, f.styles.Header.Render(columnHeader)...)
	buf = append(buf, '\n')

	for _, r := range pass.Records {
		buf = formatRecord(buf, r)
	}
	return buf
}

// formatRecord renders "%8d  %-10s %4d %10d  %s\n".
func formatRecord(buf []byte, r dirent.Record) []byte {
	buf = padLeft(buf, strconv.FormatUint(r.Ino, 10), 8)
	buf = append(buf, "  "...)
	buf = padRight(buf, r.Type.String(), 10)
	buf = append(buf, ' ')
	buf = padLeft(buf, strconv.Itoa(int(r.Reclen)), 4)
	buf = append(buf, ' ')
	buf = padLeft(buf, strconv.FormatInt(r.Off, 10), 10)
	buf = append(buf, "  "...)
	buf = append(buf, r.Name...)
	buf = append(buf, '\n')
	return buf
}

func padLeft(buf []byte, s string, width int) []byte {
	for i := len(s); i < width; i++ {
		buf = append(buf, ' ')
	}
	return append(buf, s...)
}

func padRight(buf []byte, s string, width int) []byte {
	buf = append(buf, s...)
	for i := len(s); i < width; i++ {
		buf = append(buf, ' ')
	}
	return buf
}

// Ensure TextFormatter implements Formatter.
var _ Formatter = (*TextFormatter)(nil)
