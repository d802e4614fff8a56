package output

import (
	"encoding/json"

	"github.com/dl/dirlistseek/internal/lister"
)

// JSONFormatter formats passes as JSON Lines (one JSON object per record).
type JSONFormatter struct{}

// NewJSONFormatter creates a JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// jsonEntry is the JSON serialization format for a directory record.
type jsonEntry struct {
	Kind     string `json:"type"`
	Pass     int    `json:"pass"`
	NRead    int    `json:"nread"`
	Ino      uint64 `json:"ino"`
	TypeName string `json:"type_name"`
	Reclen   uint16 `json:"reclen"`
	Off      int64  `json:"off"`
	Name     string `json:"name"`
}

func (f *JSONFormatter) Format(buf []byte, pass lister.Pass) []byte {
	for _, r := range pass.Records {
		je := jsonEntry{
			Kind:     "entry",
			Pass:     pass.Index,
			NRead:    pass.N,
			Ino:      r.Ino,
			TypeName: r.Type.String(),
			Reclen:   r.Reclen,
			Off:      r.Off,
			Name:     r.Name,
		}
		data, _ := json.Marshal(je)
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}
	return buf
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
