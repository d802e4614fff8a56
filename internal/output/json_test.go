package output

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONFormatter_Entries(t *testing.T) {
	f := NewJSONFormatter()
	out := string(f.Format(nil, samplePass()))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d: %s", len(lines), out)
	}

	var je jsonEntry
	if err := json.Unmarshal([]byte(lines[1]), &je); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if je.Kind != "entry" || je.Ino != 200 || je.TypeName != "directory" || je.Name != "sub" {
		t.Errorf("unexpected entry: %+v", je)
	}
	if je.Reclen != 24 || je.Off != 2 || je.NRead != 56 {
		t.Errorf("unexpected numeric fields: %+v", je)
	}
}
