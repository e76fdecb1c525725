package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevelAndFormat(t *testing.T) {
	if ParseLevel("WARNING") != Warn || ParseLevel("") != Info || ParseLevel("nope") != Info {
		t.Fatalf("unexpected level parsing")
	}
	if ParseFormat("JSON") != FormatJSON || ParseFormat("console") != FormatText {
		t.Fatalf("unexpected format parsing")
	}
}

func TestNew_JSONIncludesAppAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, App: "despachos", Output: &buf})

	l.With(map[string]any{"request_id": "r-1"}).Info("dispatch transition", map[string]any{
		"action": "entregar",
		"err":    errors.New("boom"),
	})
	l.Debug("hidden", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if entry["app"] != "despachos" || entry["request_id"] != "r-1" || entry["action"] != "entregar" {
		t.Fatalf("missing fields: %#v", entry)
	}
	if entry["err"] != "boom" || entry["msg"] != "dispatch transition" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}
