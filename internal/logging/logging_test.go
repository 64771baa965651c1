package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(WARN, false)
	log.SetOutput(&buf)

	log.Debug("drop me")
	log.Info("drop me too")
	log.Warn("keep me")

	out := buf.String()
	if bytes.Contains(buf.Bytes(), []byte("drop me")) {
		t.Errorf("below-level entries leaked: %q", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("keep me")) {
		t.Errorf("warn entry missing: %q", out)
	}
}

func TestJSONEntries(t *testing.T) {
	var buf bytes.Buffer
	log := New(INFO, true)
	log.SetOutput(&buf)

	log.Info("slave reaped", map[string]interface{}{"code": 14})

	var entry struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "INFO" || entry.Message != "slave reaped" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["code"] != float64(14) {
		t.Errorf("field lost: %+v", entry.Fields)
	}
}

func TestWithFieldSticks(t *testing.T) {
	var buf bytes.Buffer
	log := New(INFO, true)
	log.SetOutput(&buf)

	log.WithField("component", "worker").Info("hello")

	if !bytes.Contains(buf.Bytes(), []byte(`"component":"worker"`)) {
		t.Errorf("bound field missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": DEBUG, "INFO": INFO, "warning": WARN, "ERROR": ERROR, "bogus": INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q)=%v, want %v", in, got, want)
		}
	}
}
