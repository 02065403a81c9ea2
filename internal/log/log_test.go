package log

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetOutput_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "debug")
	defer SetOutput(&bytes.Buffer{}, "error")

	Sweep.Info().Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "sweep" {
		t.Errorf("component = %v, want sweep", entry["component"])
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
}

func TestWithAccount(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info")
	defer SetOutput(&bytes.Buffer{}, "error")

	l := WithAccount(3, "sm1abc")
	l.Info().Msg("x")

	line := buf.String()
	if !strings.Contains(line, `"account":3`) || !strings.Contains(line, `"address":"sm1abc"`) {
		t.Errorf("log line missing account fields: %s", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	defer SetOutput(&bytes.Buffer{}, "error")

	Ledger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %s", buf.String())
	}
	Ledger.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Error("warn line not written")
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"debug", "info", "warn", "error"} {
		if !ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = false", l)
		}
	}
	for _, l := range []string{"", "trace", "INFO"} {
		if ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = true", l)
		}
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.log")
	if err := Init("info", true, path); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer SetOutput(&bytes.Buffer{}, "error")
}
