package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInit_JSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", JSON: true, Out: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Info().Msg("hidden")
	Warn().Str("source", "pos").Msg("source skipped")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("want exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if line["message"] != "source skipped" || line["source"] != "pos" || line["level"] != "warn" {
		t.Fatalf("line = %#v", line)
	}
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "loud", JSON: true, Out: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Debug().Msg("dropped")
	Info().Msg("kept")
	if got := bytes.Count(buf.Bytes(), []byte("\n")); got != 1 {
		t.Fatalf("lines = %d, want 1 (%q)", got, buf.String())
	}
}
