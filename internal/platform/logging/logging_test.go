package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWritesJSONWithServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("verifier", Options{Level: "debug", JSON: true, Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	engineLog := Component(log, "engine")
	engineLog.Info().Str("bounty_id", "7").Msg("reserved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["service"] != "verifier" {
		t.Fatalf("service = %v, want verifier", entry["service"])
	}
	if entry["component"] != "engine" {
		t.Fatalf("component = %v, want engine", entry["component"])
	}
	if entry["message"] != "reserved" {
		t.Fatalf("message = %v, want reserved", entry["message"])
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("verifier", Options{Level: "warn", JSON: true, Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("verifier", Options{Level: "loud"}); err == nil {
		t.Fatal("expected unknown level error")
	}
}
