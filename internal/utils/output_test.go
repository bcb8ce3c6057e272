package utils

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFprintJSON(t *testing.T) {
	type row struct {
		Source string `json:"source_text"`
		Target string `json:"target_text"`
	}

	var buf strings.Builder
	err := FprintJSON(&buf, []row{{Source: "hello", Target: "mma"}})
	if err != nil {
		t.Fatalf("FprintJSON() error = %v", err)
	}

	var decoded []map[string]string
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["source_text"] != "hello" {
		t.Errorf("Unexpected output: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("Expected indented output")
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Expected trailing newline")
	}
}

func TestFprintJSON_UnmarshalableData(t *testing.T) {
	var buf strings.Builder
	if err := FprintJSON(&buf, make(chan int)); err == nil {
		t.Error("Expected an error for unmarshalable data")
	}
}

func TestFprintYAML(t *testing.T) {
	data := map[string]interface{}{
		"format": "csv",
		"fields": []string{"source_text", "target_text"},
	}

	var buf strings.Builder
	if err := FprintYAML(&buf, data); err != nil {
		t.Fatalf("FprintYAML() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := yaml.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if decoded["format"] != "csv" {
		t.Errorf("Unexpected output: %s", buf.String())
	}
}
