package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputJSON marshals the provided data as indented JSON and prints it
// to stdout. Used by the --json flags for machine-readable output.
func OutputJSON(data interface{}) error {
	return FprintJSON(os.Stdout, data)
}

// FprintJSON marshals the provided data as indented JSON and writes it
// to w.
func FprintJSON(w io.Writer, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(jsonData))
	return nil
}

// OutputYAML marshals the provided data as YAML and prints it to
// stdout.
func OutputYAML(data interface{}) error {
	return FprintYAML(os.Stdout, data)
}

// FprintYAML marshals the provided data as YAML and writes it to w.
func FprintYAML(w io.Writer, data interface{}) error {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	fmt.Fprint(w, string(yamlData))
	return nil
}
