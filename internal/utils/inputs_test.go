package utils

import (
	"io"
	"strings"
	"testing"
)

func TestPromptYesNo_Yes(t *testing.T) {
	inputs := []string{
		"y\n",
		"Y\n",
		"yes\n",
		"YES\n",
		"Yes\n",
	}

	for _, input := range inputs {
		t.Run(strings.TrimSpace(input), func(t *testing.T) {
			result := promptYesNo(strings.NewReader(input), io.Discard, "Delete this record?")
			if !result {
				t.Errorf("promptYesNo(%q) = false, want true", input)
			}
		})
	}
}

func TestPromptYesNo_No(t *testing.T) {
	inputs := []string{
		"n\n",
		"N\n",
		"no\n",
		"NO\n",
		"No\n",
	}

	for _, input := range inputs {
		t.Run(strings.TrimSpace(input), func(t *testing.T) {
			result := promptYesNo(strings.NewReader(input), io.Discard, "Delete this record?")
			if result {
				t.Errorf("promptYesNo(%q) = true, want false", input)
			}
		})
	}
}

func TestPromptYesNo_RetriesOnGarbage(t *testing.T) {
	var out strings.Builder
	result := promptYesNo(strings.NewReader("maybe\nnope\ny\n"), &out, "Delete this record?")
	if !result {
		t.Error("Expected the eventual 'y' to win")
	}
	if !strings.Contains(out.String(), "Please enter y or n") {
		t.Errorf("Expected a retry prompt, got: %s", out.String())
	}
}

func TestPromptYesNo_ClosedInput(t *testing.T) {
	if promptYesNo(strings.NewReader(""), io.Discard, "Delete this record?") {
		t.Error("Closed input should read as a refusal")
	}
}

func TestPromptYesNo_AnswerWithoutTrailingNewline(t *testing.T) {
	if !promptYesNo(strings.NewReader("yes"), io.Discard, "Delete this record?") {
		t.Error("An answer at EOF without a newline should still count")
	}
}
