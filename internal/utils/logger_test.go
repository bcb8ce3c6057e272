package utils

import (
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *strings.Builder {
	t.Helper()
	var buf strings.Builder
	old := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(old) })
	return &buf
}

func TestGetLogger_Singleton(t *testing.T) {
	if GetLogger() != GetLogger() {
		t.Error("GetLogger() should return the same instance")
	}
}

func TestLogger_VerboseGatesDebug(t *testing.T) {
	buf := captureLog(t)
	logger := &Logger{}

	logger.Debug("hidden %s", "detail")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Debug output should be suppressed without verbose, got: %s", buf.String())
	}

	logger.SetVerbose(true)
	if !logger.IsVerbose() {
		t.Fatal("IsVerbose() = false after SetVerbose(true)")
	}
	logger.Debug("shown %s", "detail")
	if !strings.Contains(buf.String(), "[DEBUG] shown detail") {
		t.Errorf("Expected debug output when verbose, got: %s", buf.String())
	}

	logger.SetVerbose(false)
	logger.Debug("hidden again")
	if strings.Contains(buf.String(), "hidden again") {
		t.Errorf("Debug output should be suppressed again, got: %s", buf.String())
	}
}

func TestLogger_Levels(t *testing.T) {
	buf := captureLog(t)
	logger := &Logger{}

	logger.Info("saved %d records", 3)
	logger.Warn("queue depth %d", 12)
	logger.Error("sync failed: %s", "timeout")

	out := buf.String()
	for _, want := range []string{
		"[INFO] saved 3 records",
		"[WARN] queue depth 12",
		"[ERROR] sync failed: timeout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got: %s", want, out)
		}
	}
}
