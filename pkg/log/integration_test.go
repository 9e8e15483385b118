package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	scierrors "github.com/YuminosukeSato/medlens/pkg/errors"
)

// TestLoggerInterface tests the Logger interface implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", ColumnKey, "Age")
	testLogger.Error("error message", fmt.Errorf("test error"), ColumnKey, "Gender")

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField("error", "test error") {
		t.Error("Expected leading error to be recorded under the error key")
	}
	if !testLogger.ContainsField(ColumnKey, "Gender") {
		t.Error("Expected fields after the error to be kept")
	}
}

func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(ModelNameKey, "RandomForestClassifier", ComponentKey, "ensemble")
	contextLogger.Info("contextual message", OperationKey, OperationFit)

	if !testLogger.ContainsField(ModelNameKey, "RandomForestClassifier") {
		t.Error("Model name context not found")
	}
	if !testLogger.ContainsField(ComponentKey, "ensemble") {
		t.Error("Component context not found")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelWarn)

	testLogger.Debug("hidden debug")
	testLogger.Info("hidden info")
	testLogger.Warn("visible warn")

	if testLogger.ContainsMessage("hidden") {
		t.Error("messages below the configured level should be dropped")
	}
	if !testLogger.ContainsMessage("visible warn") {
		t.Error("warn message should be captured")
	}
	if testLogger.Enabled(context.Background(), LevelInfo) {
		t.Error("Enabled(LevelInfo) should be false for a warn logger")
	}
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, LevelInfo)

	logger := provider.GetLoggerWithName("preprocessing")
	logger.Debug("dropped")
	logger.Info("scaler fitted", SamplesKey, 4, ColumnsKey, []string{"Age"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if entry["message"] != "scaler fitted" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry[ComponentKey] != "preprocessing" {
		t.Errorf("component = %v", entry[ComponentKey])
	}
	if entry[SamplesKey] != 4.0 {
		t.Errorf("samples = %v", entry[SamplesKey])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestZerologProviderError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProviderWithWriter(&buf, LevelDebug).GetLogger()

	logger.Error("model load failed", scierrors.NewModelLoadError("model.gob", fmt.Errorf("missing")))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !strings.Contains(fmt.Sprint(entry["error"]), "model.gob") {
		t.Errorf("error field = %v", entry["error"])
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.in); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGlobalProviderRoutesWarnings(t *testing.T) {
	previous := GetGlobalLoggerProvider()
	provider, buffer := NewTestLoggerProvider(LevelDebug)
	SetGlobalLoggerProvider(provider)
	defer func() {
		SetGlobalLoggerProvider(previous)
		scierrors.SetZerologWarnFunc(nil)
	}()

	scierrors.Warn(scierrors.NewUndefinedMetricWarning("recall", "no true samples", 0))

	if !strings.Contains(buffer.String(), "'recall' is ill-defined") {
		t.Errorf("warning not routed to provider: %q", buffer.String())
	}
	if !provider.logger.ContainsField(ComponentKey, "warnings") {
		t.Error("warning logger should carry the warnings component")
	}
}
