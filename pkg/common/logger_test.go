package common

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/ektamehra-ue/uelogic/pkg/testing"
)

func TestLoggingCapture(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	logger := GetLoggerWith(LoggerNameEngine, zap.String(LoggerFieldCategory, LoggerCategoryDifferencer))
	logger.Info("Consumption derived", zap.Int("points", 3))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Consumption derived") {
		t.Errorf("expected log output to contain message, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, `"category":"differencer"`) {
		t.Errorf("expected category field, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, `"logger":"engine"`) {
		t.Errorf("expected logger name, got: %s", logOutput)
	}
}

func TestLoggingCaptureRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.WarnLevel)

	GetLogger().Info("dropped")
	GetLogger().Warn("kept")

	logOutput := buf.String()
	if strings.Contains(logOutput, "dropped") {
		t.Errorf("info entry should be filtered at warn level, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "kept") {
		t.Errorf("expected warn entry, got: %s", logOutput)
	}
}
