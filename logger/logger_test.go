package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// newBufferedLogger returns a logger writing into a buffer
func newBufferedLogger(service string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(service).WithLevel(LevelInfo).WithOutput(&buf), &buf
}

func decodeEntry(t *testing.T, output string) LogEntry {
	t.Helper()
	var logEntry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output as JSON: %v", err)
	}
	return logEntry
}

func TestNew(t *testing.T) {
	logger := New("test-service")

	if logger.serviceName != "test-service" {
		t.Errorf("Expected service name 'test-service', got '%s'", logger.serviceName)
	}

	if logger.requestID != "" {
		t.Errorf("Expected empty request ID, got '%s'", logger.requestID)
	}

	if logger.traceID != "" {
		t.Errorf("Expected empty trace ID, got '%s'", logger.traceID)
	}
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tc := range testCases {
		if got := ParseLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLevel(%q) = %s, expected %s", tc.input, got, tc.expected)
		}
	}
}

func TestWithContext(t *testing.T) {
	logger := New("test-service")

	contextLogger := logger.WithContext(context.Background())

	if contextLogger.serviceName != "test-service" {
		t.Errorf("Expected service name 'test-service', got '%s'", contextLogger.serviceName)
	}

	if logger == contextLogger {
		t.Error("Expected new logger instance, got same instance")
	}
}

func TestWithContextLambdaRequestID(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		AwsRequestID: "req-abc",
	})

	logger.WithContext(ctx).Info("hello")

	logEntry := decodeEntry(t, buf.String())
	if logEntry.RequestID != "req-abc" {
		t.Errorf("Expected request ID 'req-abc', got '%s'", logEntry.RequestID)
	}
}

func TestWithTraceID(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")

	logger.WithTraceID("trace-123").Info("traced")

	logEntry := decodeEntry(t, buf.String())
	if logEntry.TraceID != "trace-123" {
		t.Errorf("Expected trace ID 'trace-123', got '%s'", logEntry.TraceID)
	}
	if logEntry.Service != "test-service" {
		t.Errorf("Expected service 'test-service', got '%s'", logEntry.Service)
	}
}

func TestInfo(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")
	message := "Test info message"

	logger.Info(message)

	logEntry := decodeEntry(t, buf.String())
	if logEntry.Level != LevelInfo {
		t.Errorf("Expected level INFO, got %s", logEntry.Level)
	}
	if logEntry.Message != message {
		t.Errorf("Expected message '%s', got '%s'", message, logEntry.Message)
	}
	if logEntry.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
}

func TestInfoWithCount(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")

	logger.InfoWithCount("Entries translated", 42)

	logEntry := decodeEntry(t, buf.String())
	if logEntry.DataCount == nil {
		t.Fatal("Expected data count to be set")
	}
	if *logEntry.DataCount != 42 {
		t.Errorf("Expected data count 42, got %d", *logEntry.DataCount)
	}
}

func TestInfoWithDuration(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")

	logger.InfoWithDuration("Request completed", 1500*time.Millisecond)

	logEntry := decodeEntry(t, buf.String())
	if logEntry.Duration == nil {
		t.Fatal("Expected duration to be set")
	}
	if *logEntry.Duration != 1500 {
		t.Errorf("Expected duration 1500ms, got %dms", *logEntry.Duration)
	}
}

func TestWarn(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")

	logger.Warn("Test warning message")

	logEntry := decodeEntry(t, buf.String())
	if logEntry.Level != LevelWarn {
		t.Errorf("Expected level WARN, got %s", logEntry.Level)
	}
}

func TestError(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")

	logger.Error("Test error message", errors.New("test error"))

	logEntry := decodeEntry(t, buf.String())
	if logEntry.Level != LevelError {
		t.Errorf("Expected level ERROR, got %s", logEntry.Level)
	}
	if logEntry.Error == nil {
		t.Fatal("Expected error details to be set")
	}
	if logEntry.Error.Message != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", logEntry.Error.Message)
	}
	if logEntry.Error.Type != "*errors.errorString" {
		t.Errorf("Expected error type '*errors.errorString', got '%s'", logEntry.Error.Type)
	}
}

func TestErrorWithAppError(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")
	appErr := NewAppErrorWithCode(ErrorTypeUpstream, "arXiv unavailable", "503", nil)

	logger.Error("Upstream failed", appErr)

	logEntry := decodeEntry(t, buf.String())
	if logEntry.Error == nil {
		t.Fatal("Expected error details to be set")
	}
	if logEntry.Error.Type != string(ErrorTypeUpstream) {
		t.Errorf("Expected error type %s, got '%s'", ErrorTypeUpstream, logEntry.Error.Type)
	}
	if logEntry.Error.Code != "503" {
		t.Errorf("Expected code '503', got '%s'", logEntry.Error.Code)
	}
}

func TestErrorWithNilError(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")

	logger.Error("Test error message without error", nil)

	logEntry := decodeEntry(t, buf.String())
	if logEntry.Error != nil {
		t.Error("Expected error details to be nil when no error provided")
	}
}

func TestDebug(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")

	logger.Debug("Test debug message")
	if strings.TrimSpace(buf.String()) != "" {
		t.Error("Expected no debug output at INFO level")
	}

	logger.WithLevel(LevelDebug).Debug("Test debug message")

	logEntry := decodeEntry(t, buf.String())
	if logEntry.Level != LevelDebug {
		t.Errorf("Expected level DEBUG, got %s", logEntry.Level)
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")
	logger = logger.WithLevel(LevelError)

	logger.Info("dropped")
	logger.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below ERROR, got %q", buf.String())
	}

	logger.Error("kept", nil)
	if decodeEntry(t, buf.String()).Message != "kept" {
		t.Error("Expected ERROR entry to be written")
	}
}

func TestLogWithMetadata(t *testing.T) {
	logger, buf := newBufferedLogger("test-service")
	metadata := map[string]interface{}{
		"key1": "value1",
		"key2": 42,
		"key3": true,
	}

	logger.Info("Test message with metadata", metadata)

	logEntry := decodeEntry(t, buf.String())
	if logEntry.Metadata == nil {
		t.Fatal("Expected metadata to be set")
	}
	if logEntry.Metadata["key1"] != "value1" {
		t.Errorf("Expected metadata key1 'value1', got '%v'", logEntry.Metadata["key1"])
	}
	if logEntry.Metadata["key2"] != float64(42) { // JSON unmarshals numbers as float64
		t.Errorf("Expected metadata key2 42, got '%v'", logEntry.Metadata["key2"])
	}
	if logEntry.Metadata["key3"] != true {
		t.Errorf("Expected metadata key3 true, got '%v'", logEntry.Metadata["key3"])
	}
}

func TestGetRequestIDFromContext(t *testing.T) {
	if requestID := getRequestIDFromContext(nil); requestID != "" {
		t.Errorf("Expected empty request ID for nil context, got '%s'", requestID)
	}

	if requestID := getRequestIDFromContext(context.Background()); requestID != "" {
		t.Errorf("Expected empty request ID for background context, got '%s'", requestID)
	}
}

func BenchmarkLogInfo(b *testing.B) {
	logger := New("test-service").WithOutput(io.Discard)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("Benchmark test message")
	}
}

func BenchmarkLogError(b *testing.B) {
	logger := New("test-service").WithOutput(io.Discard)
	testErr := errors.New("benchmark error")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Error("Benchmark error message", testErr)
	}
}
