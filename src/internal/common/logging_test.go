package common

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSafeLoggerLevels(t *testing.T) {
	t.Setenv(DebugEnvVar, "")
	l := NewSafeLogger("TEST")
	if l.level != LogInfo {
		t.Fatalf("expected info level")
	}
	t.Setenv(DebugEnvVar, "true")
	l2 := NewSafeLogger("TEST")
	if l2.level != LogDebug {
		t.Fatalf("expected debug level")
	}
}

func TestLoggerWritesPrefixAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewSafeLogger("TEST")
	l.SetOutput(&buf)
	l.Info("hello %d", 42)

	s := buf.String()
	assert.Contains(t, s, "[INFO] TEST: hello 42")
	assert.True(t, strings.HasSuffix(s, "\n"))
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewSafeLogger("TEST")
	l.SetOutput(&buf)
	l.SetLevel(LogWarn)

	l.Debug("d")
	l.Info("i")
	assert.Empty(t, buf.String())

	l.Error("e")
	assert.Contains(t, buf.String(), "[ERROR] TEST: e")
}

func TestSanitizeErrorForLogging(t *testing.T) {
	if SanitizeErrorForLogging(nil) != "" {
		t.Fatalf("nil should be empty")
	}
	long := strings.Repeat("x", 250)
	if got := SanitizeErrorForLogging(long); !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation")
	}
	assert.Equal(t, "a b c", SanitizeErrorForLogging(errors.New("a\nb\tc")))
	assert.Equal(t, `{"error":"timeout"}`, SanitizeErrorForLogging([]byte(`{"error":"timeout"}`)))
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("STATCAN_TEST_STR", "")
	assert.Equal(t, "fallback", GetEnv("STATCAN_TEST_STR", "fallback"))
	t.Setenv("STATCAN_TEST_STR", "set")
	assert.Equal(t, "set", GetEnv("STATCAN_TEST_STR", "fallback"))

	t.Setenv("STATCAN_TEST_INT", "8080")
	assert.Equal(t, 8080, GetEnvInt("STATCAN_TEST_INT", 1))
	t.Setenv("STATCAN_TEST_INT", "nope")
	assert.Equal(t, 1, GetEnvInt("STATCAN_TEST_INT", 1))

	t.Setenv("STATCAN_TEST_DUR", "45s")
	assert.Equal(t, 45*time.Second, GetEnvDuration("STATCAN_TEST_DUR", time.Second))
	t.Setenv("STATCAN_TEST_DUR", "12")
	assert.Equal(t, 12*time.Second, GetEnvDuration("STATCAN_TEST_DUR", time.Second))
	t.Setenv("STATCAN_TEST_DUR", "soon")
	assert.Equal(t, time.Second, GetEnvDuration("STATCAN_TEST_DUR", time.Second))
}
