package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestRequestLogLevelOverrides(t *testing.T) {
	prev := defaultLogLevel
	defer func() { defaultLogLevel = prev }()
	SetRequestLogLevel("error")

	r := httptest.NewRequest(http.MethodGet, "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query log=1: %v", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("X-Log-Level", "info")
	if got := requestLogLevel(r); got != LevelInfo {
		t.Fatalf("header: %v", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("default: %v", got)
	}
}

func TestShouldLogQuietsPolling(t *testing.T) {
	if shouldLog(LevelInfo, 200, "/terminal_output") {
		t.Fatalf("poll path logged at info")
	}
	if !shouldLog(LevelDebug, 200, "/terminal_output") {
		t.Fatalf("poll path not logged at debug")
	}
	if !shouldLog(LevelInfo, 200, "/install") {
		t.Fatalf("install not logged at info")
	}
	if !shouldLog(LevelError, 500, "/check_status") {
		t.Fatalf("5xx not logged at error")
	}
	if shouldLog(LevelError, 200, "/install") {
		t.Fatalf("2xx logged at error")
	}
}
