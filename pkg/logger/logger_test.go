package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithOrganizationID(ctx, "org-1")
	ctx = log.WithSensorID(ctx, "S1")

	log.Error(ctx, "boom", errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v (%s)", err, buf.String())
	}
	for _, key := range []string{"request_id", "organization_id", "sensor_id", "stack", "error"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected %q in entry=%s", key, buf.String())
		}
	}
	if entry["service"] != "test" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !strings.Contains(buf.String(), "\"stack\"") {
		t.Fatalf("expected stack when warn stack enabled: %s", buf.String())
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	if strings.Contains(buf.String(), "\"stack\"") {
		t.Fatalf("expected no stack when warn stack disabled: %s", buf.String())
	}
}

func TestWithActorGroups(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})
	ctx := log.WithActorGroups(context.Background(), []string{"GLOBAL_ADMIN"})
	log.Info(ctx, "hello")
	if !strings.Contains(buf.String(), "\"actor_groups\":[\"GLOBAL_ADMIN\"]") {
		t.Fatalf("expected actor groups in entry: %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel("WARN"); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Info(context.Background(), "ignored")
	log.Error(context.TODO(), "ignored", errors.New("x"))
}

func TestDebugRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	info := New(Options{ServiceName: "test", Output: buf})
	info.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry written at info level: %s", buf.String())
	}

	verbose := New(Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})
	ctx := verbose.WithFields(context.Background(), map[string]any{"sensor_id": "S9"})
	verbose.Debug(ctx, "shown")
	if !strings.Contains(buf.String(), `"sensor_id":"S9"`) {
		t.Fatalf("expected context fields on debug entry: %s", buf.String())
	}
}

func TestConsoleOutputIsNotJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Console: true, Output: buf})

	log.Info(context.Background(), "sensor online")

	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Fatalf("expected console text, got json %s", buf.String())
	}
	if !strings.Contains(buf.String(), "sensor online") {
		t.Fatalf("expected message in output, got %s", buf.String())
	}
}
