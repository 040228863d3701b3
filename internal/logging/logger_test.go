package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func resetState(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer

	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	stdout = &buf
	mutex.Unlock()

	t.Cleanup(func() {
		mutex.Lock()
		defer mutex.Unlock()
		stdout = os.Stdout
	})
	return &buf
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"station": "debug",
			"hat":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"station", true, true, true},
		{"hat", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			if got := handler.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(context.Background(), slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestModuleLoggerWritesModuleAttr(t *testing.T) {
	buf := resetState(t)
	Initialize(Config{Level: "debug", Format: "text"})

	GetLogger("station").Debug("mode changed", "mode", "pressure")

	out := buf.String()
	if IsJournalAvailable() && out == "" {
		t.Skip("journald captured the output")
	}
	for _, want := range []string{"mode changed", "module=station", "mode=pressure", "level=DEBUG"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	buf := resetState(t)
	Initialize(Config{Level: "info", Format: "json"})

	GetLogger("hat").Info("opened", "part", "display")

	out := buf.String()
	if IsJournalAvailable() && out == "" {
		t.Skip("journald captured the output")
	}
	if !strings.Contains(out, `"module":"hat"`) {
		t.Errorf("json output = %q", out)
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")
	logger.Info("info message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("debug message written %d times, want 1. Output: %s", count, output)
	}
	if count := strings.Count(output, "info message"); count != 2 {
		t.Errorf("info message written %d times, want 2. Output: %s", count, output)
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState(t)

	loggerBefore := GetLogger("station")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"station": "debug"},
	})

	// Initialize updates the LevelVar behind the cached logger.
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should follow the configured level")
	}
}

func TestSetLevels(t *testing.T) {
	resetState(t)
	Initialize(Config{Level: "info", Format: "text"})

	logger := GetLogger("config")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug enabled before SetLevels")
	}

	SetLevels("warn", map[string]string{"config": "debug"})

	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("module override not applied")
	}
	if GetLogger("other").Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("global warn level not applied to new logger")
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			switch {
			case tt.isNil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
			case !tt.isNil && got == nil:
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			case !tt.isNil && *got != tt.want:
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestJournalHandler_Level(t *testing.T) {
	var level slog.LevelVar
	level.Set(slog.LevelWarn)
	h := NewJournalHandler(&level)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	level.Set(slog.LevelDebug)
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("handler did not follow the LevelVar")
	}
}

func TestAddAttrToFields(t *testing.T) {
	fields := map[string]string{}

	addAttrToFields(fields, slog.String("module", "station"), "")
	addAttrToFields(fields, slog.Float64("hpa", 1013.25), "")
	addAttrToFields(fields, slog.Duration("elapsed", 1500*time.Millisecond), "IO_")
	addAttrToFields(fields, slog.Any("error", errors.New("nak")), "")
	addAttrToFields(fields, slog.Group("reading", slog.Int("celsius", 21)), "IO_")
	addAttrToFields(fields, slog.String("remote-addr", "127.0.0.1"), "")
	addAttrToFields(fields, slog.String("_private", "x"), "")

	want := map[string]string{
		"MODULE":             "station",
		"HPA":                "1013.25",
		"IO_ELAPSED":         "1.5s",
		"ERROR":              "nak",
		"IO_READING_CELSIUS": "21",
		"REMOTE_ADDR":        "127.0.0.1",
		"PRIVATE":            "x",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("fields[%s] = %q, want %q", k, fields[k], v)
		}
	}
	if len(fields) != len(want) {
		t.Errorf("fields = %v", fields)
	}
}

func TestJournalHandler_GroupsApplyToLaterAttrs(t *testing.T) {
	h := NewJournalHandler(slog.LevelInfo).
		WithAttrs([]slog.Attr{slog.String("module", "hat")}).
		WithGroup("io").
		WithAttrs([]slog.Attr{slog.String("peripheral", "strip")}).(*JournalHandler)

	if h.fields["MODULE"] != "hat" || h.fields["IO_PERIPHERAL"] != "strip" {
		t.Errorf("fields = %v", h.fields)
	}
	if h.fields["SYSLOG_IDENTIFIER"] != SyslogIdentifier {
		t.Errorf("SYSLOG_IDENTIFIER = %q", h.fields["SYSLOG_IDENTIFIER"])
	}
}

type failingHandler struct {
	slog.Handler
	err error
}

func (f failingHandler) Handle(context.Context, slog.Record) error { return f.err }

func TestMultiHandlerJoinsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	fault := errors.New("socket closed")

	h := NewMultiHandler(nil, failingHandler{Handler: slog.NewTextHandler(&buf, nil), err: fault},
		slog.NewTextHandler(&buf, nil))

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "reading", 0)
	if err := h.Handle(context.Background(), r); !errors.Is(err, fault) {
		t.Errorf("Handle() error = %v, want %v", err, fault)
	}
	if !strings.Contains(buf.String(), "reading") {
		t.Errorf("healthy sink skipped after a failure: %q", buf.String())
	}
}
