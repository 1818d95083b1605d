package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: "debug", Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithOrderID(ctx, "order-9")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"request_id\":\"req-123\"")) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"order_id\":\"order-9\"")) {
		t.Fatalf("expected order_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: "debug", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	if bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("did not expect stack when warn stack disabled")
	}
}

func TestLoggerContextFieldsDoNotLeakIntoBase(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	_ = log.WithUserID(context.Background(), "u1")
	log.Info(context.Background(), "plain")

	if bytes.Contains(buf.Bytes(), []byte("user_id")) {
		t.Fatalf("base logger should not carry derived fields; entry=%s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestNewDefaultsToInfoLevel(t *testing.T) {
	for _, level := range []string{"", "verbose"} {
		buf := &bytes.Buffer{}
		log := New(Options{Level: level, Output: buf})
		log.Debug(context.Background(), "hidden")
		log.Info(context.Background(), "shown")
		if bytes.Contains(buf.Bytes(), []byte("hidden")) || !bytes.Contains(buf.Bytes(), []byte("shown")) {
			t.Fatalf("level %q should log at info; entry=%s", level, buf.String())
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	ctx := log.WithFields(context.Background(), map[string]any{"a": 1})
	ctx = log.WithUserID(ctx, "u1")
	log.Info(ctx, "ignored")
	log.Warn(ctx, "ignored")
	log.Error(ctx, "ignored", errors.New("x"))
	if ctx == nil {
		t.Fatal("expected a usable context")
	}
}

func TestFieldsAccumulateAcrossCalls(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "storefront", Output: buf})

	ctx := log.WithUserID(context.Background(), "u1")
	ctx = log.WithFields(ctx, map[string]any{"item_count": 2})
	log.Debug(ctx, "hidden")
	log.Info(ctx, "order.placed")

	out := buf.String()
	for _, want := range []string{`"service":"storefront"`, `"user_id":"u1"`, `"item_count":2`, `"message":"order.placed"`} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Fatalf("debug entry should be filtered at info level; entry=%s", out)
	}
}
