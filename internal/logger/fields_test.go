package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  url_key  ", Value: "  https://example.com/  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != "url_key" || fields[0].String != "https://example.com/" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithFields(logger, zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %v", entries[0].ContextMap()["foo"])
	}

	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	enriched.Info("another log")
}

func TestSnapshotFields(t *testing.T) {
	tests := []struct {
		name        string
		urlKey      string
		fingerprint string
		want        map[string]string
	}{
		{
			name:        "both",
			urlKey:      "https://jobs.example.com/list",
			fingerprint: "1k2j3h",
			want:        map[string]string{FieldURLKey: "https://jobs.example.com/list", FieldFingerprint: "1k2j3h"},
		},
		{
			name:   "fingerprint missing",
			urlKey: "https://jobs.example.com/list",
			want:   map[string]string{FieldURLKey: "https://jobs.example.com/list"},
		},
		{
			name: "empty",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := SnapshotFields(tt.urlKey, tt.fingerprint)
			if len(fields) != len(tt.want) {
				t.Fatalf("expected %d fields, got %d", len(tt.want), len(fields))
			}
			for _, f := range fields {
				if tt.want[f.Key] != f.String {
					t.Fatalf("unexpected field %s=%q", f.Key, f.String)
				}
			}
		})
	}
}

func TestWithProviderFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithProviderFields(zap.New(core), "gemini", "model-x").Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" || ctx[FieldModel] != "model-x" {
		t.Fatalf("unexpected context %v", ctx)
	}

	WithProviderFields(nil, "gemini", "model-x").Info("does not panic")
}
