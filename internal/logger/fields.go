package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldURLKey is the structured log field key for a snapshot's canonical URL key.
	FieldURLKey = "url_key"
	// FieldFingerprint is the structured log field key for a layout fingerprint.
	FieldFingerprint = "fingerprint"
	// FieldProvider is the structured log field key for a classifier provider name.
	FieldProvider = "provider"
	// FieldModel is the structured log field key for a model identifier.
	FieldModel = "model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SnapshotFields describes a page snapshot. Empty values are skipped.
func SnapshotFields(urlKey, fingerprint string) []zap.Field {
	return StringFields(
		StringField{Key: FieldURLKey, Value: urlKey},
		StringField{Key: FieldFingerprint, Value: fingerprint},
	)
}

// ProviderFields describes an external classifier backend.
func ProviderFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithProviderFields attaches the provider fields to logger.
func WithProviderFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, ProviderFields(provider, model)...)
}
