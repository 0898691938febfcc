package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const applyPage = `<!doctype html>
<html><head><title>공고 상세</title></head>
<body>
  <button data-testid="apply-btn">지원하기</button>
  <button>취소</button>
  <input name="email" type="email" placeholder="이메일">
</body></html>`

func testConfig(t *testing.T, yamlSrc string) *Config {
	t.Helper()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yamlSrc)); err != nil {
		t.Fatalf("read config: %v", err)
	}

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return config
}

func testSession(t *testing.T) *session {
	t.Helper()

	s, err := newSession(context.Background(), testConfig(t, ""), zap.NewNop())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}
