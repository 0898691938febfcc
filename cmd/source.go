package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom/htmldom"
	"github.com/spigell/uiindex/internal/dom/roddom"
)

const stdinSource = "-"

var httpClient = http.DefaultClient

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// load returns the document behind source: stdin, a local file or an http(s)
// URL. Remote pages go through the browser when it is enabled.
func (s *session) load(ctx context.Context, source string) (*htmldom.Document, error) {
	switch {
	case source == stdinSource:
		return htmldom.Parse(os.Stdin, "")
	case isRemote(source) && s.config.Browser.Enabled:
		return s.capture(ctx, source)
	case isRemote(source):
		return s.fetch(ctx, source)
	default:
		return loadFile(source)
	}
}

func (s *session) capture(ctx context.Context, pageURL string) (*htmldom.Document, error) {
	b, err := s.launchBrowser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := b.Open(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("capturing page", zap.String("url", pageURL))
	return roddom.Capture(ctx, page)
}

func (s *session) fetch(ctx context.Context, pageURL string) (*htmldom.Document, error) {
	if s.config.Index.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Index.FetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	// Redirects change the page identity.
	final := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return htmldom.Parse(resp.Body, final)
}

func loadFile(path string) (*htmldom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return htmldom.Parse(f, "file://"+filepath.ToSlash(abs))
}
